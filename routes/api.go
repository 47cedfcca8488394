package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/KonghaYao/text2location/app/controllers"
	"github.com/KonghaYao/text2location/internal/metrics"
)

// SetupAPIRoutes /v1 routes
func SetupAPIRoutes(router *gin.Engine, addressController *controllers.AddressController, adminController *controllers.AdminController) {
	v1 := router.Group("/v1")
	{
		addresses := v1.Group("/addresses")
		{
			addresses.GET("/search", addressController.Search)
			addresses.GET("/first", addressController.First)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/weights", adminController.GetWeights)
			admin.PUT("/weights", adminController.UpdateWeights)
			admin.POST("/reload", adminController.Reload)
			admin.POST("/cache/invalidate", adminController.InvalidateCache)
			admin.GET("/stats", adminController.GetStats)
			admin.POST("/export/meili", adminController.ExportMeili)
		}

		v1.GET("/health", addressController.HealthCheck)
	}
}

func SetupHealthRoutes(router *gin.Engine, addressController *controllers.AddressController) {
	router.GET("/health", addressController.HealthCheck)
	router.GET("/ready", addressController.Ready)
	router.GET("/live", addressController.HealthCheck)
}

// SetupMetricsRoutes Prometheus scrape endpoint
func SetupMetricsRoutes(router *gin.Engine) {
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
}
