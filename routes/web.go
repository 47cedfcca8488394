package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KonghaYao/text2location/app/controllers"
)

func SetupWebRoutes(router *gin.Engine) {
	web := router.Group("/")
	{
		web.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"message": "text2location address search",
				"version": controllers.Version,
				"docs":    "/docs",
			})
		})

		web.GET("/docs", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"api": "text2location API v1",
				"endpoints": map[string]string{
					"search":           "GET /v1/addresses/search?q=&limit=",
					"first":            "GET /v1/addresses/first?q=",
					"health":           "GET /v1/health",
					"weights":          "GET|PUT /v1/admin/weights",
					"reload":           "POST /v1/admin/reload",
					"cache_invalidate": "POST /v1/admin/cache/invalidate",
					"stats":            "GET /v1/admin/stats",
					"export_meili":     "POST /v1/admin/export/meili",
					"metrics":          "GET /metrics",
				},
			})
		})
	}
}
