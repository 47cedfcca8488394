// Package routes wires the HTTP surface of the text2location service.
//
// Layout:
//   - api.go: versioned API, health and metrics routes
//   - web.go: landing page and docs
//   - routes.go: middleware and SetupAllRoutes
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KonghaYao/text2location/app/controllers"
	"github.com/KonghaYao/text2location/helpers/utils"
)

const requestIDHeader = "X-Request-ID"

// SetupAllRoutes registers middleware and every route group.
func SetupAllRoutes(router *gin.Engine, addressController *controllers.AddressController, adminController *controllers.AdminController) {
	setupMiddleware(router)

	SetupWebRoutes(router)
	SetupHealthRoutes(router, addressController)
	SetupAPIRoutes(router, addressController, adminController)
	SetupMetricsRoutes(router)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":  "Route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})
}

func setupMiddleware(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(requestID())
}

// requestID reuses an incoming X-Request-ID or generates one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = utils.NewID()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}
