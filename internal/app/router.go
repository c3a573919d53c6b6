package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"rideshare/internal/handler"
	"rideshare/internal/middleware"
	"rideshare/internal/redis"
	"rideshare/internal/service"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	AuthHandler   *handler.AuthHandler
	RideHandler   *handler.RideHandler
	DriverHandler *handler.DriverHandler
	AIHandler     *handler.AIHandler
	AuthService   *service.AuthService
	ResponseCache redis.ResponseCacheInterface
	NewRelicApp   *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	if deps.ResponseCache != nil {
		router.Use(middleware.Idempotency(deps.ResponseCache))
	}

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/v1")
	{
		v1.POST("/auth", deps.AuthHandler.Authenticate)

		ai := v1.Group("/ai")
		{
			ai.POST("", deps.AIHandler.Proxy)
			ai.GET("", deps.AIHandler.Health)
		}

		authed := v1.Group("")
		authed.Use(middleware.AuthRequired(deps.AuthService))
		{
			rides := authed.Group("/rides")
			{
				rides.POST("/estimate", deps.RideHandler.Estimate)
				rides.POST("", deps.RideHandler.Book)
				rides.GET("", deps.RideHandler.GetAll)
				rides.GET("/:id", deps.RideHandler.GetRide)
				rides.PATCH("/:id/status", deps.RideHandler.UpdateStatus)
				rides.POST("/:id/cancel", deps.RideHandler.Cancel)
				rides.POST("/:id/rating", deps.RideHandler.Rate)
			}

			authed.GET("/users/:id/rides", deps.RideHandler.History)

			drivers := authed.Group("/drivers")
			{
				drivers.POST("/:id/location", deps.DriverHandler.UpdateLocation)
				drivers.POST("/:id/offline", deps.DriverHandler.GoOffline)
				drivers.GET("/nearby", deps.DriverHandler.Nearby)
			}
		}
	}

	return router
}
