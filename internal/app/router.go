package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"

	"swiftride/internal/handler"
	"swiftride/internal/idempotency"
	"swiftride/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	UserHandler    *handler.UserHandler
	RideHandler    *handler.RideHandler
	DriverHandler  *handler.DriverHandler
	TripHandler    *handler.TripHandler
	PaymentHandler *handler.PaymentHandler
	WSHandler      *handler.WSHandler
	Idempotency    *idempotency.Coordinator
	NewRelicApp    *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORS())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.Idempotency(deps.Idempotency))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// User routes.
		users := v1.Group("/users")
		{
			users.POST("", deps.UserHandler.RegisterUser)
			users.GET("/:id", deps.UserHandler.GetUser)
		}

		// Ride routes. Accepting a ride creates the trip, so it lives
		// with the trip handler.
		rides := v1.Group("/rides")
		{
			rides.POST("", deps.RideHandler.CreateRide)
			rides.GET("/:id", deps.RideHandler.GetRide)
			rides.POST("/:id/cancel", deps.RideHandler.CancelRide)
			rides.POST("/:id/accept", deps.TripHandler.AcceptRide)
		}

		// Driver routes.
		drivers := v1.Group("/drivers")
		{
			drivers.POST("", deps.DriverHandler.RegisterDriver)
			drivers.GET("/nearby", deps.DriverHandler.FindNearby)
			drivers.GET("/:id", deps.DriverHandler.GetDriver)
			drivers.PUT("/location", deps.DriverHandler.UpdateLocation)
			drivers.POST("/offline", deps.DriverHandler.GoOffline)
		}

		// Trip routes.
		trips := v1.Group("/trips")
		{
			trips.GET("/:id", deps.TripHandler.GetTrip)
			trips.POST("/:id/pause", deps.TripHandler.PauseTrip)
			trips.POST("/:id/resume", deps.TripHandler.ResumeTrip)
			trips.POST("/:id/end", deps.TripHandler.EndTrip)
		}

		// Payment routes.
		payments := v1.Group("/payments")
		{
			payments.POST("", deps.PaymentHandler.ProcessPayment)
			payments.GET("/:id", deps.PaymentHandler.GetPayment)
		}

		// Realtime notifications.
		v1.GET("/ws", deps.WSHandler.Connect)
	}

	return router
}
