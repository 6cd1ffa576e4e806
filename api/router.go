// Package api wires the HTTP surface: health checks plus the users,
// conferences, and bookings routers.
package api

import (
	"net/http"
	"time"

	"seatline/internal/bookings"
	"seatline/internal/bus"
	bookingcache "seatline/internal/cache"
	"seatline/internal/conferences"
	"seatline/internal/shared/config"
	"seatline/internal/shared/database"
	"seatline/internal/topics"
	"seatline/internal/users"
	rediscache "seatline/pkg/cache"

	"github.com/gin-gonic/gin"
)

func newCacheService(db *database.DB) rediscache.Service {
	return rediscache.NewService(db.GetRedisClient())
}

// Router owns the dependencies shared across module routers.
type Router struct {
	config *config.Config
	db     *database.DB
	bus    *bus.Bus
	cache  *bookingcache.BookingCache

	BookingService *bookings.Service
}

func NewRouter(cfg *config.Config, db *database.DB, messageBus *bus.Bus) *Router {
	return &Router{
		config: cfg,
		db:     db,
		bus:    messageBus,
		cache:  bookingcache.NewBookingCache(newCacheService(db), cfg.Redis.ReadCacheTTL),
	}
}

// SetupRoutes configures all application routes.
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	api := engine.Group(r.config.GetAPIBasePath())
	{
		topicService := topics.NewService(r.db.GetPostgreSQL())

		userService := users.NewService(r.db.GetPostgreSQL(), topicService, r.config)
		userController := users.NewController(userService)
		users.SetupUserRoutes(api, userController)

		conferenceService := conferences.NewService(r.db.GetPostgreSQL(), topicService, r.bus, r.config)
		conferenceController := conferences.NewController(conferenceService)
		conferences.SetupConferenceRoutes(api, conferenceController)

		bookingService := bookings.NewService(r.db.GetPostgreSQL(), r.bus, r.cache, r.config.Booking.ConfirmationWindow)
		r.BookingService = bookingService
		bookingController := bookings.NewController(bookingService)
		bookings.SetupBookingRoutes(api, bookingController)
	}
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seatline",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "seatline",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})
}
