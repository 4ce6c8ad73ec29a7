package routes

import (
	"log/slog"

	"github.com/01moynul/fitstudio-golang/internal/auth"
	"github.com/01moynul/fitstudio-golang/internal/handlers"
	"github.com/01moynul/fitstudio-golang/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Options carries the router settings that do not belong to a handler.
type Options struct {
	AllowedOrigin      string
	Redis              *redis.Client // nil disables rate limiting
	RateLimitPerMinute int64
	Log                *slog.Logger
}

// CORSMiddleware tells the browser that the configured frontend origin may
// call us with credentials.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Preflight requests get an empty 204.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(opts.Log))

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(opts.AllowedOrigin))

	if opts.Redis != nil {
		router.Use(middleware.RateLimit(opts.Redis, opts.RateLimitPerMinute, opts.Log))
	}

	// --- Probes ---
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		// --- Public Routes ---
		v1.GET("/ping", h.Ping)
		v1.POST("/auth/login", h.Login)

		// --- Protected Routes (Login Required) ---
		authed := v1.Group("/")
		authed.Use(middleware.AuthMiddleware(h.DB, h.Tokens, opts.Log))
		{
			authed.GET("/classes", h.ListClasses)
			authed.GET("/classes/:id", h.GetClass)
			authed.GET("/memberships", h.GetMyMemberships)

			// --- Notification Routes ---
			authed.GET("/notifications", h.GetMyNotifications)
			authed.PATCH("/notifications/:id/read", h.MarkNotificationAsRead)

			bookings := authed.Group("/bookings")
			bookings.Use(middleware.RequireCapability(auth.CapBookClasses))
			{
				bookings.POST("", h.CreateBooking)
				bookings.GET("", h.GetMyBookings)
				bookings.GET("/:id", h.GetBooking)
				bookings.POST("/:id/cancel", h.CancelBooking)
			}

			waitlist := authed.Group("/waitlist")
			waitlist.Use(middleware.RequireCapability(auth.CapBookClasses))
			{
				waitlist.GET("", h.GetMyWaitlist)
				waitlist.POST("/:id/remove", h.RemoveFromWaitlist)
			}

			// --- Trainer Routes ---
			trainer := authed.Group("/trainer")
			trainer.Use(middleware.RequireCapability(auth.CapManageOwnClasses))
			{
				trainer.GET("/schedule", h.GetSchedule)
				trainer.GET("/dashboard-stats", h.GetTrainerStats)
				trainer.GET("/clients", h.GetTrainerClients)
				trainer.GET("/clients/:client_id", h.GetClientDetails)
				trainer.POST("/classes", h.CreateClass)
				trainer.PUT("/classes/:id", h.UpdateClass)
				trainer.POST("/classes/:id/cancel", h.CancelClass)
				trainer.GET("/classes/:id/attendees", h.GetAttendees)
				trainer.POST("/classes/:id/check-in/:booking_id", h.CheckIn)
				trainer.POST("/classes/:id/no-show/:booking_id", h.MarkNoShow)
			}
		}
	}

	return router
}
