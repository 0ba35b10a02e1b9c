package routes

import (
	"net/http"
	"time"

	"mindwell/config"
	"mindwell/handlers"
	"mindwell/middleware"
	"mindwell/models"
	"mindwell/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		h := utils.GetHealthStatus()
		status := http.StatusOK
		state := "ok"
		if !h.CheckedAt.IsZero() && !h.Healthy() {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "dependencies": h})
	})
}

// RegisterBookingRoutes registers the user booking endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookings := r.Group("/api/bookings")
	{
		bookings.Use(middleware.JWTAuthMiddleware(hb.AuthCache))

		// Availability is readable by any authenticated identity.
		bookings.GET("/expert/:expertId/availability", hb.Availability)

		user := bookings.Group("")
		user.Use(middleware.RequireRole(models.RoleUser))
		user.POST("/create", hb.CreateBooking)
		user.GET("/my-bookings", hb.MyBookings)
		user.GET("/upcoming", hb.UpcomingBookings)
		user.GET("/past", hb.PastBookings)
		user.GET("/:bookingNumber", hb.GetBooking)
		user.PUT("/:bookingNumber/cancel", hb.CancelBooking)
		user.PUT("/:bookingNumber/complete", hb.CompleteBooking)
	}
}

// RegisterCounselorRoutes registers the endpoints a counselor uses to run their sessions.
func RegisterCounselorRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	counselor := r.Group("/api/counselor/bookings")
	{
		counselor.Use(middleware.JWTAuthMiddleware(hb.AuthCache), middleware.RequireRole(models.RoleCounselor))
		counselor.GET("", hb.CounselorSchedule)
		counselor.PUT("/:bookingNumber/confirm", hb.ConfirmBooking)
		counselor.PUT("/:bookingNumber/start", hb.StartSession)
		counselor.PUT("/:bookingNumber/no-show", hb.ReportNoShow)
		counselor.PUT("/:bookingNumber/cancel", hb.CancelBooking)
		counselor.PUT("/:bookingNumber/complete", hb.CompleteBooking)
	}
}

// RegisterDirectoryRoutes registers the counselor directory.
func RegisterDirectoryRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	directory := r.Group("/api/counselors")
	{
		directory.Use(middleware.JWTAuthMiddleware(hb.AuthCache))
		directory.GET("", hb.ListCounselors)
		directory.GET("/:id", hb.GetCounselor)
	}
}

// RegisterAdminRoutes sets up endpoints for operators and the payment collaborator.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin")
	{
		adminGroup.Use(middleware.AdminAuthMiddleware())
		adminGroup.PUT("/bookings/:bookingNumber/payment", hb.AdminHandler.RecordPaymentHandler)
		adminGroup.PUT("/counselors/:id/active", hb.AdminHandler.SetCounselorActiveHandler)
	}
}

func corsConfig() cors.Config {
	origins := config.AllowedOrigins()
	wildcard := len(origins) == 1 && origins[0] == "*"
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: !wildcard,
		MaxAge:           12 * time.Hour,
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(corsConfig()))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterCounselorRoutes(r, hb)
	RegisterDirectoryRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
