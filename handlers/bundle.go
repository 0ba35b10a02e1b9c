package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// HandlerBundle groups all endpoint handlers into one struct for route registration.
type HandlerBundle struct {
	// AuthCache caches verified identities; nil disables caching.
	AuthCache *redis.Client

	// User booking endpoints
	CreateBooking    gin.HandlerFunc
	MyBookings       gin.HandlerFunc
	UpcomingBookings gin.HandlerFunc
	PastBookings     gin.HandlerFunc
	GetBooking       gin.HandlerFunc
	CancelBooking    gin.HandlerFunc
	CompleteBooking  gin.HandlerFunc
	Availability     gin.HandlerFunc

	// Counselor endpoints
	CounselorSchedule gin.HandlerFunc
	ConfirmBooking    gin.HandlerFunc
	StartSession      gin.HandlerFunc
	ReportNoShow      gin.HandlerFunc

	// Directory endpoints
	ListCounselors gin.HandlerFunc
	GetCounselor   gin.HandlerFunc

	// Admin endpoints
	AdminHandler *AdminHandler
}
