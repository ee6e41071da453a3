package server

import (
	"context"
	"net/http"

	"github.com/hpyride/hpyride/docs"
	"github.com/hpyride/hpyride/internal/adapter/http/middleware"
	"github.com/hpyride/hpyride/internal/domain/types"
	"github.com/hpyride/hpyride/pkg/logger"
	wrap "github.com/hpyride/hpyride/pkg/logger/wrapper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

var (
	anyUser = []types.UserRole{types.RoleRider, types.RoleDriver, types.RoleAdmin}
	riders  = []types.UserRole{types.RoleRider}
	drivers = []types.UserRole{types.RoleDriver}
	members = []types.UserRole{types.RoleRider, types.RoleDriver}
)

// setupRoutes - setups http routes
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware, mode types.ServiceMode, log logger.Logger) {
	// System Health
	mux.HandleFunc("GET /health", routes.health.HealthCheck)

	setupSwaggerRoutes(mux, mode, log)
	setupMetricsRoute(mux)

	switch mode {
	case types.APIService:
		setupAuthRoutes(mux, routes, m)
		setupRideRoutes(mux, routes, m)
		setupBookingRoutes(mux, routes, m)
		setupChatRoutes(mux, routes, m)
		setupVerificationRoutes(mux, routes, m)
		setupNotificationRoutes(mux, routes, m)
		setupFeedbackRoutes(mux, routes)
	case types.RealtimeService:
		setupRealtimeRoutes(mux, routes)
	case types.FunctionsService:
		setupFunctionRoutes(mux, routes)
	}
}

func setupAuthRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.HandleFunc("POST /auth/register", routes.auth.Register)
	mux.HandleFunc("POST /auth/login", routes.auth.Login)
	mux.HandleFunc("POST /auth/refresh", routes.auth.Refresh)
	mux.HandleFunc("POST /auth/logout", routes.auth.Logout)
	mux.Handle("GET /auth/me", m.RequireRoles(routes.auth.Profile, anyUser...))
}

func setupRideRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /rides", m.RequireRoles(routes.ride.Create, drivers...))                 // Post a ride
	mux.HandleFunc("GET /rides", routes.ride.Search)                                          // Search scheduled rides
	mux.Handle("GET /rides/mine", m.RequireRoles(routes.ride.ListMine, drivers...))           // Rides of the driver
	mux.HandleFunc("GET /rides/{id}", routes.ride.Get)                                        // Ride details
	mux.Handle("POST /rides/{id}/cancel", m.RequireRoles(routes.ride.Cancel, drivers...))     // Cancel a ride
	mux.Handle("POST /rides/{id}/complete", m.RequireRoles(routes.ride.Complete, drivers...)) // Complete a ride
}

func setupBookingRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /bookings", m.RequireRoles(routes.booking.Request, riders...))
	mux.Handle("GET /bookings", m.RequireRoles(routes.booking.ListMine, members...))
	mux.Handle("GET /bookings/{id}", m.RequireRoles(routes.booking.Get, members...))
	mux.Handle("POST /bookings/{id}/confirm", m.RequireRoles(routes.booking.Confirm, drivers...))
	mux.Handle("POST /bookings/{id}/reject", m.RequireRoles(routes.booking.Reject, drivers...))
	mux.Handle("POST /bookings/{id}/arrive", m.RequireRoles(routes.booking.Arrive, drivers...))
	mux.Handle("POST /bookings/{id}/start", m.RequireRoles(routes.booking.Start, drivers...))
	mux.Handle("POST /bookings/{id}/complete", m.RequireRoles(routes.booking.Complete, drivers...))
	mux.Handle("POST /bookings/{id}/cancel", m.RequireRoles(routes.booking.Cancel, members...))
	mux.Handle("POST /bookings/{id}/rating", m.RequireRoles(routes.booking.Rate, members...))
}

func setupChatRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /bookings/{id}/messages", m.RequireRoles(routes.chat.Send, members...))
	mux.Handle("GET /bookings/{id}/messages", m.RequireRoles(routes.chat.History, members...))
	mux.Handle("POST /listings/{id}/messages", m.RequireRoles(routes.chat.SendListing, members...))
	mux.Handle("GET /listings/{id}/messages", m.RequireRoles(routes.chat.ListingHistory, members...))
}

func setupVerificationRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("POST /vehicles", m.RequireRoles(routes.verification.RegisterVehicle, drivers...))
	mux.Handle("GET /vehicles", m.RequireRoles(routes.verification.ListVehicles, drivers...))
	mux.Handle("POST /verifications", m.RequireRoles(routes.verification.Submit, members...))
	mux.Handle("GET /verifications/me", m.RequireRoles(routes.verification.Mine, members...))
}

func setupNotificationRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	mux.Handle("GET /notifications", m.RequireRoles(routes.notification.List, anyUser...))
	mux.Handle("POST /notifications/read-all", m.RequireRoles(routes.notification.MarkAllRead, anyUser...))
	mux.Handle("POST /notifications/{id}/read", m.RequireRoles(routes.notification.MarkRead, anyUser...))
	mux.Handle("PUT /me/push-token", m.RequireRoles(routes.notification.RegisterPushToken, anyUser...))
}

func setupFeedbackRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("GET /feedback", routes.feedback.Categories)
	mux.HandleFunc("GET /feedback/kinds/{kind}", routes.feedback.ForKind)
	mux.HandleFunc("GET /feedback/{file}", routes.feedback.Sound)
}

// setupRealtimeRoutes - the gateway checks identity itself so that it can answer before the upgrade.
func setupRealtimeRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("GET /ws/drivers/{driver_id}", routes.gateway.HandleDriver)              // Driver device session
	mux.HandleFunc("GET /ws/bookings/{booking_id}/track", routes.gateway.HandleTrack)       // Rider tracking
	mux.HandleFunc("GET /ws/bookings/{booking_id}/chat", routes.gateway.HandleChat)         // Booking chat stream
	mux.HandleFunc("GET /ws/users/{user_id}/bookings", routes.gateway.HandleBookingUpdates) // Booking updates
	mux.HandleFunc("GET /ws/listings/{listing_id}/chat", routes.gateway.HandleListingChat)  // Car listing chat stream
}

// setupFunctionRoutes - functions authenticate their callers themselves.
func setupFunctionRoutes(mux *http.ServeMux, routes *handlers) {
	mux.HandleFunc("POST /functions/v1/{name}", routes.functions.Invoke)
}

// setupSwaggerRoutes configures Swagger UI endpoints based on service mode
func setupSwaggerRoutes(mux *http.ServeMux, mode types.ServiceMode, log logger.Logger) {
	var instanceName string

	switch mode {
	case types.APIService:
		instanceName = docs.InstanceAPI
	case types.RealtimeService:
		instanceName = docs.InstanceRealtime
	case types.FunctionsService:
		instanceName = docs.InstanceFunctions
	default:
		log.Warn(wrap.WithAction(context.Background(), "setup swagger routes"), "unknown service mode for swagger setup", "mode", mode)
		return
	}

	// Swagger UI endpoint
	swaggerURL := httpSwagger.InstanceName(instanceName)
	mux.HandleFunc("GET /swagger/", httpSwagger.Handler(swaggerURL))
}

// setupMetricsRoute configures the Prometheus metrics endpoint
func setupMetricsRoute(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
}
