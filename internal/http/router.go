package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robertarktes/stay-reservations/internal/idempotency"
	"github.com/robertarktes/stay-reservations/internal/observability"
	"github.com/robertarktes/stay-reservations/internal/rateLimit"
)

func SetupRouter(h *Handlers, logger observability.Logger, rl *rateLimit.RateLimiter, idemp *idempotency.Idempotency, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)
	r.Use(LoggerMiddleware(logger))
	r.Use(TracingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware(rl))

	// Public surface: the blocked-dates calendar and operational probes.
	r.Get("/v1/properties/{id}/dates", h.BlockedDates)
	r.Get("/v1/healthz", h.Healthz)
	r.Get("/v1/readyz", h.Readyz)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(jwtSecret))
		r.Use(IdempotencyMiddleware(idemp))

		r.Post("/v1/bookings", h.CreateBooking)
		r.Get("/v1/bookings/my", h.MyBookings)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Get("/v1/admin/bookings", h.AdminBookings)
			r.Patch("/v1/admin/bookings/{id}/status", h.UpdateBookingStatus)
			r.Get("/v1/admin/stats", h.DashboardStats)
		})
	})

	return r
}
