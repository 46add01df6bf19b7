package router

import (
	"net/http"

	"settlement-service/internal/handler"
	"settlement-service/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func SetupRoutes(r chi.Router, h *handler.SettlementHandler, auth *middleware.Auth) chi.Router {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Public endpoints (health + gateway webhook)
	r.Group(func(pub chi.Router) {
		pub.Get("/settlement/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ok"))
		})

		// Gateway pushes account updates here; the handler re-pulls state
		// rather than trusting the webhook payload.
		pub.Post("/settlement/webhook/connect/{payeeID}", h.RefreshConnectAccount)
	})

	// Internal workflow endpoints, invoked by the booking service
	r.Route("/settlement/svc", func(pr chi.Router) {
		pr.Use(auth.Require("service", "admin"))

		pr.Post("/bookings/{bookingID}/complete", h.CompleteBooking)
		pr.Post("/bookings/{bookingID}/cancel", h.CancelBooking)
		pr.Post("/bookings/{bookingID}/refund/emergency", h.EmergencyRefund)
		pr.Get("/bookings/{bookingID}/refund", h.GetRefund)
		pr.Get("/bookings/{bookingID}/escrow", h.GetEscrow)
		pr.Post("/bookings/{bookingID}/escrow/release-early", h.ReleaseEarly)

		pr.Post("/pricing/quote", h.QuotePricing)

		pr.Get("/payees/{payeeID}/eligibility", h.EarlyReleaseEligibility)
		pr.Post("/payees/{payeeID}/connect", h.StartOnboarding)
		pr.Get("/payees/{payeeID}/connect", h.GetConnectAccount)
		pr.Post("/payees/{payeeID}/connect/refresh", h.RefreshConnectAccount)
		pr.Get("/payees/{payeeID}/connect/logs", h.ConnectStatusLogs)

		pr.Get("/credits/{devoteeID}/{payeeID}", h.CreditBalance)
		pr.Post("/credits/redeem", h.RedeemCredit)
	})

	return r
}
