/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for browser clients

ROUTE GROUPS:
  /api/policies/*     Policy creation and history
  /api/claims/*       Claim lifecycle
  /api/disputes/*     Dispute monitoring
  /api/arbitrators/*  Adapter registry and passive decisions
  /api/court/*        Court proxy (including court callbacks)
  /api/quotas/*       Quota administration
  /healthz            Liveness and store reachability

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", CallerHeader},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Route("/policies", func(r chi.Router) {
			r.Post("/", h.CreatePolicy)
			r.Get("/{hash}", h.GetPolicy)
			r.Get("/{hash}/events", h.GetEvents)
		})

		r.Route("/claims", func(r chi.Router) {
			r.Post("/", h.CreateClaim)
			r.Get("/{hash}", h.GetClaim)
			r.Get("/{hash}/events", h.GetEvents)
			r.Get("/{hash}/payouts", h.GetPayouts)
			r.Get("/{hash}/court-dispute", h.GetClaimCourtDispute)
			r.Post("/{hash}/settlement", h.ProposeSettlement)
			r.Post("/{hash}/accept", h.AcceptClaim)
			r.Post("/{hash}/accept-settlement", h.AcceptSettlement)
			r.Post("/{hash}/dispute", h.CreateDispute)
			r.Post("/{hash}/resolve", h.ResolveDispute)
		})

		r.Get("/disputes/stuck", h.ListStuckDisputes)

		r.Route("/arbitrators", func(r chi.Router) {
			r.Get("/", h.ListArbitrators)
			r.Post("/passive/decisions", h.PassiveDecide)
		})

		r.Route("/court", func(r chi.Router) {
			r.Get("/cost", h.GetArbitrationCost)
			r.Get("/disputes/{id}", h.GetCourtDispute)
			r.Get("/disputes/{id}/evidence", h.ListEvidence)
			r.Post("/disputes/{id}/evidence", h.SubmitEvidence)
			r.Post("/disputes/{id}/appeal", h.Appeal)
			r.Post("/disputes/{id}/period", h.NotifyPeriod)
			r.Post("/disputes/{id}/ruling", h.Rule)
		})

		r.Route("/quotas", func(r chi.Router) {
			r.Get("/{account}", h.GetQuota)
			r.Put("/{account}", h.SetQuota)
			r.Delete("/{account}", h.ResetQuota)
		})
	})

	return r
}
