package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dj0083/final-project-sub000/api/controllers"
	"github.com/Dj0083/final-project-sub000/api/middleware"
	"github.com/Dj0083/final-project-sub000/internal/attribution"
	"github.com/Dj0083/final-project-sub000/internal/funding"
	"github.com/Dj0083/final-project-sub000/internal/handshake"
	"github.com/Dj0083/final-project-sub000/pkg/config"
	"github.com/Dj0083/final-project-sub000/pkg/db/models"
	"github.com/Dj0083/final-project-sub000/pkg/enums"
	"github.com/Dj0083/final-project-sub000/pkg/logger"
	"github.com/Dj0083/final-project-sub000/pkg/metrics"
	pkgredis "github.com/Dj0083/final-project-sub000/pkg/redis"
)

// Deps carries everything the router mounts. Optional collaborators may be nil.
type Deps struct {
	Config          *config.Config
	Logger          *logger.Logger
	Idempotency     pkgredis.IdempotencyStore
	Ready           map[string]controllers.Pinger
	HTTPMetrics     *metrics.HTTPMetrics
	MetricsHandler  http.Handler
	Files           http.Handler
	Connections     handshake.Service[models.Connection]
	PartnerRequests handshake.Service[models.PartnerRequest]
	Funding         funding.Service
	Attribution     attribution.Service
	Links           *attribution.Links
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	maxUpload := cfg.Storage.MaxUploadBytes()

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Ready))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	if deps.Files != nil {
		r.Handle("/files/*", http.StripPrefix(cfg.Storage.PublicBase, deps.Files))
	}

	r.Route("/api/v1/track", func(r chi.Router) {
		r.Get("/click/{productId}", controllers.TrackClick(deps.Attribution, cfg.Tracking.StorefrontURL, logg))
		r.With(
			middleware.WebhookSecret(cfg.Tracking.WebhookSecret, logg),
			middleware.Idempotency(deps.Idempotency, logg),
		).Post("/sale", controllers.TrackSale(deps.Attribution, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.Auth, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", controllers.HandshakeList(deps.Connections, logg))
			r.With(middleware.RequireRole(logg, enums.RoleSeller)).Post("/request", controllers.ConnectionRequest(deps.Connections, logg))
			r.With(middleware.RequireRole(logg, enums.RoleInvestor)).Post("/respond", controllers.ConnectionRespond(deps.Connections, logg))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/messages", controllers.ThreadMessageList(deps.Connections, logg))
				r.Post("/messages", controllers.ThreadMessagePost(deps.Connections, logg))
				r.Get("/documents", controllers.ThreadDocumentList(deps.Connections, logg))
				r.Post("/documents", controllers.ThreadDocumentUpload(deps.Connections, maxUpload, logg))
			})
		})

		r.Route("/partner-requests", func(r chi.Router) {
			r.Get("/", controllers.HandshakeList(deps.PartnerRequests, logg))
			r.With(middleware.RequireRole(logg, enums.RoleSeller)).Post("/", controllers.PartnerRequestCreate(deps.PartnerRequests, logg))
			r.Route("/{id}", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, enums.RoleAffiliate))
					r.Post("/accept", controllers.PartnerRequestRespond(deps.PartnerRequests, enums.DecisionAccept, logg))
					r.Post("/reject", controllers.PartnerRequestRespond(deps.PartnerRequests, enums.DecisionReject, logg))
				})
				r.Get("/messages", controllers.ThreadMessageList(deps.PartnerRequests, logg))
				r.Post("/messages", controllers.ThreadMessagePost(deps.PartnerRequests, logg))
				r.Get("/documents", controllers.ThreadDocumentList(deps.PartnerRequests, logg))
				r.Post("/documents", controllers.ThreadDocumentUpload(deps.PartnerRequests, maxUpload, logg))
				r.Get("/link", controllers.PartnerLink(deps.Links, logg))
			})
		})

		r.Route("/funding-requests", func(r chi.Router) {
			r.Get("/", controllers.FundingList(deps.Funding, logg))
			r.Post("/", controllers.FundingCreate(deps.Funding, logg))
			r.Get("/stats", controllers.FundingStats(deps.Funding, logg))
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", controllers.FundingGet(deps.Funding, logg))
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
					r.Post("/approve", controllers.FundingApprove(deps.Funding, logg))
					r.Post("/fund", controllers.FundingFund(deps.Funding, logg))
					r.Post("/reject", controllers.FundingReject(deps.Funding, logg))
				})
				r.Get("/messages", controllers.ThreadMessageList(deps.Funding, logg))
				r.Post("/messages", controllers.ThreadMessagePost(deps.Funding, logg))
				r.Get("/documents", controllers.ThreadDocumentList(deps.Funding, logg))
				r.Post("/documents", controllers.ThreadDocumentUpload(deps.Funding, maxUpload, logg))
			})
		})

		r.Route("/affiliates/me", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleAffiliate))
			r.Get("/", controllers.AffiliateMe(deps.Attribution, logg))
			r.Put("/", controllers.AffiliateUpsert(deps.Attribution, logg))
			r.Get("/dashboard", controllers.AffiliateDashboard(deps.Attribution, logg))
		})

		r.Route("/admin/affiliates", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
			r.Get("/", controllers.AdminAffiliateList(deps.Attribution, logg))
			r.Post("/{id}/approve", controllers.AdminAffiliateSetStatus(deps.Attribution, enums.AffiliateStatusApproved, logg))
			r.Post("/{id}/reject", controllers.AdminAffiliateSetStatus(deps.Attribution, enums.AffiliateStatusRejected, logg))
		})
	})

	return r
}
