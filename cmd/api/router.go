package main

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twxlab/twx/internal/config"
	"github.com/twxlab/twx/internal/handlers"
	"github.com/twxlab/twx/internal/middleware"
	"github.com/twxlab/twx/internal/repo"
	"github.com/twxlab/twx/internal/workflow"
)

// maxBodyBytes caps JSON request bodies. Inspection attribute bags are
// small; anything past 1 MiB is abuse.
const maxBodyBytes = 1 << 20

func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	elementRepo := repo.NewElementRepo(database)
	transferRepo := repo.NewTransferRepo(database)
	mappingRepo := repo.NewMappingRepo(database)
	inspectionRepo := repo.NewInspectionRepo(database)
	projectRepo := repo.NewProjectRepo(database)
	userRepo := repo.NewUserRepo(database)
	auditRepo := repo.NewAuditRepo(database)
	engine := &workflow.Engine{DB: database}

	elementHandler := &handlers.ElementHandler{
		Elements:    elementRepo,
		Transfers:   transferRepo,
		Mappings:    mappingRepo,
		Inspections: inspectionRepo,
		Projects:    projectRepo,
		Engine:      engine,
		AuditRepo:   auditRepo,
	}
	inspectionHandler := &handlers.InspectionHandler{
		Inspections: inspectionRepo,
		Elements:    elementRepo,
		AuditRepo:   auditRepo,
	}
	projectHandler := &handlers.ProjectHandler{Projects: projectRepo}
	authHandler := &handlers.AuthHandler{
		UserRepo:    userRepo,
		Secret:      []byte(cfg.JWTSecret),
		ExpireHours: cfg.JWTExpireHours,
	}
	userHandler := &handlers.UserHandler{UserRepo: userRepo}
	auditHandler := &handlers.AuditHandler{AuditRepo: auditRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(maxBodyBytes))

	// ===== Public =====
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		handlers.JSONResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		if err := database.PingContext(req.Context()); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		handlers.JSONResponse(w, map[string]string{"status": "ready"}, http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.AuthRateLimiter()
	r.Route("/auth", func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// ===== Authenticated =====
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))

		r.Route("/elements", func(r chi.Router) {
			r.Post("/", elementHandler.RegisterElement)
			r.Get("/", elementHandler.ListElements)
			r.Get("/qr/{code}", elementHandler.GetByScanCode)
			r.Get("/check-linking/{externalElementId}", elementHandler.CheckLinking)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", elementHandler.GetElement)
				r.Put("/", elementHandler.UpdateElement)
				r.Get("/details", elementHandler.GetDetails)
				r.Get("/history", elementHandler.GetHistory)
				r.Get("/inspections", elementHandler.GetInspections)
				r.Get("/link", elementHandler.ListLinks)
				r.Post("/link", elementHandler.CreateLink)
				r.Post("/transfer-request", elementHandler.RequestTransfer)
				r.Post("/approve", elementHandler.Approve)
				r.Post("/receive", elementHandler.Receive)
				r.Get("/qr.png", elementHandler.QRImage)
			})
		})

		r.Get("/transfers/pending", elementHandler.ListPendingTransfers)

		r.Route("/inspections", func(r chi.Router) {
			r.Post("/", inspectionHandler.Upsert)
			r.Get("/", inspectionHandler.List)
			r.Get("/element/{elementId}", inspectionHandler.GetByElement)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Post("/", projectHandler.Create)
			r.Get("/", projectHandler.List)
			r.Get("/{id}", projectHandler.Get)
			r.Delete("/{id}", projectHandler.Delete)
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.Get("/{id}", userHandler.Get)
			r.Put("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
		})

		r.Get("/audit", auditHandler.List)
	})

	return r
}
