package http

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/academy-backend-go/internal/domain/permission"
	"github.com/cmlabs-hris/academy-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/academy-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

type RouterConfig struct {
	Logger         *slog.Logger
	LogLevel       slog.Level
	AllowedOrigins []string

	JWTService jwt.Service
	Authorizer permission.Authorizer

	PunchHandler      PunchHandler
	PermissionHandler PermissionHandler
	ReportHandler     ReportHandler
	StreamHandler     StreamHandler

	// Metrics and Uploads are mounted when non-nil
	Metrics    http.Handler
	UploadsDir string
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Content-Disposition"},
		MaxAge:           300,
	}))

	if cfg.Logger != nil {
		r.Use(httplog.RequestLogger(cfg.Logger, &httplog.Options{
			Level:  cfg.LogLevel,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/"))

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}
	if cfg.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadsDir))))
	}

	capability := func(module permission.Module, c permission.Capability) func(http.Handler) http.Handler {
		return middleware.RequireCapability(cfg.Authorizer, module, c)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// SSE clients authenticate with a query token
		r.Get("/employee-attendance/stream", cfg.StreamHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(cfg.JWTService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Route("/employee-attendance", func(r chi.Router) {
				r.Post("/stream/token", cfg.StreamHandler.Token)

				r.Group(func(r chi.Router) {
					r.Use(capability(permission.ModuleEmployeePunches, permission.CapabilityAdd))
					r.Post("/punch-in", cfg.PunchHandler.PunchIn)
					r.Post("/punch-out", cfg.PunchHandler.PunchOut)
					r.Post("/break", cfg.PunchHandler.AddBreak)
				})

				r.Group(func(r chi.Router) {
					r.Use(capability(permission.ModuleEmployeePunches, permission.CapabilityView))
					r.Get("/today", cfg.PunchHandler.GetToday)
					r.Get("/daily-log", cfg.PunchHandler.GetLog)
				})

				r.With(capability(permission.ModuleEmployeePunches, permission.CapabilityEdit)).
					Post("/break/{breakID}/end", cfg.PunchHandler.EndBreak)

				r.With(capability(permission.ModuleEmployees, permission.CapabilityView)).
					Get("/all", cfg.PunchHandler.GetAll)
			})

			r.Route("/permissions", func(r chi.Router) {
				r.Get("/modules", cfg.PermissionHandler.ListModules)
				r.Get("/users/{id}", cfg.PermissionHandler.GetUserPermissions)
				r.With(capability(permission.ModuleUsers, permission.CapabilityEdit)).
					Put("/users/{id}", cfg.PermissionHandler.UpdateUserPermissions)
			})

			r.Route("/reports/punches", func(r chi.Router) {
				r.Use(capability(permission.ModuleReports, permission.CapabilityView))
				r.Get("/monthly", cfg.ReportHandler.MonthlyPunchReport)
				r.Get("/export", cfg.ReportHandler.ExportPunches)
			})
		})
	})

	return r
}
