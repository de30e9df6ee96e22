package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/grooming-platform/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/grooming-platform/internal/http/middleware"
	"github.com/wolfman30/grooming-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger

	ImportHandler       *handlers.ImportHandler
	BookingHandler      *handlers.BookingHandler
	RegistrationHandler *handlers.RegistrationHandler

	// OperatorAuthSecret signs operator JWTs. Operator routes are not
	// mounted when it is empty.
	OperatorAuthSecret string

	// ImportQuota limits imports per operator. Optional.
	ImportQuota *httpmiddleware.ImportQuota

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		// Customer self-registration, also claims import-created placeholders.
		if cfg.RegistrationHandler != nil {
			public.With(httpmiddleware.RateLimit(5, 10)).Post("/api/customers/register", cfg.RegistrationHandler.Register)
		}
	})

	// Operator routes (protected by JWT)
	if cfg.OperatorAuthSecret != "" {
		r.Group(func(operator chi.Router) {
			operator.Use(httpmiddleware.OperatorJWT(cfg.OperatorAuthSecret))

			if cfg.ImportHandler != nil {
				imports := operator.With()
				if cfg.ImportQuota != nil {
					imports = operator.With(cfg.ImportQuota.Middleware)
				}
				imports.Post("/api/imports", cfg.ImportHandler.Upload)
				operator.Post("/api/imports/report", cfg.ImportHandler.DownloadReport)
			}
			if cfg.BookingHandler != nil {
				operator.Post("/api/bookings", cfg.BookingHandler.Create)
			}
		})
	}

	return r
}
