// Package web provides the HTTP server and handlers for the test sheet generator.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/testsheet/internal/config"
	"github.com/JonMunkholm/testsheet/internal/core"
	appmw "github.com/JonMunkholm/testsheet/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wires the question-list endpoints onto a chi router.
type Server struct {
	cfg     *config.Config
	service *core.Service
	router  *chi.Mux
	server  *http.Server

	limiters []*rateLimiter
}

// NewServer builds the router. Nothing listens until Start.
func NewServer(cfg *config.Config, service *core.Service) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()

	sc := cfg.Server
	s.server = &http.Server{
		Addr:              sc.Addr(),
		Handler:           s.router,
		ReadTimeout:       sc.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      sc.WriteTimeout,
		IdleTimeout:       sc.IdleTimeout,
	}
	return s
}

// compressible lists the response types worth gzipping; workbooks are
// already zip archives.
var compressible = []string{"text/html", "text/plain", "text/csv", "application/json"}

func (s *Server) setupMiddleware() {
	s.router.Use(
		middleware.RequestID,
		appmw.TrustedRealIP(s.cfg.Security.TrustedProxies),
		appmw.Logger,
		middleware.Recoverer,
		middleware.Compress(5, compressible...),
		middleware.Timeout(s.cfg.Server.RequestTimeout),
		securityHeaders(s.cfg.Security.EnableCSP),
	)
	if s.cfg.Rate.Enabled {
		s.router.Use(s.newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute).middleware)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(appmw.APIKeyAuth(&s.cfg.Security))

		r.Get("/template", s.handleTemplate(false))
		r.Get("/sample", s.handleTemplate(true))

		// Uploads parse a workbook, so they get their own tighter budget.
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(s.newRateLimiter(s.cfg.Rate.GenerateLimit, time.Minute).middleware)
			}
			r.Post("/validate", s.handleValidate)
			r.Post("/preview", s.handlePreview)
			r.Post("/generate", s.handleGenerate)
		})
	})
}

// Start serves on the configured address until Shutdown. It returns
// http.ErrServerClosed after a clean shutdown.
func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown stops the rate limiter sweepers, then drains open connections
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
	}
	return s.server.Shutdown(ctx)
}

// Router exposes the handler tree, mainly for httptest.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// cspPolicy allows htmx from unpkg and inline styles; everything else is
// same-origin.
const cspPolicy = "default-src 'self'; script-src 'self' https://unpkg.com; style-src 'self' 'unsafe-inline'; img-src 'self' data:"

func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	fixed := http.Header{
		"X-Content-Type-Options": {"nosniff"},
		"X-Frame-Options":        {"DENY"},
		"Referrer-Policy":        {"strict-origin-when-cross-origin"},
	}
	if enableCSP {
		fixed.Set("Content-Security-Policy", cspPolicy)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for k := range fixed {
				h.Set(k, fixed.Get(k))
			}
			next.ServeHTTP(w, r)
		})
	}
}
