// Package server is the backend-for-frontend behind the browser dashboard.
// It keeps one goAdmin tab per browser and exposes the login, OTP, session
// and section flows as JSON endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	goAdmin "github.com/MrEthical07/goAdmin"
	"github.com/MrEthical07/goAdmin/internal/config"
	"github.com/MrEthical07/goAdmin/metrics/export/prometheus"
	"github.com/MrEthical07/goAdmin/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Server serves the dashboard API for many browsers.
type Server struct {
	client *goAdmin.Client
	cfg    config.ServerConfig
	routes goAdmin.RoutesConfig
	logger *slog.Logger
	tabs   *registry
	prom   *prometheus.PrometheusExporter
}

// New builds a server over client. A nil logger uses slog.Default().
func New(client *goAdmin.Client, cfg config.ServerConfig, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		client: client,
		cfg:    cfg,
		routes: client.Config().Routes,
		logger: logger,
		tabs:   newRegistry(client),
		prom:   prometheus.NewPrometheusExporter(client),
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(s.accessLog)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", s.prom.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.BrowserID(middleware.BrowserCookie{
			Name:   s.cfg.CookieName,
			Secure: s.cfg.CookieSecure,
		}))

		r.Route("/auth", func(r chi.Router) {
			r.Get("/state", s.handleState)
			r.Post("/login-type", s.handleLoginType)
			r.Post("/login", s.handleLogin)
			r.Post("/otp", s.handleOTP)
			r.Post("/otp/back", s.handleOTPBack)
			r.Post("/logout", s.handleLogout)
		})
		r.Get("/api/session", s.handleSession)
		r.Get("/api/sections", s.handleSectionIndex)
		r.Get("/api/sections/{section}", s.handleSection)
	})
	return r
}

// Run serves on cfg.Addr until ctx ends, pruning idle tabs in the
// background, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	go s.pruneLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("goadmin server listening", slog.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.tabs.closeAll()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.tabs.closeAll()
	return err
}

func (s *Server) pruneLoop(ctx context.Context) {
	interval := min(s.cfg.IdleTabTTL, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.tabs.prune(s.cfg.IdleTabTTL); n > 0 {
				s.logger.Debug("pruned idle tabs", slog.Int("count", n))
			}
		}
	}
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("request_id", chimw.GetReqID(r.Context())),
		)
	})
}

// tab resolves the caller's tab. BrowserID always runs first.
func (s *Server) tab(r *http.Request) *browserTab {
	id, _ := middleware.BrowserIDFromContext(r.Context())
	return s.tabs.get(id)
}
