// Package server wires the HTTP surface: middleware stack, route table, and
// lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Khim-khaos/CraftMastery-sub001/internal/handler"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/logger"
	"github.com/Khim-khaos/CraftMastery-sub001/internal/metrics"
)

// Config carries the server's wiring: handlers are built by the caller so the
// route table stays free of construction concerns.
type Config struct {
	Port           int
	APIKey         string
	TrustedProxies []string

	Progression *handler.ProgressionHandlers
	Admin       *handler.AdminHandlers
	Readiness   handler.Pinger // nil when no durable store is configured
}

type Server struct {
	httpServer     *http.Server
	trustedProxies []string
}

// NewServer builds the router and middleware stack.
func NewServer(cfg Config) *Server {
	s := &Server{trustedProxies: cfg.TrustedProxies}

	r := chi.NewRouter()

	// Chi middleware executes in order defined (outermost to innermost)
	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(cfg.APIKey))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(cfg.Readiness))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Player-facing progression routes
		r.Route("/progression", func(r chi.Router) {
			r.Post("/study-node", cfg.Progression.HandleStudyNode())
			r.Post("/study-tab", cfg.Progression.HandleStudyTab())
			r.Post("/reset-node", cfg.Progression.HandleResetNode())
			r.Post("/reset-tab", cfg.Progression.HandleResetTab())
			r.Get("/tabs", cfg.Progression.HandleGetTabs())
			r.Get("/nodes", cfg.Progression.HandleGetNodes())
			r.Get("/player", cfg.Progression.HandleGetPlayer())
		})

		// Game-adapter routes
		r.Post("/experience/report", cfg.Progression.HandleReportExperience())
		r.Get("/craft/check", cfg.Progression.HandleCheckCraft())

		// Administrative routes
		r.Route("/admin", func(r chi.Router) {
			r.Route("/points", func(r chi.Router) {
				r.Post("/grant", cfg.Admin.HandleGrantPoints())
				r.Post("/take", cfg.Admin.HandleTakePoints())
				r.Post("/set", cfg.Admin.HandleSetPoints())
			})

			r.Route("/progression", func(r chi.Router) {
				r.Post("/force-study-node", cfg.Admin.HandleForceStudyNode())
				r.Post("/force-study-tab", cfg.Admin.HandleForceStudyTab())
				r.Post("/reset-player", cfg.Admin.HandleResetPlayer())
			})

			r.Route("/experience", func(r chi.Router) {
				r.Post("/set", cfg.Admin.HandleSetExperience())
				r.Post("/set-level", cfg.Admin.HandleSetLevel())
				r.Post("/multiplier", cfg.Admin.HandleSetMultiplier())
				r.Post("/conversion-rate", cfg.Admin.HandleSetConversionRate())
			})

			r.Route("/tree", func(r chi.Router) {
				r.Get("/", cfg.Admin.HandleGetTree())
				r.Post("/reload", cfg.Admin.HandleReloadTree())
				r.Post("/tab/upsert", cfg.Admin.HandleUpsertTab())
				r.Post("/tab/remove", cfg.Admin.HandleRemoveTab())
				r.Post("/node/upsert", cfg.Admin.HandleUpsertNode())
				r.Post("/node/remove", cfg.Admin.HandleRemoveNode())
				r.Post("/link/remove", cfg.Admin.HandleRemoveLink())
			})

			r.Route("/permissions", func(r chi.Router) {
				r.Get("/", cfg.Admin.HandleGetPermissions())
				r.Post("/role", cfg.Admin.HandleSetRole())
				r.Post("/group", cfg.Admin.HandleAssignGroup())
				r.Post("/player-override", cfg.Admin.HandleSetPlayerOverride())
				r.Post("/group-override", cfg.Admin.HandleSetGroupOverride())
				r.Post("/clear-overrides", cfg.Admin.HandleClearOverrides())
			})
		})
	})

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Health and metrics endpoints are scraped constantly; skip them.
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", extractIP(r, s.trustedProxies),
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for debug logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, "Authorization") {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug("Request headers", "headers", sanitizedHeaders)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds())
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
