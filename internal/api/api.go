// Package api serves gift generation and session management over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/giftgenius/internal/metrics"
	"github.com/kalambet/giftgenius/internal/session"
)

const maxRequestBodySize = 1 << 20 // 1MB

// Deps holds what the HTTP handlers need. Sessions and Metrics may be nil.
type Deps struct {
	Generator session.Generator
	Sessions  *session.Manager
	Metrics   *metrics.Metrics
	// Token protects the session routes when set.
	Token string
}

// NewHandler returns the router for the public API.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(deps.Metrics))
	r.Use(middleware.Recoverer)

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", handleModels(deps.Generator))
		r.Post("/generate-gifts", handleGenerateGifts(deps.Generator))
		r.Post("/suggest-tags", handleSuggestTags(deps.Generator))

		if deps.Sessions != nil {
			r.Route("/sessions", func(r chi.Router) {
				r.Use(BearerAuth(deps.Token))
				sessionRoutes(r, deps.Sessions)
			})
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// accessLog logs one line per request and counts it by route pattern.
func accessLog(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.ObserveHTTP(r.Method, route, strconv.Itoa(status))

			level := slog.LevelInfo
			if route == "/health" || route == "/metrics" {
				level = slog.LevelDebug
			}
			slog.Log(r.Context(), level, "http request",
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
