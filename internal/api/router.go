// Newsrank - Personal News Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrank

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/newsrank/internal/middleware"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router. A nil middleware uses the defaults.
func NewRouter(handler *Handler, mw *Middleware) *Router {
	if mw == nil {
		mw = NewMiddleware(nil)
	}
	return &Router{handler: handler, middleware: mw}
}

// Setup builds the http.Handler serving every route.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(rt.middleware.CORS())
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Compress(5, "application/json"))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed", nil)
	})

	r.Get("/health", rt.handler.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(rt.middleware.RateLimit())

		r.Route("/recommendations", func(r chi.Router) {
			r.Get("/", rt.handler.GetRecommendations)
			r.Get("/stats", rt.handler.GetRecommendationStats)
		})

		r.Post("/articles/{id}/feedback", rt.handler.PostFeedback)

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", rt.handler.ListSources)
			r.Post("/", rt.handler.CreateSource)
			r.Post("/{id}/import", rt.handler.ImportSource)
		})

		r.Get("/stats", rt.handler.GetSystemStats)
	})

	return r
}
