package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scitools/isiskit/pkg/idfile"
)

// StartServer starts the HTTP server with all routes configured
func StartServer(engine Engine, cache ResultCache, codec *idfile.Codec, config ServerConfig) error {
	metrics := NewMetrics()
	server := NewServer(engine, cache, codec, config, metrics)

	r := Router(server, config)

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	server.log.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, r)
}

// Router builds the chi router for a server; split out so tests can
// exercise routes without binding a socket.
func Router(server *Server, config ServerConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(config.APIKey))

		r.Get("/health", server.metrics.InstrumentHandler("GET", "/api/v1/health", server.handleHealth))

		r.Get("/databases/{db}/records",
			server.metrics.InstrumentHandler("GET", "/api/v1/databases/{db}/records", server.handleSearch))
		r.Post("/databases/{db}/records",
			server.metrics.InstrumentHandler("POST", "/api/v1/databases/{db}/records", server.handleImport))
	})

	return r
}
