package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/platinummonkey/tally/pkg/ingest"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/query"
	"github.com/platinummonkey/tally/pkg/store"
)

// Server is the HTTP surface of the tally service. All dependencies are
// injected at construction; nothing is reached through package globals.
type Server struct {
	router     *mux.Router
	pipeline   *ingest.Pipeline
	queries    *query.Service
	aggregates *store.Aggregates
	logger     *observability.Logger
}

// NewServer wires the middleware chain and routes.
func NewServer(
	pipeline *ingest.Pipeline,
	queries *query.Service,
	aggregates *store.Aggregates,
	logger *observability.Logger,
	metrics *observability.Metrics,
	registry *prometheus.Registry,
) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		pipeline:   pipeline,
		queries:    queries,
		aggregates: aggregates,
		logger:     logger,
	}

	s.router.Use(
		observability.RequestIDMiddleware(),
		observability.RecoveryMiddleware(logger),
		observability.HTTPMetricsMiddleware(metrics),
		observability.RequestLoggingMiddleware(logger),
	)

	s.router.HandleFunc("/health", s.health).Methods("GET")
	s.router.HandleFunc("/health/ready", s.ready).Methods("GET")
	observability.RegisterMetricsEndpoint(s.router, registry)

	s.router.HandleFunc("/ingest", s.ingestEvent).Methods("POST")
	s.router.HandleFunc("/stats", s.getStats).Methods("GET")
	s.router.HandleFunc("/top-paths", s.getTopPaths).Methods("GET")

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
