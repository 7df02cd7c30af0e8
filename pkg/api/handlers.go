package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/ingest"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/query"
	"github.com/platinummonkey/tally/pkg/store"
)

// health handles GET /health
// Always reports ok; no dependencies are checked.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

// ready handles GET /health/ready
// Reports 503 when the aggregate store is unreachable.
func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.aggregates.Ping(ctx); err != nil {
		httputil.WriteServiceUnavailable(w, err.Error())
		return
	}
	httputil.WriteSuccess(w, map[string]string{"status": "ok"})
}

// ingestEvent handles POST /ingest
// Body: {tenant, user, path, ts?}. Responds {"ok":true} once all three
// aggregate updates applied; 400 on validation failure, 500 with the
// underlying error text on any store failure.
func (s *Server) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var event ingest.Event
	if !httputil.ParseJSONOrError(w, r, &event) {
		return
	}

	if err := s.pipeline.Ingest(r.Context(), event); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, map[string]bool{"ok": true})
}

// getStats handles GET /stats?tenant=
func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	tenant := httputil.ParseQueryString(r, "tenant", "")
	if !httputil.RequireNonEmpty(w, tenant, "tenant") {
		return
	}

	stats, err := s.queries.GetStats(r.Context(), tenant)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, stats)
}

// getTopPaths handles GET /top-paths?tenant=&n=
// Query params:
//   - tenant: required
//   - n: number of entries (default 10); n <= 0 yields an empty list
func (s *Server) getTopPaths(w http.ResponseWriter, r *http.Request) {
	tenant := httputil.ParseQueryString(r, "tenant", "")
	if !httputil.RequireNonEmpty(w, tenant, "tenant") {
		return
	}

	n, err := httputil.ParseQueryInt(r, "n", query.DefaultTopN)
	if err != nil {
		httputil.WriteValidationError(w, err.Error())
		return
	}

	paths, err := s.queries.GetTopPaths(r.Context(), tenant, n)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, paths)
}

// writeDomainError maps pipeline/query errors to HTTP responses: validation
// failures are 400s, store failures and anything unanticipated are 500s
// carrying the error text. Nothing is swallowed or retried.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		httputil.WriteValidationError(w, verr.Error())
		return
	}

	logger := observability.FromContext(r.Context())
	if errors.Is(err, store.ErrUnavailable) {
		logger.WithError(err).Error("store operation failed")
	} else {
		logger.WithError(err).Error("unexpected error")
	}
	httputil.WriteInternalError(w, err)
}
