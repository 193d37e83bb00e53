package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"marketplace/internal/metrics"
	"marketplace/pkg/logger"
)

// TraceHeader carries the request trace id in both directions
const TraceHeader = "X-Trace-ID"

// withTraceID propagates the caller's trace id, or assigns one, through the request context
func withTraceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(TraceHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(TraceHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithTraceID(r.Context(), id)))
	})
}

// statusRecorder remembers the response code for metrics
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency under a fixed route label
func instrument(route string, handler http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}

		handler(rec, r)

		metrics.RecordHTTPRequest(route, rec.code, time.Since(start))
	})
}
