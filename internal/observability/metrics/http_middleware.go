package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// HTTPMetricsMiddleware records method, path, status, and latency for every
// API call, feeding the request counters and duration histograms.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)
		dur := time.Since(start)
		ObserveHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(ww.status), dur)
	})
}

// statusWriter captures the response code; handlers that never call
// WriteHeader count as 200.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
