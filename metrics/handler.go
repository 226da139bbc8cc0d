package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/tablekit/restaurant-directory/logger"
)

type Logger = logger.Logger

// URLPrefix is the leading path segment of the API the observers react to.
const URLPrefix = "api"

// we have to intercept the ResponseWriter in order to get the statuscode
type LoggingResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.StatusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (m *Metrics) NewLatencyMetricsHandler(h http.Handler) http.Handler {

	if m == nil {
		return h
	}
	m.log.Debugf("NewLatencyMetricsHandler")
	observer := NewLatencyObservers(m)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fields := strings.Split(strings.Trim(r.URL.Path, "/ "), "/")
		if fields[0] != URLPrefix {
			h.ServeHTTP(w, r)
			return
		}

		// WriteHeader(int) is not called if our response implicitly returns
		// 200 OK, so we default to that status code.
		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			StatusCode:     http.StatusOK,
		}

		start := time.Now()
		h.ServeHTTP(lrw, r)
		latency := time.Since(start).Seconds()

		observer.ObserveRequestsCount(fields, r.Method)
		observer.ObserveRequestsLatency(latency, fields, r.Method)
	})
}
