package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"service-job-assignment/internal/logx"
	"service-job-assignment/internal/metrics"
)

// unmatchedRoute labels requests no route pattern matched.
const unmatchedRoute = "unmatched"

// Observability counts and times every request by route pattern and writes one access log line.
// Server errors log at error level, the rest at info.
func Observability(logger logx.Logger, m *metrics.HTTP) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			started := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			elapsed := time.Since(started)
			code := ww.Status()
			if code == 0 {
				code = http.StatusOK
			}
			route := routeLabel(r)

			if m != nil {
				status := strconv.Itoa(code)
				m.Requests.WithLabelValues(r.Method, route, status).Inc()
				m.Duration.WithLabelValues(r.Method, route, status).Observe(elapsed.Seconds())
			}

			log := logger.Info
			if code >= http.StatusInternalServerError {
				log = logger.Error
			}
			log("http request",
				logx.String("request_id", chimw.GetReqID(r.Context())),
				logx.String("method", r.Method),
				logx.String("route", route),
				logx.String("path", r.URL.Path),
				logx.Int("status", code),
				logx.Int("bytes", ww.BytesWritten()),
				logx.Duration("duration", elapsed),
			)
		})
	}
}

func routeLabel(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}
