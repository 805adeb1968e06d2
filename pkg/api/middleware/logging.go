package middleware

import (
	"net/http"
	"time"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// Logging logs one line per request at info level, or warn for 5xx.
func Logging(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.With(logging.Component("http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := wrapResponseWriter(w)
			next.ServeHTTP(rw, r)

			fields := []logging.Field{
				logging.RequestID(GetRequestID(r.Context())),
				logging.String("method", r.Method),
				logging.Path(r.URL.Path),
				logging.Int("status", rw.status),
				logging.Int("bytes", rw.bytes),
				logging.Latency(time.Since(start)),
			}
			if rw.status >= http.StatusInternalServerError {
				logger.Warn("request failed", fields...)
				return
			}
			logger.Info("request", fields...)
		})
	}
}
