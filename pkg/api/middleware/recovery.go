package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// Recovery turns a handler panic into a 500 and logs the stack.
func Recovery(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("handler panic",
					logging.RequestID(GetRequestID(r.Context())),
					logging.Path(r.URL.Path),
					logging.Any("panic", rec),
					logging.String("stack", string(debug.Stack())),
				)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
