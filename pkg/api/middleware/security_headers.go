package middleware

import "net/http"

var securityHeaders = map[string]string{
	"X-Frame-Options":        "DENY",
	"X-Content-Type-Options": "nosniff",
	"Referrer-Policy":        "strict-origin-when-cross-origin",
	"Permissions-Policy":     "geolocation=(), microphone=(), camera=()",
}

// SecurityHeaders sets conservative browser security headers. The rendered
// HTML view loads echarts from a CDN, so no Content-Security-Policy is set.
func SecurityHeaders() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for k, v := range securityHeaders {
				w.Header().Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}
