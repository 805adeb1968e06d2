package middleware

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("ok"))
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// --- Chain ---

func TestChain_Order(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	serve(Chain(ok, mark("a"), mark("b"), mark("c")), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

// --- RequestID ---

func TestRequestID_Generates(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := serve(h, httptest.NewRequest("GET", "/", nil))

	require.NotEmpty(t, seen)
	assert.Len(t, seen, 36, "expected a UUID")
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_AdoptsWellFormedHeader(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123.x_y")

	rec := serve(RequestID()(ok), req)

	assert.Equal(t, "abc-123.x_y", rec.Header().Get(RequestIDHeader))
}

func TestRequestID_RejectsMalformedHeader(t *testing.T) {
	tests := []string{
		"has space",
		"new\nline",
		strings.Repeat("a", 65),
		"semi;colon",
	}
	for _, id := range tests {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, id)

		rec := serve(RequestID()(ok), req)

		assert.NotEqual(t, id, rec.Header().Get(RequestIDHeader))
		assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
	}
}

// --- Recovery ---

func TestRecovery(t *testing.T) {
	h := Recovery(logging.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := serve(h, httptest.NewRequest("GET", "/graph", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRecovery_RepanicsAbortHandler(t *testing.T) {
	h := Recovery(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		serve(h, httptest.NewRequest("GET", "/", nil))
	})
}

// --- Logging ---

func TestLogging(t *testing.T) {
	var buf strings.Builder
	logger := logging.NewZapLogger(&buf, logging.InfoLevel)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), RequestID(), Logging(logger))

	serve(h, httptest.NewRequest("GET", "/graph", nil))
	_ = logger.Sync()

	out := buf.String()
	assert.Contains(t, out, `"path":"/graph"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"request_id"`)
}

// --- Metrics ---

type fakeRecorder struct {
	mu       sync.Mutex
	requests []string
	sizes    []float64
	inFlight int
	peak     int
}

func (f *fakeRecorder) RecordHTTPRequest(method, path, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, method+" "+path+" "+status)
}

func (f *fakeRecorder) RecordResponseSize(_, _ string, size float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sizes = append(f.sizes, size)
}

func (f *fakeRecorder) IncHTTPRequestsInFlight() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight++
	f.peak = max(f.peak, f.inFlight)
}

func (f *fakeRecorder) DecHTTPRequestsInFlight() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--
}

func TestMetrics(t *testing.T) {
	rec := &fakeRecorder{}
	h := Metrics(rec)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("hello"))
	}))

	serve(h, httptest.NewRequest("POST", "/nodes/42/pin", nil))

	assert.Equal(t, []string{"POST /nodes/{id}/pin 202"}, rec.requests)
	assert.Equal(t, []float64{5}, rec.sizes)
	assert.Equal(t, 0, rec.inFlight)
	assert.Equal(t, 1, rec.peak)
}

func TestMetrics_NilRecorder(t *testing.T) {
	rec := serve(Metrics(nil)(ok), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/graph", routeLabel("/graph"))
	assert.Equal(t, "/nodes/{id}/pin", routeLabel("/nodes/7/pin"))
	assert.Equal(t, "/nodes", routeLabel("/nodes"))
}

// --- RateLimit ---

type countRecorder struct{ n int }

func (c *countRecorder) RecordRateLimited() { c.n++ }

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2}, nil)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"), "burst exhausted")
	assert.True(t, rl.Allow("b"), "clients are independent")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refilled")
}

func TestRateLimiter_MaxClients(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 10, MaxClients: 2}, nil)

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))
	assert.False(t, rl.Allow("c"))
	assert.True(t, rl.Allow("a"), "known clients are still served")
	assert.Equal(t, 2, rl.Clients())
}

func TestRateLimiter_Cleanup(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{ClientExpiration: time.Minute}, nil)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	rl.Allow("old")
	now = now.Add(2 * time.Minute)
	rl.Allow("fresh")

	assert.Equal(t, 1, rl.Cleanup())
	assert.Equal(t, 1, rl.Clients())
}

func TestRateLimit_Middleware(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}, nil)
	counter := &countRecorder{}
	h := RateLimit(rl, ClientIP(nil), counter)(ok)

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"

	assert.Equal(t, http.StatusOK, serve(h, req).Code)

	rec := serve(h, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, 1, counter.n)
}

func TestRateLimit_NilLimiter(t *testing.T) {
	h := RateLimit(nil, ClientIP(nil), nil)(ok)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(h, httptest.NewRequest("GET", "/", nil)).Code)
	}
}

// --- ClientIP ---

func TestParseTrustedProxies(t *testing.T) {
	networks, err := ParseTrustedProxies("10.0.0.0/8, 192.168.1.1, ::1")
	require.NoError(t, err)
	require.Len(t, networks, 3)
	assert.True(t, networks[1].Contains(net.ParseIP("192.168.1.1")))

	_, err = ParseTrustedProxies("not-an-ip")
	assert.Error(t, err)
}

func TestClientIP(t *testing.T) {
	trusted, err := ParseTrustedProxies("10.0.0.0/8")
	require.NoError(t, err)
	clientIP := ClientIP(trusted)

	tests := []struct {
		name   string
		remote string
		header map[string]string
		want   string
	}{
		{"direct", "203.0.113.9:1234", nil, "203.0.113.9"},
		{"untrusted peer ignores headers", "203.0.113.9:1234", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.9"},
		{"trusted real ip", "10.1.1.1:80", map[string]string{"X-Real-IP": "1.2.3.4"}, "1.2.3.4"},
		{"trusted forwarded for", "10.1.1.1:80", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.1.1.1"}, "5.6.7.8"},
		{"trusted bad header", "10.1.1.1:80", map[string]string{"X-Forwarded-For": "garbage"}, "10.1.1.1"},
		{"no port", "203.0.113.9", nil, "203.0.113.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, clientIP(req))
		})
	}
}

// --- BodySizeLimit ---

func TestBodySizeLimit(t *testing.T) {
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "too large", http.StatusRequestEntityTooLarge)
			return
		}
		_, _ = w.Write(body)
	})
	h := BodySizeLimit(10)(echo)

	rec := serve(h, httptest.NewRequest("POST", "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "small", rec.Body.String())

	req := httptest.NewRequest("POST", "/", strings.NewReader(""))
	req.ContentLength = 1000
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(h, req).Code)

	req = httptest.NewRequest("POST", "/", strings.NewReader(strings.Repeat("x", 100)))
	req.ContentLength = -1
	assert.Equal(t, http.StatusRequestEntityTooLarge, serve(h, req).Code)
}

// --- CORS ---

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://viewer.example"})(ok)

	req := httptest.NewRequest("GET", "/graph", nil)
	req.Header.Set("Origin", "https://viewer.example")
	rec := serve(h, req)
	assert.Equal(t, "https://viewer.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/graph", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS([]string{"*"})(ok)

	req := httptest.NewRequest("OPTIONS", "/settings", nil)
	req.Header.Set("Origin", "https://any.example")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	rec := serve(h, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PUT")

	h = CORS(nil)(ok)
	assert.Equal(t, http.StatusForbidden, serve(h, req).Code)
}

// --- SecurityHeaders ---

func TestSecurityHeaders(t *testing.T) {
	rec := serve(SecurityHeaders()(ok), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
