// Package api serves the layout over HTTP: JSON snapshots, layout commands,
// a websocket frame stream and GraphQL.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dd0wney/cluso-socialgraph/pkg/api/middleware"
	"github.com/dd0wney/cluso-socialgraph/pkg/auth"
	"github.com/dd0wney/cluso-socialgraph/pkg/graphql"
	"github.com/dd0wney/cluso-socialgraph/pkg/health"
	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
	"github.com/dd0wney/cluso-socialgraph/pkg/metrics"
	"github.com/dd0wney/cluso-socialgraph/pkg/pubsub"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

// DefaultCommandTimeout bounds how long a request waits for the engine.
const DefaultCommandTimeout = 5 * time.Second

// Engine is the layout engine as used by the handlers.
type Engine interface {
	graphql.Backend
	Latest() visualization.Frame
	Refresh(ctx context.Context, nodes []visualization.NodeInput, edges []visualization.EdgeInput) error
}

// Subscriber hands out frame subscriptions.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (*pubsub.Subscription, error)
}

// Options configures a Server. Engine is required. With Auth set, the
// routes that change the layout need an editor credential.
type Options struct {
	Engine         Engine
	Auth           *auth.Authenticator
	Frames         Subscriber
	Health         *health.Checker
	Metrics        *metrics.Registry
	Logger         logging.Logger
	RateLimiter    *middleware.RateLimiter
	ClientIP       func(*http.Request) string
	MaxBodyBytes   int64
	CORSOrigins    []string
	CommandTimeout time.Duration
	Title          string
}

// Server routes HTTP requests to the engine.
type Server struct {
	engine         Engine
	auth           *auth.Authenticator
	frames         Subscriber
	health         *health.Checker
	metrics        *metrics.Registry
	stream         streamRecorder
	logger         logging.Logger
	graphql        *graphql.Handler
	upgrader       websocket.Upgrader
	commandTimeout time.Duration
	title          string
	handler        http.Handler
}

// NewServer builds the routes and middleware chain.
func NewServer(opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	if opts.Health == nil {
		opts.Health = health.NewChecker()
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.ClientIP == nil {
		opts.ClientIP = middleware.ClientIP(nil)
	}
	if opts.Title == "" {
		opts.Title = "Social graph"
	}

	schema, err := graphql.NewSchema(opts.Engine)
	if err != nil {
		return nil, err
	}

	s := &Server{
		engine:         opts.Engine,
		auth:           opts.Auth,
		frames:         opts.Frames,
		health:         opts.Health,
		metrics:        opts.Metrics,
		stream:         nopStream{},
		logger:         opts.Logger.With(logging.Component("api")),
		graphql:        graphql.NewHandler(schema, graphql.DefaultMaxDepth, opts.Logger),
		commandTimeout: opts.CommandTimeout,
		title:          opts.Title,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     originChecker(opts.CORSOrigins),
		},
	}
	if opts.Metrics != nil {
		s.stream = opts.Metrics
	}
	if opts.Auth != nil {
		s.graphql.SetMutationGuard(func(r *http.Request) error {
			_, err := opts.Auth.Authorize(r, auth.RoleEditor)
			return err
		})
	}

	mws := []middleware.Middleware{
		middleware.RequestID(),
		middleware.Recovery(opts.Logger),
		middleware.Logging(opts.Logger),
	}
	if opts.Metrics != nil {
		mws = append(mws, middleware.Metrics(opts.Metrics))
	}
	mws = append(mws,
		middleware.SecurityHeaders(),
		middleware.CORS(opts.CORSOrigins),
	)
	if opts.RateLimiter != nil {
		var recorder middleware.LimitRecorder
		if opts.Metrics != nil {
			recorder = opts.Metrics
		}
		mws = append(mws, middleware.RateLimit(opts.RateLimiter, opts.ClientIP, recorder))
	}
	mws = append(mws, middleware.BodySizeLimit(opts.MaxBodyBytes))

	s.handler = middleware.Chain(s.routes(), mws...)
	return s, nil
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /health", s.health.Handler(health.Overview))
	mux.Handle("GET /health/live", s.health.Handler(health.Liveness))
	mux.Handle("GET /health/ready", s.health.Handler(health.Readiness))
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	mux.HandleFunc("GET /graph", s.handleGetGraph)
	mux.Handle("POST /graph", s.editor(s.handlePostGraph))
	mux.HandleFunc("GET /graph.html", s.handleRenderGraph)
	mux.Handle("POST /reset", s.editor(s.handleReset))
	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.Handle("PUT /settings", s.editor(s.handlePutSettings))
	mux.Handle("POST /nodes/{id}/pin", s.editor(s.handlePin))
	mux.Handle("DELETE /nodes/{id}/pin", s.editor(s.handleRelease))
	mux.Handle("POST /graphql", s.graphql)
	if s.frames != nil {
		mux.HandleFunc("GET /ws", s.handleStream)
	}
	return mux
}

// editor guards h when authentication is configured.
func (s *Server) editor(h http.HandlerFunc) http.Handler {
	if s.auth == nil {
		return h
	}
	return s.auth.Require(auth.RoleEditor)(h)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// command derives the context for one engine command.
func (s *Server) command(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.commandTimeout)
}
