// Command socialgraph-server runs the layout engine behind the HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-socialgraph/pkg/api"
	"github.com/dd0wney/cluso-socialgraph/pkg/api/middleware"
	"github.com/dd0wney/cluso-socialgraph/pkg/auth"
	"github.com/dd0wney/cluso-socialgraph/pkg/broadcast"
	"github.com/dd0wney/cluso-socialgraph/pkg/config"
	"github.com/dd0wney/cluso-socialgraph/pkg/health"
	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
	"github.com/dd0wney/cluso-socialgraph/pkg/metrics"
	"github.com/dd0wney/cluso-socialgraph/pkg/pubsub"
	"github.com/dd0wney/cluso-socialgraph/pkg/server"
	"github.com/dd0wney/cluso-socialgraph/pkg/source"
	tlsconfig "github.com/dd0wney/cluso-socialgraph/pkg/tls"
	"github.com/dd0wney/cluso-socialgraph/pkg/visualization"
)

const systemMetricsInterval = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to the YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides the configuration)")
	flag.Parse()

	if err := run(*configPath, *port); err != nil {
		fmt.Fprintf(os.Stderr, "socialgraph-server: %+v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, port int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if port != 0 {
		cfg.Server.Port = port
	}

	trusted, err := middleware.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return errors.Mark(err, config.ErrInvalidConfig)
	}
	tlsCfg, err := tlsconfig.ServerConfig(cfg.TLS)
	if err != nil {
		return errors.Mark(err, config.ErrInvalidConfig)
	}

	logger := logging.NewZapLogger(os.Stdout, cfg.LogLevel())
	defer func() { _ = logger.Sync() }()
	logging.SetDefaultLogger(logger)

	authenticator, err := newAuthenticator(cfg.Auth, logger)
	if err != nil {
		return errors.Mark(err, config.ErrInvalidConfig)
	}

	logger.Info("socialgraph server starting",
		logging.Int("port", cfg.Server.Port),
		logging.String("source", cfg.Source.Kind),
		logging.Uint64("viewer", cfg.Layout.Viewer),
		logging.Bool("tls", tlsCfg != nil),
		logging.Bool("auth", cfg.Auth.Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := metrics.DefaultRegistry()
	frames := pubsub.NewPubSub()
	defer frames.Shutdown()

	ctrl := visualization.NewController(cfg.Layout.Canvas,
		visualization.WithViewer(cfg.Layout.Viewer),
		visualization.WithRecorder(registry),
		visualization.WithLogger(logger))
	engine := visualization.NewEngine(ctrl,
		visualization.WithFrameRate(cfg.Layout.FrameRate),
		visualization.WithPublisher(frames),
		visualization.WithEngineLogger(logger))

	checker := health.NewChecker()
	checker.Register("layout_engine", health.EngineCheck(engine, time.Now), health.AllProbes)
	checker.Register("memory", health.MemoryCheck(memoryUsage), health.Overview)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return engine.Run(ctx) })

	src, err := source.New(cfg.Source)
	if err != nil {
		return err
	}
	if src != nil {
		poller := source.NewPoller(src, cfg.Source.PollInterval,
			func(ctx context.Context, ds *source.Dataset) error {
				return engine.Refresh(ctx, ds.Nodes, ds.Edges)
			},
			source.WithPollerLogger(logger),
			source.WithLoadRecorder(registry),
			source.WithLoadTimeout(cfg.Source.Timeout))
		checker.Register("source", health.SourceCheck(poller.LastLoad, cfg.Source.PollInterval, time.Now),
			health.Readiness|health.Overview)
		g.Go(func() error { return poller.Run(ctx) })

		switch s := src.(type) {
		case *source.FileSource:
			w := source.NewWatcher(s.Path(), poller.Trigger, logger)
			g.Go(func() error { return w.Run(ctx) })
		case *source.PostgresSource:
			defer func() { _ = s.Close() }()
			checker.Register("database", health.DatabaseCheck(s.Ping), health.Readiness|health.Overview)
		}
	}

	if cfg.Broadcast.Addr != "" {
		publisher, err := broadcast.Listen(cfg.Broadcast.Addr,
			broadcast.WithCompression(cfg.Broadcast.Compress),
			broadcast.WithLogger(logger))
		if err != nil {
			return err
		}
		defer func() { _ = publisher.Close() }()
		sub, err := frames.Subscribe(ctx, visualization.TopicFrames)
		if err != nil {
			return err
		}
		g.Go(func() error { return publisher.Run(ctx, sub) })
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RPS,
			BurstSize:         cfg.RateLimit.Burst,
		}, logger)
		g.Go(func() error { return limiter.Run(ctx) })
	}

	handler, err := api.NewServer(api.Options{
		Engine:       engine,
		Auth:         authenticator,
		Frames:       frames,
		Health:       checker,
		Metrics:      registry,
		Logger:       logger,
		RateLimiter:  limiter,
		ClientIP:     middleware.ClientIP(trusted),
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		CORSOrigins:  cfg.Server.CORSOrigins,
	})
	if err != nil {
		return err
	}

	srv := server.NewGracefulServer(fmt.Sprintf(":%d", cfg.Server.Port), handler, logger)
	srv.SetShutdownTimeout(cfg.Server.ShutdownTimeout)
	srv.SetTLSConfig(tlsCfg)

	if configPath != "" {
		applyConfig := func(next *config.Config) {
			logger.SetLevel(next.LogLevel())
			settingsCtx, cancel := context.WithTimeout(ctx, api.DefaultCommandTimeout)
			defer cancel()
			err := engine.UpdateSettings(settingsCtx, next.Layout.Canvas.Settings)
			if err != nil {
				logger.Warn("layout settings not applied", logging.Error(err))
			}
			registry.RecordConfigReload(err)
		}
		watcher := config.NewWatcher(configPath, logger, applyConfig, registry.RecordConfigReload)
		srv.SetConfigReloadFunc(watcher.Reload)
		g.Go(func() error { return watcher.Run(ctx) })
	}

	g.Go(func() error {
		ticker := time.NewTicker(systemMetricsInterval)
		defer ticker.Stop()
		for {
			registry.UpdateSystemMetrics()
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})

	g.Go(func() error { return srv.Run(ctx) })

	err = g.Wait()
	logger.Info("socialgraph server stopped")
	return err
}

// newAuthenticator returns nil when no credential is configured.
func newAuthenticator(cfg config.AuthConfig, logger logging.Logger) (*auth.Authenticator, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	var tokens, keys auth.Validator
	if cfg.JWTSecret != "" {
		m, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
		if err != nil {
			return nil, err
		}
		tokens = m
	}
	if len(cfg.APIKeys) > 0 {
		ring := make([]auth.APIKey, 0, len(cfg.APIKeys))
		for _, k := range cfg.APIKeys {
			ring = append(ring, auth.APIKey{Name: k.Name, Hash: k.Hash, Role: auth.Role(k.Role)})
		}
		kr, err := auth.NewKeyRing(ring)
		if err != nil {
			return nil, err
		}
		keys = kr
	}
	return auth.NewAuthenticator(tokens, keys, logger), nil
}

func memoryUsage() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}
