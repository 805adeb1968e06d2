// Package server runs the HTTP API with graceful shutdown and SIGHUP
// configuration reloads.
package server

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/dd0wney/cluso-socialgraph/pkg/logging"
)

// DefaultShutdownTimeout bounds how long in-flight requests may drain.
const DefaultShutdownTimeout = 30 * time.Second

// ConfigReloadFunc is a function that reloads configuration
type ConfigReloadFunc func() error

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server          *http.Server
	tlsConfig       *tls.Config
	logger          logging.Logger
	shutdownTimeout time.Duration

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	ready        chan struct{}
	addr         net.Addr

	configReloadFn ConfigReloadFunc
	configMu       sync.RWMutex
}

// NewGracefulServer creates a new graceful HTTP server. Write timeouts are
// left to handlers so websocket streams are not cut off.
func NewGracefulServer(addr string, handler http.Handler, logger logging.Logger) *GracefulServer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &GracefulServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:          logger.With(logging.Component("http")),
		shutdownTimeout: DefaultShutdownTimeout,
		shutdownCh:      make(chan struct{}),
		ready:           make(chan struct{}),
	}
}

// SetShutdownTimeout changes how long Shutdown waits for requests to drain.
func (gs *GracefulServer) SetShutdownTimeout(d time.Duration) {
	gs.shutdownTimeout = d
}

// SetTLSConfig makes Run serve HTTPS. nil keeps plain HTTP.
func (gs *GracefulServer) SetTLSConfig(cfg *tls.Config) {
	gs.tlsConfig = cfg
}

// Run serves until ctx is cancelled, then shuts down gracefully. SIGHUP
// triggers ReloadConfig while running.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", gs.server.Addr)
	}
	gs.addr = ln.Addr()
	scheme := "http"
	if gs.tlsConfig != nil {
		ln = tls.NewListener(ln, gs.tlsConfig)
		scheme = "https"
	}
	close(gs.ready)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	serveErr := make(chan error, 1)
	go func() {
		gs.logger.Info("starting HTTP server",
			logging.String("addr", gs.addr.String()),
			logging.String("scheme", scheme),
		)
		if err := gs.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	for {
		select {
		case <-ctx.Done():
			return gs.Shutdown(gs.shutdownTimeout)
		case err, ok := <-serveErr:
			if ok {
				return errors.Wrap(err, "serve http")
			}
			return nil
		case <-hup:
			gs.logger.Info("received SIGHUP, reloading configuration")
			_ = gs.ReloadConfig()
		}
	}
}

// Addr blocks until the server is listening and returns its address.
func (gs *GracefulServer) Addr() net.Addr {
	<-gs.ready
	return gs.addr
}

// Shutdown initiates a graceful shutdown
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))

		if shutdownErr := gs.server.Shutdown(ctx); shutdownErr != nil {
			err = errors.Wrap(shutdownErr, "shutdown http server")
			gs.logger.Error("shutdown failed", logging.Error(shutdownErr))
		} else {
			gs.logger.Info("server shutdown complete")
		}
	})
	return err
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// ShutdownChannel returns a channel that closes when shutdown is initiated
func (gs *GracefulServer) ShutdownChannel() <-chan struct{} {
	return gs.shutdownCh
}

// SetConfigReloadFunc sets the function to call when configuration reload is triggered
func (gs *GracefulServer) SetConfigReloadFunc(fn ConfigReloadFunc) {
	gs.configMu.Lock()
	defer gs.configMu.Unlock()
	gs.configReloadFn = fn
}

// ReloadConfig triggers a configuration reload
func (gs *GracefulServer) ReloadConfig() error {
	gs.configMu.RLock()
	reloadFn := gs.configReloadFn
	gs.configMu.RUnlock()

	if reloadFn == nil {
		gs.logger.Warn("configuration reload requested, but no reload function configured")
		return nil
	}

	if err := reloadFn(); err != nil {
		gs.logger.Error("configuration reload failed", logging.Error(err))
		return err
	}

	gs.logger.Info("configuration reload complete")
	return nil
}
