package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/msgboard/msgboard/engine/infra/monitoring"
	"github.com/msgboard/msgboard/engine/infra/server/router"
	"github.com/msgboard/msgboard/engine/infra/store"
	"github.com/msgboard/msgboard/pkg/config"
	"github.com/msgboard/msgboard/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	statusNotReady            = "not_ready"
	statusReady               = "ready"
	driverNone                = "none"
	monitoringInitTimeout     = 500 * time.Millisecond
	monitoringShutdownTimeout = 5 * time.Second
	dbShutdownTimeout         = 30 * time.Second
	redisPingTimeout          = 2 * time.Second
	defaultShutdownTimeout    = 5 * time.Second
	httpReadTimeout           = 15 * time.Second
	httpWriteTimeout          = 15 * time.Second
	httpIdleTimeout           = 60 * time.Second
	hostAny                   = "0.0.0.0"
	hostLoopback              = "127.0.0.1"
)

type Server struct {
	serverConfig         *config.ServerConfig
	router               *gin.Engine
	monitoring           *monitoring.Service
	redisClient          *redis.Client
	cluster              *store.Cluster
	ctx                  context.Context
	cancel               context.CancelFunc
	httpServer           *http.Server
	shutdownOnce         sync.Once
	storeDriverLabel     string
	rateLimitDriverLabel string
}

func NewServer(ctx context.Context) (*Server, error) {
	serverCtx, cancel := context.WithCancel(ctx)
	cfg := config.FromContext(serverCtx)
	if cfg == nil {
		cancel()
		return nil, fmt.Errorf("configuration missing from context; attach a manager with config.ContextWithManager")
	}
	return &Server{
		serverConfig:         &cfg.Server,
		ctx:                  serverCtx,
		cancel:               cancel,
		storeDriverLabel:     driverNone,
		rateLimitDriverLabel: driverNone,
	}, nil
}

// Run wires every dependency, serves HTTP and blocks until SIGINT, SIGTERM
// or cancellation of the server context.
func (s *Server) Run() error {
	state, cleanups, err := s.setupDependencies()
	defer s.cleanup(cleanups)
	if err != nil {
		return err
	}
	s.buildRouter(state)
	return s.startAndRunServer()
}

// Handler returns the HTTP handler built by Run.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Shutdown stops the server started by Run.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(s.cancel)
}

func (s *Server) address() string {
	return net.JoinHostPort(s.serverConfig.Host, strconv.Itoa(s.serverConfig.Port))
}

func (s *Server) createHTTPServer() *http.Server {
	readTimeout := httpReadTimeout
	writeTimeout := httpWriteTimeout
	if s.serverConfig.Timeout > 0 {
		readTimeout = s.serverConfig.Timeout
		writeTimeout = s.serverConfig.Timeout
	}
	return &http.Server{
		Addr:              s.address(),
		Handler:           s.router,
		ReadHeaderTimeout: readTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       httpIdleTimeout,
	}
}

func (s *Server) startAndRunServer() error {
	log := logger.FromContext(s.ctx)
	s.httpServer = s.createHTTPServer()
	errCh := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logStartupBanner()
	signalCtx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("%w: %w", router.ErrBindError, err)
		}
		return nil
	case <-signalCtx.Done():
		log.Debug("Received shutdown signal, initiating graceful shutdown")
	}
	return s.gracefulShutdown()
}

func (s *Server) gracefulShutdown() error {
	log := logger.FromContext(s.ctx)
	timeout := s.serverConfig.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), timeout)
	defer cancel()
	s.Shutdown()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server shutdown completed successfully")
	return nil
}
