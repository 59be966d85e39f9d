package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/lib/store/lstore"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// Option configures the server
type Option func(*rpcServer)

// WithStore replaces the default in-memory store
func WithStore(s store.IStore) Option {
	return func(srv *rpcServer) {
		srv.store = s
	}
}

// NewRPCServer creates a new RPC server
// It takes a config and a transport as parameters. Unless WithStore is given, all
// connections share one local maple store.
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(config common.ServerConfig, transport transport.IRPCServerTransport, opts ...Option) IRPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	s := &rpcServer{
		config:    config,
		transport: transport,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = lstore.NewLocalStore(func() db.KVDB { return maple.NewMapleDB(nil) })
	}

	s.metrics = newServerMetrics(s.store, transport.Connections)
	s.dispatcher = NewDispatcher(s.store)
	s.dispatcher.metrics = s.metrics

	Logger.Infof("Created RPC Server")
	Logger.Infof(config.String())

	return s
}

type rpcServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	store      store.IStore
	dispatcher *Dispatcher
	metrics    *serverMetrics

	mu            sync.Mutex
	metricsServer *http.Server
	closeOnce     sync.Once
}

// Serve starts the RPC server
// This function starts the metrics endpoint (if configured) and the transport layer
func (s *rpcServer) Serve() error {
	s.transport.RegisterHandler(s.dispatcher.Step)

	if s.config.MetricsEndpoint != "" {
		s.serveMetrics()
	}

	// close the server on SIGINT / SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case sig := <-sigs:
			Logger.Infof("Received %s, shutting down", sig)
			if err := s.Close(); err != nil {
				Logger.Errorf("Failed to close server: %v", err)
			}
		case <-done:
		}
	}()

	Logger.Infof("rKV setup completed successfully")
	return s.transport.Listen(s.config)
}

func (s *rpcServer) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		metricsServer := s.metricsServer
		s.mu.Unlock()

		if metricsServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if mErr := metricsServer.Shutdown(ctx); mErr != nil {
				Logger.Warningf("Failed to stop metrics endpoint: %v", mErr)
			}
		}

		err = s.transport.Close()
		Logger.Infof("RPC Server closed")
	})
	return err
}

func (s *rpcServer) Store() store.IStore {
	return s.store
}

// serveMetrics starts the http metrics endpoint in the background
func (s *rpcServer) serveMetrics() {
	srv := &http.Server{
		Addr:              s.config.MetricsEndpoint,
		Handler:           s.metrics.handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.mu.Lock()
	s.metricsServer = srv
	s.mu.Unlock()

	go func() {
		Logger.Infof("Serving metrics on http://%s/metrics", s.config.MetricsEndpoint)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Errorf("Metrics endpoint failed: %v", err)
		}
	}()
}
