package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/MKhiriev/go-protocol-sync/internal/config"
	"github.com/MKhiriev/go-protocol-sync/internal/logger"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

type ControlServer struct {
	server *http.Server
	ready  chan struct{}
	addr   net.Addr
	logger *logger.Logger
}

// NewControlServer serves handler on cfg.ControlAddress.
func NewControlServer(handler http.Handler, cfg config.ClientApp, logger *logger.Logger) (*ControlServer, error) {
	if cfg.ControlAddress == "" {
		return nil, errNoControlAddress
	}

	logger.Info().Str("address", cfg.ControlAddress).Msg("creating control server...")
	return &ControlServer{
		server: &http.Server{
			Addr:              cfg.ControlAddress,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		ready:  make(chan struct{}),
		logger: logger,
	}, nil
}

// Run listens until ctx is done, then shuts the server down. It implements
// workers.Worker and may be called once.
func (s *ControlServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("control server listen: %w", err)
	}
	s.addr = ln.Addr()
	close(s.ready)

	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info().Str("address", s.addr.String()).Msg("launching control server")
		serveErr <- s.server.Serve(ln)
	}()

	select {
	case err = <-serveErr:
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err = s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("control server shutdown: %w", err)
	}
	if err = <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("control server: %w", err)
	}

	s.logger.Info().Msg("control server shutdown gracefully")
	return nil
}

// Addr blocks until Run is listening and returns the bound address.
func (s *ControlServer) Addr(ctx context.Context) (net.Addr, error) {
	select {
	case <-s.ready:
		return s.addr, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
