package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/wonny/bankrank/backend/pkg/config"
	"github.com/wonny/bankrank/backend/pkg/logger"
)

// DefaultShutdownTimeout bounds how long in-flight requests may drain
const DefaultShutdownTimeout = 30 * time.Second

// Server serves the ranking API until its context ends
// ⭐ SSOT: API 서버 수명주기는 이 파일에서만
type Server struct {
	http            *http.Server
	addr            string
	env             string
	shutdownTimeout time.Duration
	logger          *logger.Logger
}

// New builds a server for router listening on PORT
func New(cfg *config.Config, log *logger.Logger, router http.Handler) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{
		http: &http.Server{
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		addr:            ":" + cfg.Port,
		env:             cfg.Env,
		shutdownTimeout: DefaultShutdownTimeout,
		logger:          log,
	}
}

// Listen binds the configured port
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return ln, nil
}

// Run serves on ln. When ctx is cancelled it stops accepting connections and
// waits up to the shutdown timeout for in-flight requests.
func (s *Server) Run(ctx context.Context, ln net.Listener) error {
	log := s.logger.WithFields(map[string]interface{}{
		"addr": ln.Addr().String(),
		"env":  s.env,
	})
	log.Info("Starting API server")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	log.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	log.Info("API server stopped")
	return nil
}
