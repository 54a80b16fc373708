package daemon

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ErrAlreadyRunning is returned when another daemon instance holds the
// well-known endpoint. Startup must treat it as fatal.
var ErrAlreadyRunning = errors.New("another livespiffd instance is already running")

// Server binds the RPC dispatcher and the state stream to the well-known
// endpoint.
type Server struct {
	listen  string
	handler *Handler
	stream  *StreamHandler
}

// NewServer creates a server for the listen address, either
// "unix:///path/to.sock" or "tcp://host:port".
func NewServer(listen string, handler *Handler, stream *StreamHandler) *Server {
	return &Server{
		listen:  listen,
		handler: handler,
		stream:  stream,
	}
}

// Run claims the endpoint and serves until ctx is cancelled. A claim held by
// a live daemon yields ErrAlreadyRunning.
func (s *Server) Run(ctx context.Context) error {
	ln, err := s.claimListener()
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	s.handler.RegisterRoutes(mux)
	s.stream.RegisterRoutes(mux)
	setupHealthCheck(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet, http.MethodPost},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	srv := &http.Server{
		Handler: h2c.NewHandler(c.Handler(accessLog(mux)), &http2.Server{}),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	log.Info().Str("endpoint", s.listen).Msg("livespiffd service online")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
		<-errCh
		s.cleanupSocket()
		log.Info().Msg("livespiffd stopped")
		return nil
	case err := <-errCh:
		return fmt.Errorf("serve failed: %w", err)
	}
}

// claimListener binds the well-known endpoint. For unix sockets a leftover
// socket file is probed first: if a live daemon answers, the claim fails; a
// dead file is swept and the bind retried.
func (s *Server) claimListener() (net.Listener, error) {
	network, addr, err := splitListenAddr(s.listen)
	if err != nil {
		return nil, err
	}

	if network == "unix" {
		if err := os.MkdirAll(filepath.Dir(addr), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create socket directory: %w", err)
		}
		if _, statErr := os.Stat(addr); statErr == nil {
			conn, dialErr := net.DialTimeout("unix", addr, time.Second)
			if dialErr == nil {
				conn.Close()
				return nil, fmt.Errorf("%w at %s", ErrAlreadyRunning, addr)
			}
			log.Warn().Str("socket", addr).Msg("removing stale socket file")
			if err := os.Remove(addr); err != nil {
				return nil, fmt.Errorf("failed to remove stale socket: %w", err)
			}
		}
	}

	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to claim %s: %w", s.listen, err)
	}
	return ln, nil
}

func (s *Server) cleanupSocket() {
	network, addr, err := splitListenAddr(s.listen)
	if err == nil && network == "unix" {
		os.Remove(addr)
	}
}

func splitListenAddr(listen string) (network, addr string, err error) {
	switch {
	case strings.HasPrefix(listen, "unix://"):
		return "unix", strings.TrimPrefix(listen, "unix://"), nil
	case strings.HasPrefix(listen, "tcp://"):
		return "tcp", strings.TrimPrefix(listen, "tcp://"), nil
	default:
		return "", "", fmt.Errorf("unsupported listen address %q (want unix:// or tcp://)", listen)
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}

// accessLog tags each request with a short ID and logs it at debug level.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.New().String()[:8]
		log.Debug().
			Str("request_id", reqID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request received")
		next.ServeHTTP(w, r)
	})
}
