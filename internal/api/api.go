// Package api provides the HTTP server for FlareFunnel.
//
// It exposes JSON endpoints under /api for the landing-page funnel, A/B copy
// experiments, content lookups, mobile onboarding and the chat placeholder.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/BTreeMap/FlareFunnel/internal/chat"
	"github.com/BTreeMap/FlareFunnel/internal/experiments"
	"github.com/BTreeMap/FlareFunnel/internal/funnel"
	"github.com/BTreeMap/FlareFunnel/internal/kvstore"
	"github.com/BTreeMap/FlareFunnel/internal/models"
	"github.com/BTreeMap/FlareFunnel/internal/onboarding"
	"github.com/BTreeMap/FlareFunnel/internal/store"
)

const (
	// DefaultAddr is the listen address when none is configured.
	DefaultAddr = ":8080"
	// DefaultReadTimeout bounds reading a request.
	DefaultReadTimeout = 15 * time.Second
	// DefaultWriteTimeout bounds writing a response; it must exceed the LLM timeout.
	DefaultWriteTimeout = 60 * time.Second
	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 30 * time.Second
)

// Opts holds configuration for the API server.
type Opts struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Option configures the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithTimeouts sets the read and write timeouts. Zero values keep the defaults.
func WithTimeouts(read, write time.Duration) Option {
	return func(o *Opts) {
		if read > 0 {
			o.ReadTimeout = read
		}
		if write > 0 {
			o.WriteTimeout = write
		}
	}
}

// Server holds the services behind the HTTP endpoints.
type Server struct {
	st          store.Store
	funnel      *funnel.Service
	experiments *experiments.Service
	onboarding  *onboarding.Store
	chat        *chat.Service
	kvName      string
	opts        Opts
}

// NewServer wires the services over a store, a summary generator and the key-value
// backend that holds onboarding state.
func NewServer(st store.Store, gen funnel.SummaryGenerator, kv kvstore.Backend, opts ...Option) *Server {
	cfg := Opts{Addr: DefaultAddr, ReadTimeout: DefaultReadTimeout, WriteTimeout: DefaultWriteTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}
	if kv == nil {
		kv = kvstore.NewMemory()
	}
	return &Server{
		st:          st,
		funnel:      funnel.NewService(st, gen),
		experiments: experiments.NewService(st),
		onboarding:  onboarding.NewStore(kv),
		chat:        chat.NewService(st),
		kvName:      kv.Name(),
		opts:        cfg,
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	return NewRouter(s)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: listening", "addr", s.opts.Addr, "kv_backend", s.kvName)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.opts.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Server.Run: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server.Run: stopped gracefully")
	return nil
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := s.st.Ping(ctx); err != nil {
		slog.Error("Server.healthHandler: store ping failed", "error", err)
		writeJSONResponse(w, http.StatusServiceUnavailable, models.Error("Store unavailable"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(map[string]string{"kv_backend": s.kvName}))
}
