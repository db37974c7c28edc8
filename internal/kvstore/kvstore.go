// Package kvstore holds the key-value backends behind onboarding state.
//
// Select probes candidate backends in order and keeps the first that answers,
// falling back to an in-process map.
package kvstore

import (
	"context"
	"log/slog"
	"time"
)

// DefaultProbeTimeout bounds each capability probe in Select.
const DefaultProbeTimeout = 3 * time.Second

// Backend is a string key-value store.
type Backend interface {
	// Get returns the value under key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Name() string
}

// Select returns the first candidate whose Ping succeeds. Nil candidates are skipped.
// When none answers, an in-memory backend is returned.
func Select(ctx context.Context, candidates ...Backend) Backend {
	for _, b := range candidates {
		if b == nil {
			continue
		}
		probeCtx, cancel := context.WithTimeout(ctx, DefaultProbeTimeout)
		err := b.Ping(probeCtx)
		cancel()
		if err != nil {
			slog.Warn("kvstore.Select: backend unavailable", "backend", b.Name(), "error", err)
			continue
		}
		slog.Info("kvstore.Select: using backend", "backend", b.Name())
		return b
	}
	slog.Info("kvstore.Select: no persistent backend available, using memory")
	return NewMemory()
}
