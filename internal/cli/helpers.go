package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/FlareFunnel/internal/genai"
	"github.com/BTreeMap/FlareFunnel/internal/kvstore"
	"github.com/BTreeMap/FlareFunnel/internal/store"
	"github.com/BTreeMap/FlareFunnel/internal/summary"
)

// withStore opens the configured database, executes the function, and handles cleanup.
func withStore(fn func(store.Store) error) error {
	st, err := store.Open(cfg.StoreOptions()...)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer st.Close()

	return fn(st)
}

// newSummaryGenerator returns an LLM-backed generator, or a template-only one when the
// GenAI client cannot be built.
func newSummaryGenerator() *summary.Generator {
	client, err := genai.NewClient(cfg.GenAIOptions()...)
	if err != nil {
		slog.Warn("cli: GenAI client unavailable, summaries will use template copy", "error", err)
		return summary.NewGenerator(nil)
	}
	return summary.NewGenerator(client)
}

// selectKVBackend probes Redis (when configured), then the main database, then memory.
// The returned close func releases the Redis client if one was created.
func selectKVBackend(ctx context.Context, st store.Store) (kvstore.Backend, func()) {
	var candidates []kvstore.Backend
	closeFn := func() {}
	if cfg.RedisAddr != "" {
		r, err := kvstore.NewRedis(kvstore.WithRedisAddr(cfg.RedisAddr), kvstore.WithRedisPassword(cfg.RedisPassword))
		if err != nil {
			slog.Warn("cli: redis client not created", "addr", cfg.RedisAddr, "error", err)
		} else {
			candidates = append(candidates, r)
			closeFn = func() {
				if err := r.Close(); err != nil {
					slog.Warn("cli: failed to close redis client", "error", err)
				}
			}
		}
	}
	if cfg.DatabaseURL != "" {
		candidates = append(candidates, kvstore.NewSQL(st, cfg.DSNType()))
	}
	return kvstore.Select(ctx, candidates...), closeFn
}
