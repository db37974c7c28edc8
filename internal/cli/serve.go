package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/FlareFunnel/internal/api"
	"github.com/BTreeMap/FlareFunnel/internal/lockfile"
	"github.com/BTreeMap/FlareFunnel/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the funnel API server",
	Long: `Start the HTTP API server. The state directory is locked for the lifetime of
the process so two servers never share one SQLite database.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "API listen address (overrides $API_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serveListenAddr()

	lock, err := lockfile.AcquireLock(cfg.StateDir, "serve "+addr)
	if err != nil {
		return err
	}
	defer lock.Release()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withStore(func(st store.Store) error {
		kv, closeKV := selectKVBackend(ctx, st)
		defer closeKV()

		srv := api.NewServer(st, newSummaryGenerator(), kv,
			api.WithAddr(addr),
			api.WithTimeouts(0, serveWriteTimeout()))

		slog.Info("cli.serve: starting", "addr", addr, "dsn_type", cfg.DSNType(), "kv_backend", kv.Name())
		fmt.Fprintf(cmd.OutOrStdout(), "FlareFunnel API listening on %s\n", addr)
		if err := srv.Run(ctx); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		slog.Info("cli.serve: stopped")
		return nil
	})
}

func serveListenAddr() string {
	switch {
	case serveAddr != "":
		return serveAddr
	case cfg.APIAddr != "":
		return cfg.APIAddr
	default:
		return api.DefaultAddr
	}
}

// serveWriteTimeout leaves room for a summary request that spends its full LLM budget.
func serveWriteTimeout() time.Duration {
	if d := 2*cfg.LLMTimeout + 5*time.Second; d > api.DefaultWriteTimeout {
		return d
	}
	return api.DefaultWriteTimeout
}
