// Package cli implements the flarefunnel command line: the API server plus offline
// tools for checking content selection, summaries and experiment results.
package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	stateDirFlag string
	dbDSNFlag    string
	logLevelFlag string

	// cfg is resolved from the environment and global flags before every command runs.
	cfg Config
)

var rootCmd = &cobra.Command{
	Use:   "flarefunnel",
	Short: "FlareFunnel - conversion funnel backend for a chronic-symptom tracking app",
	Long: `FlareFunnel serves the landing-page funnel API: personalized testimonials,
watch lists, LLM conversion summaries with template fallback, A/B copy
experiments and mobile onboarding state.

Configuration is read from the environment (and a .env file when present);
global flags override it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = LoadConfig()
		applyGlobalFlags(&cfg)
		initializeLogger(cfg.LogLevel)
		slog.Debug("cli: configuration resolved",
			"state_dir", cfg.StateDir,
			"dsn_type", cfg.DSNType(),
			"openai_key_set", cfg.OpenAIKey != "",
			"redis_addr", cfg.RedisAddr,
			"llm_timeout", cfg.LLMTimeout)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&stateDirFlag, "state-dir", "", "state directory for the SQLite database and lock file (overrides $FLAREFUNNEL_STATE_DIR)")
	rootCmd.PersistentFlags().StringVar(&dbDSNFlag, "db-dsn", "", "database DSN, PostgreSQL URL or SQLite path (overrides $DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn or error (overrides $LOG_LEVEL)")
}

func applyGlobalFlags(c *Config) {
	if stateDirFlag != "" {
		// the default SQLite file follows the state directory
		if c.DatabaseURL == c.defaultDSN() {
			c.DatabaseURL = ""
		}
		c.StateDir = stateDirFlag
		if c.DatabaseURL == "" {
			c.DatabaseURL = c.defaultDSN()
		}
	}
	if dbDSNFlag != "" {
		c.DatabaseURL = dbDSNFlag
	}
	if logLevelFlag != "" {
		c.LogLevel = logLevelFlag
	}
}

func initializeLogger(level string) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(level)}))
	slog.SetDefault(logger)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
