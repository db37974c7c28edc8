package cli

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/BTreeMap/FlareFunnel/internal/genai"
	"github.com/BTreeMap/FlareFunnel/internal/store"
	"github.com/BTreeMap/FlareFunnel/internal/util"
)

const (
	// DefaultStateDir is the default directory for FlareFunnel state data
	DefaultStateDir = "/var/lib/flarefunnel"
	// DefaultDBFileName is the default SQLite database filename
	DefaultDBFileName = "flarefunnel.db"
)

// Config holds settings read from the environment.
type Config struct {
	StateDir      string
	DatabaseURL   string
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	LLMTimeout    time.Duration
	GenAIDebug    bool
	APIAddr       string
	RedisAddr     string
	RedisPassword string
	LogLevel      string
}

// LoadConfig reads .env (if present) and the process environment. Without DATABASE_URL
// the database defaults to SQLite in the state directory.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	} else {
		slog.Debug("successfully loaded .env file")
	}

	c := Config{
		StateDir:      util.GetenvDefault("FLAREFUNNEL_STATE_DIR", DefaultStateDir),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		LLMTimeout:    util.ParseDurationEnv("LLM_TIMEOUT", genai.DefaultTimeout),
		GenAIDebug:    util.ParseBoolEnv("GENAI_DEBUG", false),
		APIAddr:       os.Getenv("API_ADDR"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		LogLevel:      util.GetenvDefault("LOG_LEVEL", "info"),
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = c.defaultDSN()
		slog.Debug("No DATABASE_URL set, defaulting to SQLite", "sqlite_path", c.DatabaseURL)
	}
	return c
}

func (c Config) defaultDSN() string {
	return filepath.Join(c.StateDir, DefaultDBFileName)
}

// DSNType reports whether the configured database is postgres or sqlite.
func (c Config) DSNType() string {
	return store.DetectDSNType(c.DatabaseURL)
}

// StoreOptions builds store options for the configured DSN.
func (c Config) StoreOptions() []store.Option {
	if c.DatabaseURL == "" {
		slog.Debug("No database DSN provided, will use in-memory store")
		return nil
	}
	if c.DSNType() == store.DSNTypePostgres {
		slog.Debug("Detected PostgreSQL DSN, configuring PostgreSQL store", "dsn_set", true)
		return []store.Option{store.WithPostgresDSN(c.DatabaseURL)}
	}
	slog.Debug("Detected SQLite DSN, configuring SQLite store", "db_path", c.DatabaseURL)
	return []store.Option{store.WithSQLiteDSN(c.DatabaseURL)}
}

// GenAIOptions builds GenAI client options. The client still refuses an empty key.
func (c Config) GenAIOptions() []genai.Option {
	opts := []genai.Option{
		genai.WithAPIKey(c.OpenAIKey),
		genai.WithTimeout(c.LLMTimeout),
	}
	if c.OpenAIModel != "" {
		opts = append(opts, genai.WithModel(c.OpenAIModel))
	}
	if c.OpenAIBaseURL != "" {
		opts = append(opts, genai.WithBaseURL(c.OpenAIBaseURL))
	}
	if c.GenAIDebug {
		opts = append(opts, genai.WithDebug(c.StateDir))
	}
	return opts
}
