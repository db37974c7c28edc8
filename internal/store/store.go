// Package store provides storage backends for FlareFunnel.
//
// It includes an in-memory store plus SQLite and PostgreSQL stores sharing one SQL core.
// Get methods return (nil, nil) when the row does not exist.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// ErrDSNNotSet is returned by the SQL store constructors when no DSN is configured.
var ErrDSNNotSet = errors.New("database DSN not set")

// Store is the persistence contract of the funnel, onboarding and chat services.
type Store interface {
	// Landing visits and modal sessions
	CreateVisit(ctx context.Context, v models.Visit) error
	GetVisit(ctx context.Context, id string) (*models.Visit, error)
	CreateModalSession(ctx context.Context, s models.ModalSession) error
	GetModalSession(ctx context.Context, id string) (*models.ModalSession, error)
	UpdateModalSessionStatus(ctx context.Context, id string, status models.ModalSessionStatus) error
	CompleteModalSession(ctx context.Context, id, email string, at time.Time) error
	SaveModalResponse(ctx context.Context, r models.ModalResponse) error
	GetModalResponses(ctx context.Context, sessionID string) ([]models.ModalResponse, error)

	// Campaign copy
	UpsertCampaignCopy(ctx context.Context, c models.CampaignCopy) error
	GetCampaignCopy(ctx context.Context, kind models.CampaignKind, slug string) (*models.CampaignCopy, error)

	// AI generation log
	SaveAIGeneration(ctx context.Context, g models.AIGeneration) error
	GetLatestAIGeneration(ctx context.Context, sessionID string) (*models.AIGeneration, error)
	MarkAIGenerationConverted(ctx context.Context, sessionID string) error
	MarkAIGenerationCTAClicked(ctx context.Context, sessionID string) error

	// Signups and analytics
	AddBetaSignup(ctx context.Context, s models.BetaSignup) error
	ListBetaSignups(ctx context.Context) ([]models.BetaSignup, error)
	AddMarketingEvent(ctx context.Context, e models.MarketingEvent) error
	ListMarketingEvents(ctx context.Context, name string) ([]models.MarketingEvent, error)

	// Copy experiments
	CreateExperiment(ctx context.Context, e *models.Experiment) error
	GetExperiment(ctx context.Context, name string) (*models.Experiment, error)
	ListExperiments(ctx context.Context) ([]models.Experiment, error)
	UpdateExperimentState(ctx context.Context, name string, state models.ExperimentState, winner *int) error
	RecordExperimentEvent(ctx context.Context, name string, variant int, eventType models.ExperimentEventType, visitorID string) (bool, error)
	GetVariantStats(ctx context.Context, name string) ([]models.VariantStats, error)

	// Chat
	CreateConversation(ctx context.Context, c models.ChatConversation) error
	GetConversation(ctx context.Context, id string) (*models.ChatConversation, error)
	AddChatMessage(ctx context.Context, m models.ChatMessage) error
	ListChatMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error)

	// Key-value entries (onboarding state)
	GetKV(ctx context.Context, key string) (string, bool, error)
	SetKV(ctx context.Context, key, value string) error
	DeleteKV(ctx context.Context, key string) error

	Ping(ctx context.Context) error
	Close() error
}

// DSN types returned by DetectDSNType.
const (
	DSNTypePostgres = "postgres"
	DSNTypeSQLite   = "sqlite"
)

// Opts holds configuration for store construction.
type Opts struct {
	DSN string
}

// Option configures a store.
type Option func(*Opts)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithSQLiteDSN sets the SQLite database file path.
func WithSQLiteDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as postgres or sqlite.
func DetectDSNType(dsn string) string {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") || strings.Contains(lower, "host=") {
		return DSNTypePostgres
	}
	return DSNTypeSQLite
}

// Open builds the store selected by the configured DSN, or an in-memory store without one.
func Open(opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	switch {
	case cfg.DSN == "":
		slog.Info("No database DSN provided, using in-memory store")
		return NewInMemoryStore(), nil
	case DetectDSNType(cfg.DSN) == DSNTypePostgres:
		return NewPostgresStore(opts...)
	default:
		return NewSQLiteStore(opts...)
	}
}
