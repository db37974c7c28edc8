// Package onboarding persists each mobile user's progress through the onboarding screens.
//
// Every setter writes its field and ratchets the step forward to the setter's screen; the step
// only moves backwards on Reset.
package onboarding

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/FlareFunnel/internal/kvstore"
	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// DefaultKeyPrefix namespaces the persisted state blob of a user.
const DefaultKeyPrefix = "@flarefunnel/onboarding:"

// Opts holds configuration for the onboarding store.
type Opts struct {
	KeyPrefix string
	Now       func() time.Time
}

// Option configures a Store.
type Option func(*Opts)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(o *Opts) { o.KeyPrefix = prefix }
}

// WithClock sets the time source for completion and baseline timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Now = now }
}

// Store reads and writes OnboardingState through a key-value backend.
type Store struct {
	backend kvstore.Backend
	prefix  string
	now     func() time.Time
	mu      sync.Mutex
}

// NewStore creates a Store over backend. A nil backend gets an in-memory one.
func NewStore(backend kvstore.Backend, opts ...Option) *Store {
	cfg := Opts{KeyPrefix: DefaultKeyPrefix, Now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	if backend == nil {
		backend = kvstore.NewMemory()
	}
	return &Store{backend: backend, prefix: cfg.KeyPrefix, now: cfg.Now}
}

// Key returns the backend key of a user's state.
func (s *Store) Key(userID string) string {
	return s.prefix + userID
}

// Load returns the user's state, or the initial state when none is stored.
// An unreadable blob is logged and treated as absent.
func (s *Store) Load(ctx context.Context, userID string) (models.OnboardingState, error) {
	if strings.TrimSpace(userID) == "" {
		return models.OnboardingState{}, models.ErrEmptyUserID
	}
	raw, ok, err := s.backend.Get(ctx, s.Key(userID))
	if err != nil {
		slog.Error("onboarding.Store.Load: backend read failed", "error", err, "user", userID, "backend", s.backend.Name())
		return models.OnboardingState{}, fmt.Errorf("failed to load onboarding state: %w", err)
	}
	if !ok {
		return models.InitialOnboardingState(), nil
	}
	var state models.OnboardingState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		slog.Warn("onboarding.Store.Load: stored state unreadable, starting over", "error", err, "user", userID)
		return models.InitialOnboardingState(), nil
	}
	if state.Conditions == nil {
		state.Conditions = []string{}
	}
	return state, nil
}

// update applies fn to the stored state, ratchets the step to target and persists the result.
func (s *Store) update(ctx context.Context, userID string, target models.OnboardingStep, fn func(*models.OnboardingState)) (models.OnboardingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.Load(ctx, userID)
	if err != nil {
		return models.OnboardingState{}, err
	}
	fn(&state)
	if target > state.Step {
		state.Step = target
	}
	if err := s.save(ctx, userID, state); err != nil {
		return models.OnboardingState{}, err
	}
	slog.Debug("onboarding.Store: state updated", "user", userID, "step", state.Step)
	return state, nil
}

func (s *Store) save(ctx context.Context, userID string, state models.OnboardingState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode onboarding state: %w", err)
	}
	if err := s.backend.Set(ctx, s.Key(userID), string(data)); err != nil {
		slog.Error("onboarding.Store: backend write failed", "error", err, "user", userID, "backend", s.backend.Name())
		return fmt.Errorf("failed to save onboarding state: %w", err)
	}
	return nil
}

// SetConditions records up to three distinct conditions (screen 1).
func (s *Store) SetConditions(ctx context.Context, userID string, conditions []string) (models.OnboardingState, error) {
	cleaned := make([]string, 0, len(conditions))
	seen := make(map[string]bool, len(conditions))
	for _, c := range conditions {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cleaned = append(cleaned, c)
	}
	if len(cleaned) > models.MaxConditions {
		return models.OnboardingState{}, models.ErrTooManyConditions
	}
	return s.update(ctx, userID, models.StepConditions, func(st *models.OnboardingState) {
		st.Conditions = cleaned
	})
}

// SetPriority records the symptom area the user cares most about (screen 2).
func (s *Store) SetPriority(ctx context.Context, userID string, p models.Priority) (models.OnboardingState, error) {
	if !models.IsValidPriority(p) {
		return models.OnboardingState{}, models.ErrInvalidPriority
	}
	return s.update(ctx, userID, models.StepPriority, func(st *models.OnboardingState) {
		st.Priority = &p
	})
}

// SetImpactQuestion records the feature x outcome question (screen 3).
func (s *Store) SetImpactQuestion(ctx context.Context, userID string, q models.ImpactQuestion) (models.OnboardingState, error) {
	q.Feature, q.Outcome = strings.TrimSpace(q.Feature), strings.TrimSpace(q.Outcome)
	if q.Feature == "" || q.Outcome == "" {
		return models.OnboardingState{}, models.ErrEmptyImpactQuestion
	}
	return s.update(ctx, userID, models.StepImpact, func(st *models.OnboardingState) {
		st.ImpactQuestion = &q
	})
}

// SetIntent records what the user hopes to get out of tracking (screen 4).
func (s *Store) SetIntent(ctx context.Context, userID string, i models.Intent) (models.OnboardingState, error) {
	if !models.IsValidIntent(i) {
		return models.OnboardingState{}, models.ErrInvalidIntent
	}
	return s.update(ctx, userID, models.StepIntent, func(st *models.OnboardingState) {
		st.Intent = &i
	})
}

// SetBaseline records the first check-in (screen 5). A zero RecordedAt is stamped with the clock.
func (s *Store) SetBaseline(ctx context.Context, userID string, b models.Baseline) (models.OnboardingState, error) {
	if b.Severity < 0 || b.Severity > models.MaxSeverity {
		return models.OnboardingState{}, models.ErrInvalidSeverity
	}
	if b.RecordedAt.IsZero() {
		b.RecordedAt = s.now().UTC()
	}
	b.Drivers = append([]string(nil), b.Drivers...)
	return s.update(ctx, userID, models.StepBaseline, func(st *models.OnboardingState) {
		st.Baseline = &b
	})
}

// Complete marks onboarding finished. Completing twice keeps the first timestamp.
func (s *Store) Complete(ctx context.Context, userID string) (models.OnboardingState, error) {
	return s.update(ctx, userID, models.StepWelcome, func(st *models.OnboardingState) {
		if st.IsComplete {
			return
		}
		now := s.now().UTC()
		st.IsComplete = true
		st.CompletedAt = &now
	})
}

// Reset discards the stored state and returns the initial one.
func (s *Store) Reset(ctx context.Context, userID string) (models.OnboardingState, error) {
	if strings.TrimSpace(userID) == "" {
		return models.OnboardingState{}, models.ErrEmptyUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(ctx, s.Key(userID)); err != nil {
		slog.Error("onboarding.Store.Reset: backend delete failed", "error", err, "user", userID)
		return models.OnboardingState{}, fmt.Errorf("failed to reset onboarding state: %w", err)
	}
	slog.Info("onboarding.Store.Reset: state cleared", "user", userID)
	return models.InitialOnboardingState(), nil
}
