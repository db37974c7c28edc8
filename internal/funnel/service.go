package funnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BTreeMap/FlareFunnel/internal/models"
	"github.com/BTreeMap/FlareFunnel/internal/util"
)

// Store is the persistence the conversion-tracking service needs.
type Store interface {
	Reader
	CreateVisit(ctx context.Context, v models.Visit) error
	CreateModalSession(ctx context.Context, s models.ModalSession) error
	UpdateModalSessionStatus(ctx context.Context, id string, status models.ModalSessionStatus) error
	CompleteModalSession(ctx context.Context, id, email string, at time.Time) error
	SaveModalResponse(ctx context.Context, r models.ModalResponse) error
	SaveAIGeneration(ctx context.Context, g models.AIGeneration) error
	MarkAIGenerationConverted(ctx context.Context, sessionID string) error
	MarkAIGenerationCTAClicked(ctx context.Context, sessionID string) error
	AddBetaSignup(ctx context.Context, b models.BetaSignup) error
	AddMarketingEvent(ctx context.Context, e models.MarketingEvent) error
}

// SummaryGenerator turns a conversion context into copy. Implementations never fail.
type SummaryGenerator interface {
	Generate(ctx context.Context, uc models.UserConversionContext) models.SummaryGenerationResult
}

// Opts holds configuration for the funnel service.
type Opts struct {
	Now   func() time.Time
	NewID func() string
}

// Option configures a Service.
type Option func(*Opts)

// WithClock sets the time source for created/completed timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Opts) { o.Now = now }
}

// WithIDGenerator sets the id source for server-generated ids.
func WithIDGenerator(newID func() string) Option {
	return func(o *Opts) { o.NewID = newID }
}

// Service records funnel activity and produces personalized summaries.
type Service struct {
	store     Store
	assembler *Assembler
	generator SummaryGenerator
	now       func() time.Time
	newID     func() string
}

// NewService wires the service over a store and summary generator.
func NewService(st Store, gen SummaryGenerator, opts ...Option) *Service {
	cfg := Opts{Now: time.Now, NewID: uuid.NewString}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Service{
		store:     st,
		assembler: NewAssembler(st),
		generator: gen,
		now:       cfg.Now,
		newID:     cfg.NewID,
	}
}

// Assembler exposes the context assembler for callers that only need the context.
func (s *Service) Assembler() *Assembler {
	return s.assembler
}

// RecordVisit stores a landing-page view. Missing ids and device type are filled in.
func (s *Service) RecordVisit(ctx context.Context, v models.Visit) (models.Visit, error) {
	if v.ID == "" {
		v.ID = s.newID()
	}
	if v.VisitorID == "" {
		v.VisitorID = util.GenerateVisitorID()
	}
	if v.DeviceType == "" {
		v.DeviceType = DefaultDeviceType
	}
	v.LandingSlug = strings.TrimSpace(v.LandingSlug)
	if v.LandingSlug == "" {
		v.LandingSlug = DefaultProductSlug
	}
	v.CreatedAt = s.now().UTC()
	if err := s.store.CreateVisit(ctx, v); err != nil {
		return models.Visit{}, err
	}
	slog.Debug("Service.RecordVisit: visit recorded", "visit", v.ID, "landing", v.LandingSlug, "utm_source", v.UTM.Source)
	return v, nil
}

// StartModalSession opens a modal session under the client's id. Starting an existing
// session returns it unchanged.
func (s *Service) StartModalSession(ctx context.Context, ms models.ModalSession) (models.ModalSession, error) {
	ms.ID = strings.TrimSpace(ms.ID)
	if ms.ID == "" {
		ms.ID = s.newID()
	} else if existing, err := s.store.GetModalSession(ctx, ms.ID); err != nil {
		return models.ModalSession{}, err
	} else if existing != nil {
		slog.Debug("Service.StartModalSession: session already open", "session", ms.ID)
		return *existing, nil
	}
	if ms.ProductSlug == "" {
		ms.ProductSlug = DefaultProductSlug
	}
	if ms.PersonaSlug == "" {
		ms.PersonaSlug = DefaultPersonaSlug
	}
	if ms.DeviceType == "" {
		ms.DeviceType = DefaultDeviceType
	}
	ms.Status = models.ModalSessionOpen
	ms.Email, ms.CompletedAt = "", nil
	ms.CreatedAt = s.now().UTC()
	if err := s.store.CreateModalSession(ctx, ms); err != nil {
		return models.ModalSession{}, err
	}
	slog.Info("Service.StartModalSession: session opened", "session", ms.ID, "product", ms.ProductSlug, "persona", ms.PersonaSlug)
	return ms, nil
}

// RecordResponse stores one modal answer, replacing an earlier answer in the same slot.
// The last slot moves the session to answered.
func (s *Service) RecordResponse(ctx context.Context, r models.ModalResponse) error {
	r.SessionID = strings.TrimSpace(r.SessionID)
	if r.SessionID == "" {
		return models.ErrEmptySessionID
	}
	if err := r.Validate(); err != nil {
		return err
	}
	r.CreatedAt = s.now().UTC()
	if err := s.store.SaveModalResponse(ctx, r); err != nil {
		return err
	}
	if r.Slot == models.ModalQuestionCount {
		if err := s.store.UpdateModalSessionStatus(ctx, r.SessionID, models.ModalSessionAnswered); err != nil && !errors.Is(err, models.ErrNotFound) {
			slog.Warn("Service.RecordResponse: status update failed", "error", err, "session", r.SessionID)
		}
	}
	slog.Debug("Service.RecordResponse: response recorded", "session", r.SessionID, "slot", r.Slot, "key", r.QuestionKey)
	return nil
}

// GenerateForSession assembles the session's context, generates a summary and logs it.
// A failed log write is reported but the generation is still returned.
func (s *Service) GenerateForSession(ctx context.Context, sessionID string) (models.AIGeneration, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return models.AIGeneration{}, models.ErrEmptySessionID
	}
	uc := s.assembler.Assemble(ctx, sessionID)
	gen := models.AIGeneration{
		ID:             s.newID(),
		ModalSessionID: sessionID,
		Result:         s.generator.Generate(ctx, uc),
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.SaveAIGeneration(ctx, gen); err != nil {
		slog.Error("Service.GenerateForSession: failed to log generation", "error", err, "session", sessionID)
	}
	return gen, nil
}

// CompleteAuthCallback finishes a signup: the modal session is completed, its latest
// generation marked converted and a beta signup stored with the visit's UTM.
func (s *Service) CompleteAuthCallback(ctx context.Context, cb models.AuthCallback) (models.BetaSignup, error) {
	if err := cb.Validate(); err != nil {
		return models.BetaSignup{}, err
	}
	email := strings.ToLower(strings.TrimSpace(cb.Email))
	now := s.now().UTC()
	signup := models.BetaSignup{
		ID:             s.newID(),
		Email:          email,
		ModalSessionID: strings.TrimSpace(cb.ModalSessionID),
		UTM:            cb.UTM,
		CreatedAt:      now,
	}

	if signup.ModalSessionID != "" {
		ms, err := s.store.GetModalSession(ctx, signup.ModalSessionID)
		if err != nil {
			return models.BetaSignup{}, fmt.Errorf("failed to load modal session: %w", err)
		}
		if ms == nil {
			slog.Warn("Service.CompleteAuthCallback: unknown modal session", "session", signup.ModalSessionID)
			return models.BetaSignup{}, models.ErrNotFound
		}
		signup.ProductSlug = ms.ProductSlug
		if err := s.store.CompleteModalSession(ctx, ms.ID, email, now); err != nil {
			return models.BetaSignup{}, err
		}
		if err := s.store.MarkAIGenerationConverted(ctx, ms.ID); err != nil {
			// signups without a generated summary still count
			slog.Warn("Service.CompleteAuthCallback: generation not marked converted", "error", err, "session", ms.ID)
		}
		if signup.UTM.IsEmpty() && ms.VisitID != "" {
			if v, err := s.store.GetVisit(ctx, ms.VisitID); err == nil && v != nil {
				signup.UTM = v.UTM
			}
		}
	}

	if err := s.store.AddBetaSignup(ctx, signup); err != nil {
		return models.BetaSignup{}, err
	}
	slog.Info("Service.CompleteAuthCallback: signup recorded", "session", signup.ModalSessionID, "product", signup.ProductSlug, "utm_source", signup.UTM.Source)
	return signup, nil
}

// MarkCTAClicked flags the latest generation of a session as clicked.
func (s *Service) MarkCTAClicked(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return models.ErrEmptySessionID
	}
	return s.store.MarkAIGenerationCTAClicked(ctx, sessionID)
}

// RecordEvent stores a free-form marketing event.
func (s *Service) RecordEvent(ctx context.Context, e models.MarketingEvent) (models.MarketingEvent, error) {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		return models.MarketingEvent{}, models.ErrInvalidEventType
	}
	if e.ID == "" {
		e.ID = s.newID()
	}
	e.CreatedAt = s.now().UTC()
	if err := s.store.AddMarketingEvent(ctx, e); err != nil {
		return models.MarketingEvent{}, err
	}
	return e, nil
}
