// Package experiments runs A/B tests over landing-page copy.
//
// Visitors are assigned deterministically from a hash of the experiment name and
// visitor id, so the same visitor always sees the same variant without any stored
// assignment. Views and conversions are counted once per visitor.
package experiments

import (
	"context"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// Store is the persistence the experiment service needs.
type Store interface {
	CreateExperiment(ctx context.Context, e *models.Experiment) error
	GetExperiment(ctx context.Context, name string) (*models.Experiment, error)
	ListExperiments(ctx context.Context) ([]models.Experiment, error)
	UpdateExperimentState(ctx context.Context, name string, state models.ExperimentState, winner *int) error
	RecordExperimentEvent(ctx context.Context, name string, variant int, eventType models.ExperimentEventType, visitorID string) (bool, error)
	GetVariantStats(ctx context.Context, name string) ([]models.VariantStats, error)
}

// VariantResult is the outcome of one variant.
type VariantResult struct {
	Index       int     `json:"index"`
	Name        string  `json:"name"`
	Views       int     `json:"views"`
	Conversions int     `json:"conversions"`
	Rate        float64 `json:"rate"`
	CILower     float64 `json:"ci_lower"`
	CIUpper     float64 `json:"ci_upper"`
}

// Result is the analysis of an experiment.
type Result struct {
	Experiment      models.Experiment `json:"experiment"`
	Variants        []VariantResult   `json:"variants"`
	LeadingVariant  int               `json:"leading_variant"`
	ConfidenceLevel float64           `json:"confidence_level"`
	Confident       bool              `json:"confident"`
}

// Service manages experiments.
type Service struct {
	store Store
	now   func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an experiment service over st.
func NewService(st Store, opts ...Option) *Service {
	s := &Service{store: st, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a running experiment. Weights may be nil for an even split.
func (s *Service) Create(ctx context.Context, name string, variants []string, weights []float64) (*models.Experiment, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.ErrEmptyExperimentName
	}
	if len(variants) < 2 {
		return nil, models.ErrInvalidVariants
	}
	for _, v := range variants {
		if strings.TrimSpace(v) == "" {
			return nil, models.ErrInvalidVariants
		}
	}
	if weights != nil {
		if len(weights) != len(variants) {
			return nil, models.ErrInvalidWeights
		}
		for _, w := range weights {
			if w <= 0 {
				return nil, models.ErrInvalidWeights
			}
		}
	}
	now := s.now().UTC()
	e := &models.Experiment{
		Name:      name,
		Variants:  append([]string(nil), variants...),
		Weights:   append([]float64(nil), weights...),
		State:     models.ExperimentRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateExperiment(ctx, e); err != nil {
		return nil, err
	}
	slog.Info("experiments.Service.Create: experiment created", "name", name, "variants", len(variants))
	return e, nil
}

// Get returns an experiment or models.ErrNotFound.
func (s *Service) Get(ctx context.Context, name string) (*models.Experiment, error) {
	e, err := s.store.GetExperiment(ctx, name)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, models.ErrNotFound
	}
	return e, nil
}

// List returns every experiment.
func (s *Service) List(ctx context.Context) ([]models.Experiment, error) {
	return s.store.ListExperiments(ctx)
}

// Assign returns the variant index a visitor sees. Stopped experiments serve the
// winner (or the control when none was chosen).
func (s *Service) Assign(ctx context.Context, name, visitorID string) (int, error) {
	e, err := s.Get(ctx, name)
	if err != nil {
		return 0, err
	}
	if e.State != models.ExperimentRunning {
		if e.WinnerVariant != nil {
			return *e.WinnerVariant, nil
		}
		return 0, nil
	}
	return AssignVariant(e.Name, visitorID, len(e.Variants), e.Weights), nil
}

// AssignVariant picks a variant in [0, n) from an FNV-1a hash of name and visitor.
// Weights must be nil or have n positive entries.
func AssignVariant(name, visitorID string, n int, weights []float64) int {
	if n <= 1 {
		return 0
	}
	h := fnv.New64a()
	h.Write([]byte(name))
	h.Write([]byte{0})
	h.Write([]byte(visitorID))
	// top 53 bits give a uniform float in [0, 1)
	u := float64(h.Sum64()>>11) / float64(uint64(1)<<53)

	if len(weights) != n {
		return int(u * float64(n))
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	target := u * total
	var acc float64
	for i, w := range weights {
		acc += w
		if target < acc {
			return i
		}
	}
	return n - 1
}

// Record counts a view or conversion. It reports false when the visitor already has
// an event of that type.
func (s *Service) Record(ctx context.Context, name string, variant int, eventType models.ExperimentEventType, visitorID string) (bool, error) {
	if !models.IsValidExperimentEventType(eventType) {
		return false, models.ErrInvalidEventType
	}
	if strings.TrimSpace(visitorID) == "" {
		return false, models.ErrEmptyVisitorID
	}
	e, err := s.Get(ctx, name)
	if err != nil {
		return false, err
	}
	if e.State != models.ExperimentRunning {
		return false, models.ErrExperimentNotRunning
	}
	if variant < 0 || variant >= len(e.Variants) {
		return false, models.ErrVariantOutOfRange
	}
	return s.store.RecordExperimentEvent(ctx, e.Name, variant, eventType, visitorID)
}

// SetState pauses, resumes or completes an experiment. A winner is only kept on completion.
func (s *Service) SetState(ctx context.Context, name string, state models.ExperimentState, winner *int) error {
	if !models.IsValidExperimentState(state) {
		return models.ErrInvalidState
	}
	e, err := s.Get(ctx, name)
	if err != nil {
		return err
	}
	if state != models.ExperimentCompleted {
		winner = nil
	}
	if winner != nil && (*winner < 0 || *winner >= len(e.Variants)) {
		return models.ErrVariantOutOfRange
	}
	if err := s.store.UpdateExperimentState(ctx, name, state, winner); err != nil {
		return err
	}
	slog.Info("experiments.Service.SetState: state changed", "name", name, "state", state)
	return nil
}

// Results analyzes an experiment's events.
func (s *Service) Results(ctx context.Context, name string) (*Result, error) {
	e, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.GetVariantStats(ctx, name)
	if err != nil {
		return nil, err
	}
	return Analyze(*e, stats), nil
}

// Analyze computes rates, Wilson 95% intervals, the leading variant and the confidence
// that the leader beats the control (or, when the control leads, the best challenger).
func Analyze(e models.Experiment, stats []models.VariantStats) *Result {
	byVariant := make(map[int]models.VariantStats, len(stats))
	for _, st := range stats {
		byVariant[st.Variant] = st
	}

	res := &Result{Experiment: e, Variants: make([]VariantResult, len(e.Variants))}
	bestRate := 0.0
	for i, name := range e.Variants {
		st := byVariant[i]
		vr := VariantResult{Index: i, Name: name, Views: st.Views, Conversions: st.Conversions}
		if st.Views > 0 {
			vr.Rate = float64(clampSuccesses(st.Conversions, st.Views)) / float64(st.Views)
		}
		vr.CILower, vr.CIUpper = WilsonInterval(st.Conversions, st.Views, ConfidenceThreshold)
		res.Variants[i] = vr
		if vr.Rate > bestRate {
			bestRate = vr.Rate
			res.LeadingVariant = i
		}
	}

	if len(res.Variants) < 2 {
		return res
	}
	leader := res.Variants[res.LeadingVariant]
	if res.LeadingVariant != 0 {
		control := res.Variants[0]
		res.ConfidenceLevel = SignificanceTest(leader.Conversions, leader.Views, control.Conversions, control.Views)
	} else {
		challenger := res.Variants[1]
		for _, v := range res.Variants[2:] {
			if v.Rate > challenger.Rate {
				challenger = v
			}
		}
		res.ConfidenceLevel = SignificanceTest(leader.Conversions, leader.Views, challenger.Conversions, challenger.Views)
	}
	res.Confident = res.ConfidenceLevel >= ConfidenceThreshold
	return res
}
