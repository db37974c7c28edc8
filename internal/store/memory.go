package store

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

type eventKey struct {
	name      string
	visitorID string
	eventType models.ExperimentEventType
}

type campaignKey struct {
	kind models.CampaignKind
	slug string
}

// InMemoryStore is a Store held in process memory. It is used when no DSN is configured and in tests.
type InMemoryStore struct {
	mu            sync.RWMutex
	visits        map[string]models.Visit
	sessions      map[string]models.ModalSession
	responses     map[string]map[int]models.ModalResponse
	campaigns     map[campaignKey]models.CampaignCopy
	generations   []models.AIGeneration
	signups       []models.BetaSignup
	events        []models.MarketingEvent
	experiments   map[string]*models.Experiment
	nextExpID     int64
	expEvents     map[eventKey]int
	conversations map[string]models.ChatConversation
	messages      map[string][]models.ChatMessage
	kv            map[string]string
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		visits:        make(map[string]models.Visit),
		sessions:      make(map[string]models.ModalSession),
		responses:     make(map[string]map[int]models.ModalResponse),
		campaigns:     make(map[campaignKey]models.CampaignCopy),
		experiments:   make(map[string]*models.Experiment),
		expEvents:     make(map[eventKey]int),
		conversations: make(map[string]models.ChatConversation),
		messages:      make(map[string][]models.ChatMessage),
		kv:            make(map[string]string),
	}
}

func (s *InMemoryStore) CreateVisit(ctx context.Context, v models.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits[v.ID] = v
	return nil
}

func (s *InMemoryStore) GetVisit(ctx context.Context, id string) (*models.Visit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.visits[id]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (s *InMemoryStore) CreateModalSession(ctx context.Context, ms models.ModalSession) error {
	if ms.Status == "" {
		ms.Status = models.ModalSessionOpen
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[ms.ID] = ms
	return nil
}

func (s *InMemoryStore) GetModalSession(ctx context.Context, id string) (*models.ModalSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ms, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return &ms, nil
}

func (s *InMemoryStore) UpdateModalSessionStatus(ctx context.Context, id string, status models.ModalSessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[id]
	if !ok {
		return models.ErrNotFound
	}
	ms.Status = status
	s.sessions[id] = ms
	return nil
}

func (s *InMemoryStore) CompleteModalSession(ctx context.Context, id, email string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms, ok := s.sessions[id]
	if !ok {
		return models.ErrNotFound
	}
	ms.Status, ms.Email, ms.CompletedAt = models.ModalSessionCompleted, email, &at
	s.sessions[id] = ms
	return nil
}

func (s *InMemoryStore) SaveModalResponse(ctx context.Context, r models.ModalResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	bySlot, ok := s.responses[r.SessionID]
	if !ok {
		bySlot = make(map[int]models.ModalResponse)
		s.responses[r.SessionID] = bySlot
	}
	bySlot[r.Slot] = r
	return nil
}

func (s *InMemoryStore) GetModalResponses(ctx context.Context, sessionID string) ([]models.ModalResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ModalResponse
	for _, r := range s.responses[sessionID] {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slot < out[j].Slot })
	return out, nil
}

func (s *InMemoryStore) UpsertCampaignCopy(ctx context.Context, c models.CampaignCopy) error {
	c.PainPoints = append([]string(nil), c.PainPoints...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.campaigns[campaignKey{c.Kind, c.Slug}] = c
	return nil
}

func (s *InMemoryStore) GetCampaignCopy(ctx context.Context, kind models.CampaignKind, slug string) (*models.CampaignCopy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[campaignKey{kind, slug}]
	if !ok {
		return nil, nil
	}
	c.PainPoints = append([]string(nil), c.PainPoints...)
	return &c, nil
}

func (s *InMemoryStore) SaveAIGeneration(ctx context.Context, g models.AIGeneration) error {
	g.Result.Summary.Benefits = append([]string(nil), g.Result.Summary.Benefits...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations = append(s.generations, g)
	return nil
}

// latestGeneration returns the index of the newest generation of a session, or -1.
func (s *InMemoryStore) latestGeneration(sessionID string) int {
	idx := -1
	for i, g := range s.generations {
		if g.ModalSessionID != sessionID {
			continue
		}
		if idx < 0 || !g.CreatedAt.Before(s.generations[idx].CreatedAt) {
			idx = i
		}
	}
	return idx
}

func (s *InMemoryStore) GetLatestAIGeneration(ctx context.Context, sessionID string) (*models.AIGeneration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.latestGeneration(sessionID)
	if idx < 0 {
		return nil, nil
	}
	g := s.generations[idx]
	g.Result.Summary.Benefits = append([]string(nil), g.Result.Summary.Benefits...)
	return &g, nil
}

func (s *InMemoryStore) MarkAIGenerationConverted(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.latestGeneration(sessionID)
	if idx < 0 {
		return models.ErrGenerationNotRecorded
	}
	s.generations[idx].Converted = true
	return nil
}

func (s *InMemoryStore) MarkAIGenerationCTAClicked(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.latestGeneration(sessionID)
	if idx < 0 {
		return models.ErrGenerationNotRecorded
	}
	s.generations[idx].CTAClicked = true
	return nil
}

func (s *InMemoryStore) AddBetaSignup(ctx context.Context, b models.BetaSignup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signups = append(s.signups, b)
	return nil
}

func (s *InMemoryStore) ListBetaSignups(ctx context.Context) ([]models.BetaSignup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.BetaSignup(nil), s.signups...), nil
}

func (s *InMemoryStore) AddMarketingEvent(ctx context.Context, e models.MarketingEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

func (s *InMemoryStore) ListMarketingEvents(ctx context.Context, name string) ([]models.MarketingEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.MarketingEvent
	for _, e := range s.events {
		if name == "" || e.Name == name {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CreateExperiment(ctx context.Context, e *models.Experiment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.experiments[e.Name]; exists {
		slog.Debug("InMemoryStore CreateExperiment duplicate name", "name", e.Name)
		return models.ErrDuplicateExperiment
	}
	if e.State == "" {
		e.State = models.ExperimentRunning
	}
	s.nextExpID++
	e.ID = s.nextExpID
	stored := *e
	stored.Variants = append([]string(nil), e.Variants...)
	stored.Weights = append([]float64(nil), e.Weights...)
	s.experiments[e.Name] = &stored
	return nil
}

func (s *InMemoryStore) GetExperiment(ctx context.Context, name string) (*models.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.experiments[name]
	if !ok {
		return nil, nil
	}
	out := *e
	return &out, nil
}

func (s *InMemoryStore) ListExperiments(ctx context.Context) ([]models.Experiment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Experiment, 0, len(s.experiments))
	for _, e := range s.experiments {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *InMemoryStore) UpdateExperimentState(ctx context.Context, name string, state models.ExperimentState, winner *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.experiments[name]
	if !ok {
		return models.ErrNotFound
	}
	e.State, e.WinnerVariant, e.UpdatedAt = state, winner, time.Now().UTC()
	return nil
}

func (s *InMemoryStore) RecordExperimentEvent(ctx context.Context, name string, variant int, eventType models.ExperimentEventType, visitorID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := eventKey{name, visitorID, eventType}
	if _, seen := s.expEvents[k]; seen {
		return false, nil
	}
	s.expEvents[k] = variant
	return true, nil
}

func (s *InMemoryStore) GetVariantStats(ctx context.Context, name string) ([]models.VariantStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byVariant := make(map[int]*models.VariantStats)
	for k, variant := range s.expEvents {
		if k.name != name {
			continue
		}
		vs, ok := byVariant[variant]
		if !ok {
			vs = &models.VariantStats{Variant: variant}
			byVariant[variant] = vs
		}
		if k.eventType == models.EventView {
			vs.Views++
		} else {
			vs.Conversions++
		}
	}
	out := make([]models.VariantStats, 0, len(byVariant))
	for _, vs := range byVariant {
		out = append(out, *vs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Variant < out[j].Variant })
	return out, nil
}

func (s *InMemoryStore) CreateConversation(ctx context.Context, c models.ChatConversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[c.ID] = c
	return nil
}

func (s *InMemoryStore) GetConversation(ctx context.Context, id string) (*models.ChatConversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *InMemoryStore) AddChatMessage(ctx context.Context, m models.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[m.ConversationID]
	if !ok {
		return models.ErrNotFound
	}
	c.UpdatedAt = m.CreatedAt
	s.conversations[c.ID] = c
	s.messages[m.ConversationID] = append(s.messages[m.ConversationID], m)
	return nil
}

func (s *InMemoryStore) ListChatMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ChatMessage(nil), s.messages[conversationID]...), nil
}

func (s *InMemoryStore) GetKV(ctx context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
	return v, ok, nil
}

func (s *InMemoryStore) SetKV(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = value
	return nil
}

func (s *InMemoryStore) DeleteKV(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	return nil
}

func (s *InMemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
