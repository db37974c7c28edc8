// Package funnel tracks landing-page visitors through the signup modal and builds
// the per-session context the summary generator personalizes from.
package funnel

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// Reader is the read side of the store the assembler needs.
type Reader interface {
	GetModalSession(ctx context.Context, id string) (*models.ModalSession, error)
	GetModalResponses(ctx context.Context, sessionID string) ([]models.ModalResponse, error)
	GetCampaignCopy(ctx context.Context, kind models.CampaignKind, slug string) (*models.CampaignCopy, error)
	GetVisit(ctx context.Context, id string) (*models.Visit, error)
}

// Assembler builds UserConversionContext values. It never fails: every missing
// or unreadable piece is replaced with a default and recorded in Defaulted.
type Assembler struct {
	reader Reader
}

// NewAssembler creates an Assembler over reader. A nil reader yields all defaults.
func NewAssembler(reader Reader) *Assembler {
	return &Assembler{reader: reader}
}

// Assemble gathers the session, its answers, campaign copy and UTM for sessionID.
// Session and answers are fetched concurrently, then ad, landing, persona and UTM.
func (a *Assembler) Assemble(ctx context.Context, sessionID string) models.UserConversionContext {
	var (
		mu        sync.Mutex
		defaulted []models.ContextPart
	)
	markDefault := func(p models.ContextPart) {
		mu.Lock()
		defaulted = append(defaulted, p)
		mu.Unlock()
	}

	var (
		session   *models.ModalSession
		responses []models.ModalResponse
	)
	var g errgroup.Group
	g.Go(func() error {
		session = a.fetchSession(ctx, sessionID)
		return nil
	})
	g.Go(func() error {
		responses = a.fetchResponses(ctx, sessionID)
		return nil
	})
	_ = g.Wait()

	if session == nil {
		markDefault(models.PartSession)
		s := DefaultSession(sessionID)
		session = &s
	}
	product := strings.TrimSpace(session.ProductSlug)
	if product == "" {
		product = DefaultProductSlug
	}
	persona := strings.TrimSpace(session.PersonaSlug)
	if persona == "" {
		persona = DefaultPersonaSlug
	}
	device := session.DeviceType
	if device == "" {
		device = DefaultDeviceType
	}

	complete, filled := completeResponses(sessionID, responses)
	if filled {
		markDefault(models.PartResponses)
	}

	uc := models.UserConversionContext{
		SessionID:   sessionID,
		ProductSlug: product,
		PersonaSlug: persona,
		DeviceType:  device,
		Responses:   complete,
	}

	var g2 errgroup.Group
	g2.Go(func() error {
		c, ok := a.fetchCopy(ctx, models.CampaignKindAd, session.AdSlug, product)
		if !ok {
			markDefault(models.PartAd)
		}
		uc.Ad = c
		return nil
	})
	g2.Go(func() error {
		c, ok := a.fetchCopy(ctx, models.CampaignKindLanding, session.LandingSlug, product)
		if !ok {
			markDefault(models.PartLanding)
		}
		uc.Landing = c
		return nil
	})
	g2.Go(func() error {
		c, ok := a.fetchCopy(ctx, models.CampaignKindPersona, persona, product)
		if !ok {
			markDefault(models.PartPersona)
		}
		uc.Persona = c
		return nil
	})
	g2.Go(func() error {
		utm, ok := a.fetchUTM(ctx, session.VisitID)
		if !ok {
			markDefault(models.PartUTM)
		}
		uc.UTM = utm
		return nil
	})
	_ = g2.Wait()

	uc.Defaulted = sortParts(defaulted)
	if len(uc.Defaulted) > 0 {
		slog.Debug("Assembler.Assemble: defaults substituted", "session", sessionID, "parts", uc.Defaulted)
	}
	return uc
}

func (a *Assembler) fetchSession(ctx context.Context, id string) *models.ModalSession {
	if a.reader == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	s, err := a.reader.GetModalSession(ctx, id)
	if err != nil {
		slog.Warn("Assembler.Assemble: session fetch failed, using default", "error", err, "session", id)
		return nil
	}
	if s == nil {
		slog.Warn("Assembler.Assemble: session not found, using default", "session", id)
	}
	return s
}

func (a *Assembler) fetchResponses(ctx context.Context, id string) []models.ModalResponse {
	if a.reader == nil || strings.TrimSpace(id) == "" {
		return nil
	}
	rs, err := a.reader.GetModalResponses(ctx, id)
	if err != nil {
		slog.Warn("Assembler.Assemble: responses fetch failed, using placeholders", "error", err, "session", id)
		return nil
	}
	return rs
}

func (a *Assembler) fetchCopy(ctx context.Context, kind models.CampaignKind, slug, product string) (models.CampaignCopy, bool) {
	slug = strings.TrimSpace(slug)
	if a.reader == nil || slug == "" {
		return DefaultCopy(kind, product), false
	}
	c, err := a.reader.GetCampaignCopy(ctx, kind, slug)
	if err != nil {
		slog.Warn("Assembler.Assemble: copy fetch failed, using default", "error", err, "kind", kind, "slug", slug)
		return DefaultCopy(kind, product), false
	}
	if c == nil {
		slog.Warn("Assembler.Assemble: copy not found, using default", "kind", kind, "slug", slug)
		return DefaultCopy(kind, product), false
	}
	return *c, true
}

func (a *Assembler) fetchUTM(ctx context.Context, visitID string) (models.UTMParams, bool) {
	if a.reader == nil || strings.TrimSpace(visitID) == "" {
		return models.UTMParams{}, false
	}
	v, err := a.reader.GetVisit(ctx, visitID)
	if err != nil {
		slog.Warn("Assembler.Assemble: visit fetch failed, using empty UTM", "error", err, "visit", visitID)
		return models.UTMParams{}, false
	}
	if v == nil {
		return models.UTMParams{}, false
	}
	return v.UTM, true
}

// completeResponses returns exactly one answer per slot in slot order, filling gaps with
// placeholders. The bool reports whether any slot was filled.
func completeResponses(sessionID string, rs []models.ModalResponse) ([]models.ModalResponse, bool) {
	var bySlot [models.ModalQuestionCount]*models.ModalResponse
	for i := range rs {
		r := rs[i]
		if r.Slot < 1 || r.Slot > models.ModalQuestionCount || strings.TrimSpace(r.AnswerValue) == "" {
			continue
		}
		bySlot[r.Slot-1] = &r
	}
	out := make([]models.ModalResponse, models.ModalQuestionCount)
	filled := false
	for i, r := range bySlot {
		if r == nil {
			filled = true
			p := PlaceholderResponse(i + 1)
			p.SessionID = sessionID
			out[i] = p
			continue
		}
		out[i] = *r
	}
	return out, filled
}

var partOrder = []models.ContextPart{
	models.PartSession, models.PartResponses, models.PartAd, models.PartLanding, models.PartPersona, models.PartUTM,
}

// sortParts orders parts canonically so results do not depend on goroutine scheduling.
func sortParts(parts []models.ContextPart) []models.ContextPart {
	if len(parts) == 0 {
		return nil
	}
	seen := make(map[models.ContextPart]bool, len(parts))
	for _, p := range parts {
		seen[p] = true
	}
	out := make([]models.ContextPart, 0, len(parts))
	for _, p := range partOrder {
		if seen[p] {
			out = append(out, p)
		}
	}
	return out
}
