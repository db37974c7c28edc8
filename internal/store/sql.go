package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// sqlStore holds the queries shared by the SQLite and PostgreSQL stores.
// Queries are written with ? placeholders and rebound for PostgreSQL.
type sqlStore struct {
	db       *sql.DB
	name     string
	postgres bool
}

func (s *sqlStore) q(query string) string {
	if s.postgres {
		return rebindPostgres(query)
	}
	return query
}

func (s *sqlStore) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.q(query), args...)
}

func (s *sqlStore) queryRow(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return s.db.QueryRowContext(ctx, s.q(query), args...)
}

func (s *sqlStore) query(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.q(query), args...)
}

// Ping checks the database connection.
func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *sqlStore) Close() error {
	slog.Debug(s.name+" Close invoked")
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateVisit stores a landing-page visit.
func (s *sqlStore) CreateVisit(ctx context.Context, v models.Visit) error {
	_, err := s.exec(ctx, `INSERT INTO visits (id, visitor_id, landing_slug, variant, referrer, device_type,
		utm_source, utm_medium, utm_campaign, utm_content, utm_term, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.VisitorID, v.LandingSlug, nilIfEmpty(v.Variant), nilIfEmpty(v.Referrer), string(v.DeviceType),
		nilIfEmpty(v.UTM.Source), nilIfEmpty(v.UTM.Medium), nilIfEmpty(v.UTM.Campaign), nilIfEmpty(v.UTM.Content), nilIfEmpty(v.UTM.Term),
		v.CreatedAt.UTC())
	if err != nil {
		slog.Error(s.name+" CreateVisit failed", "error", err, "id", v.ID)
		return fmt.Errorf("failed to insert visit %s: %w", v.ID, err)
	}
	slog.Debug(s.name+" CreateVisit succeeded", "id", v.ID, "landing", v.LandingSlug)
	return nil
}

// GetVisit retrieves a visit by id.
func (s *sqlStore) GetVisit(ctx context.Context, id string) (*models.Visit, error) {
	var v models.Visit
	var variant, referrer, src, medium, campaign, content, term sql.NullString
	var device string
	err := s.queryRow(ctx, `SELECT id, visitor_id, landing_slug, variant, referrer, device_type,
		utm_source, utm_medium, utm_campaign, utm_content, utm_term, created_at
		FROM visits WHERE id = ?`, id).Scan(
		&v.ID, &v.VisitorID, &v.LandingSlug, &variant, &referrer, &device,
		&src, &medium, &campaign, &content, &term, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetVisit not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error(s.name+" GetVisit failed", "error", err, "id", id)
		return nil, err
	}
	v.Variant, v.Referrer, v.DeviceType = variant.String, referrer.String, models.DeviceType(device)
	v.UTM = models.UTMParams{Source: src.String, Medium: medium.String, Campaign: campaign.String, Content: content.String, Term: term.String}
	return &v, nil
}

// CreateModalSession stores a new modal session.
func (s *sqlStore) CreateModalSession(ctx context.Context, ms models.ModalSession) error {
	if ms.Status == "" {
		ms.Status = models.ModalSessionOpen
	}
	_, err := s.exec(ctx, `INSERT INTO modal_sessions (id, visit_id, product_slug, persona_slug, ad_slug, landing_slug,
		device_type, status, email, created_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ms.ID, nilIfEmpty(ms.VisitID), ms.ProductSlug, ms.PersonaSlug, nilIfEmpty(ms.AdSlug), nilIfEmpty(ms.LandingSlug),
		string(ms.DeviceType), string(ms.Status), nilIfEmpty(ms.Email), ms.CreatedAt.UTC(), nullTime(ms.CompletedAt))
	if err != nil {
		slog.Error(s.name+" CreateModalSession failed", "error", err, "id", ms.ID)
		return fmt.Errorf("failed to insert modal session %s: %w", ms.ID, err)
	}
	slog.Debug(s.name+" CreateModalSession succeeded", "id", ms.ID, "product", ms.ProductSlug)
	return nil
}

// GetModalSession retrieves a modal session by id.
func (s *sqlStore) GetModalSession(ctx context.Context, id string) (*models.ModalSession, error) {
	var ms models.ModalSession
	var visitID, adSlug, landingSlug, email sql.NullString
	var device, status string
	var completedAt sql.NullTime
	err := s.queryRow(ctx, `SELECT id, visit_id, product_slug, persona_slug, ad_slug, landing_slug,
		device_type, status, email, created_at, completed_at
		FROM modal_sessions WHERE id = ?`, id).Scan(
		&ms.ID, &visitID, &ms.ProductSlug, &ms.PersonaSlug, &adSlug, &landingSlug,
		&device, &status, &email, &ms.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetModalSession not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error(s.name+" GetModalSession failed", "error", err, "id", id)
		return nil, err
	}
	ms.VisitID, ms.AdSlug, ms.LandingSlug, ms.Email = visitID.String, adSlug.String, landingSlug.String, email.String
	ms.DeviceType, ms.Status = models.DeviceType(device), models.ModalSessionStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		ms.CompletedAt = &t
	}
	return &ms, nil
}

// UpdateModalSessionStatus sets the status of a modal session.
func (s *sqlStore) UpdateModalSessionStatus(ctx context.Context, id string, status models.ModalSessionStatus) error {
	res, err := s.exec(ctx, `UPDATE modal_sessions SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		slog.Error(s.name+" UpdateModalSessionStatus failed", "error", err, "id", id)
		return err
	}
	return requireAffected(res, s.name+" UpdateModalSessionStatus", id)
}

// CompleteModalSession marks a session completed with the signed-up email.
func (s *sqlStore) CompleteModalSession(ctx context.Context, id, email string, at time.Time) error {
	res, err := s.exec(ctx, `UPDATE modal_sessions SET status = ?, email = ?, completed_at = ? WHERE id = ?`,
		string(models.ModalSessionCompleted), email, at.UTC(), id)
	if err != nil {
		slog.Error(s.name+" CompleteModalSession failed", "error", err, "id", id)
		return err
	}
	return requireAffected(res, s.name+" CompleteModalSession", id)
}

// SaveModalResponse stores an answer, replacing any earlier answer in the same slot.
func (s *sqlStore) SaveModalResponse(ctx context.Context, r models.ModalResponse) error {
	widget, err := marshalJSONColumn(r.WidgetValue)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO modal_responses (session_id, slot, question_key, question_text, answer_value,
		answer_label, widget_type, widget_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, slot) DO UPDATE SET
			question_key = excluded.question_key,
			question_text = excluded.question_text,
			answer_value = excluded.answer_value,
			answer_label = excluded.answer_label,
			widget_type = excluded.widget_type,
			widget_value = excluded.widget_value,
			created_at = excluded.created_at`,
		r.SessionID, r.Slot, r.QuestionKey, r.QuestionText, r.AnswerValue,
		nilIfEmpty(r.AnswerLabel), nilIfEmpty(r.WidgetType), widget, r.CreatedAt.UTC())
	if err != nil {
		slog.Error(s.name+" SaveModalResponse failed", "error", err, "session", r.SessionID, "slot", r.Slot)
		return fmt.Errorf("failed to save response for session %s: %w", r.SessionID, err)
	}
	slog.Debug(s.name+" SaveModalResponse succeeded", "session", r.SessionID, "slot", r.Slot)
	return nil
}

// GetModalResponses returns the answers of a session in slot order.
func (s *sqlStore) GetModalResponses(ctx context.Context, sessionID string) ([]models.ModalResponse, error) {
	rows, err := s.query(ctx, `SELECT session_id, slot, question_key, question_text, answer_value,
		answer_label, widget_type, widget_value, created_at
		FROM modal_responses WHERE session_id = ? ORDER BY slot`, sessionID)
	if err != nil {
		slog.Error(s.name+" GetModalResponses query failed", "error", err, "session", sessionID)
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	var out []models.ModalResponse
	for rows.Next() {
		var r models.ModalResponse
		var label, widgetType, widgetValue sql.NullString
		if err := rows.Scan(&r.SessionID, &r.Slot, &r.QuestionKey, &r.QuestionText, &r.AnswerValue,
			&label, &widgetType, &widgetValue, &r.CreatedAt); err != nil {
			slog.Error(s.name+" GetModalResponses scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan response row: %w", err)
		}
		r.AnswerLabel, r.WidgetType = label.String, widgetType.String
		if err := unmarshalJSONColumn(widgetValue, &r.WidgetValue); err != nil {
			slog.Warn(s.name+" GetModalResponses widget value unreadable", "error", err, "session", sessionID, "slot", r.Slot)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		slog.Error(s.name+" GetModalResponses rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate response rows: %w", err)
	}
	slog.Debug(s.name+" GetModalResponses succeeded", "session", sessionID, "count", len(out))
	return out, nil
}

// UpsertCampaignCopy stores ad, landing or persona copy.
func (s *sqlStore) UpsertCampaignCopy(ctx context.Context, c models.CampaignCopy) error {
	painPoints, err := marshalJSONColumn(c.PainPoints)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO campaign_configs (kind, slug, product_slug, headline, subheadline, body, cta, persona_name, pain_points)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (kind, slug) DO UPDATE SET
			product_slug = excluded.product_slug,
			headline = excluded.headline,
			subheadline = excluded.subheadline,
			body = excluded.body,
			cta = excluded.cta,
			persona_name = excluded.persona_name,
			pain_points = excluded.pain_points`,
		string(c.Kind), c.Slug, nilIfEmpty(c.ProductSlug), nilIfEmpty(c.Headline), nilIfEmpty(c.Subheadline),
		nilIfEmpty(c.Body), nilIfEmpty(c.CTA), nilIfEmpty(c.PersonaName), painPoints)
	if err != nil {
		slog.Error(s.name+" UpsertCampaignCopy failed", "error", err, "kind", c.Kind, "slug", c.Slug)
		return fmt.Errorf("failed to upsert %s copy %s: %w", c.Kind, c.Slug, err)
	}
	slog.Debug(s.name+" UpsertCampaignCopy succeeded", "kind", c.Kind, "slug", c.Slug)
	return nil
}

// GetCampaignCopy retrieves copy by kind and slug.
func (s *sqlStore) GetCampaignCopy(ctx context.Context, kind models.CampaignKind, slug string) (*models.CampaignCopy, error) {
	c := models.CampaignCopy{Kind: kind}
	var product, headline, subheadline, body, cta, personaName, painPoints sql.NullString
	err := s.queryRow(ctx, `SELECT slug, product_slug, headline, subheadline, body, cta, persona_name, pain_points
		FROM campaign_configs WHERE kind = ? AND slug = ?`, string(kind), slug).Scan(
		&c.Slug, &product, &headline, &subheadline, &body, &cta, &personaName, &painPoints)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetCampaignCopy not found", "kind", kind, "slug", slug)
		return nil, nil
	}
	if err != nil {
		slog.Error(s.name+" GetCampaignCopy failed", "error", err, "kind", kind, "slug", slug)
		return nil, err
	}
	c.ProductSlug, c.Headline, c.Subheadline = product.String, headline.String, subheadline.String
	c.Body, c.CTA, c.PersonaName = body.String, cta.String, personaName.String
	if err := unmarshalJSONColumn(painPoints, &c.PainPoints); err != nil {
		slog.Warn(s.name+" GetCampaignCopy pain points unreadable", "error", err, "slug", slug)
	}
	return &c, nil
}

// SaveAIGeneration logs a summary generation result.
func (s *sqlStore) SaveAIGeneration(ctx context.Context, g models.AIGeneration) error {
	benefits, err := marshalJSONColumn(g.Result.Summary.Benefits)
	if err != nil {
		return err
	}
	if benefits == nil {
		benefits = "[]"
	}
	meta := g.Result.Metadata
	_, err = s.exec(ctx, `INSERT INTO ai_generations (id, modal_session_id, title, benefits, cta_text, model_used,
		prompt_template_id, tokens_used, latency_ms, converted, cta_clicked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.ModalSessionID, g.Result.Summary.Title, benefits, g.Result.Summary.CTAText, meta.ModelUsed,
		meta.PromptTemplateID, meta.TokensUsed, meta.LatencyMs, g.Converted, g.CTAClicked, g.CreatedAt.UTC())
	if err != nil {
		slog.Error(s.name+" SaveAIGeneration failed", "error", err, "session", g.ModalSessionID)
		return fmt.Errorf("failed to insert generation for session %s: %w", g.ModalSessionID, err)
	}
	slog.Debug(s.name+" SaveAIGeneration succeeded", "id", g.ID, "session", g.ModalSessionID, "model", meta.ModelUsed)
	return nil
}

// GetLatestAIGeneration returns the most recent generation of a session.
func (s *sqlStore) GetLatestAIGeneration(ctx context.Context, sessionID string) (*models.AIGeneration, error) {
	var g models.AIGeneration
	var benefits sql.NullString
	err := s.queryRow(ctx, `SELECT id, modal_session_id, title, benefits, cta_text, model_used, prompt_template_id,
		tokens_used, latency_ms, converted, cta_clicked, created_at
		FROM ai_generations WHERE modal_session_id = ? ORDER BY created_at DESC LIMIT 1`, sessionID).Scan(
		&g.ID, &g.ModalSessionID, &g.Result.Summary.Title, &benefits, &g.Result.Summary.CTAText,
		&g.Result.Metadata.ModelUsed, &g.Result.Metadata.PromptTemplateID,
		&g.Result.Metadata.TokensUsed, &g.Result.Metadata.LatencyMs, &g.Converted, &g.CTAClicked, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetLatestAIGeneration not found", "session", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error(s.name+" GetLatestAIGeneration failed", "error", err, "session", sessionID)
		return nil, err
	}
	if err := unmarshalJSONColumn(benefits, &g.Result.Summary.Benefits); err != nil {
		slog.Warn(s.name+" GetLatestAIGeneration benefits unreadable", "error", err, "session", sessionID)
	}
	return &g, nil
}

// MarkAIGenerationConverted flags the latest generation of a session as converted.
func (s *sqlStore) MarkAIGenerationConverted(ctx context.Context, sessionID string) error {
	return s.flagLatestGeneration(ctx, "converted", sessionID)
}

// MarkAIGenerationCTAClicked flags the latest generation of a session as clicked.
func (s *sqlStore) MarkAIGenerationCTAClicked(ctx context.Context, sessionID string) error {
	return s.flagLatestGeneration(ctx, "cta_clicked", sessionID)
}

func (s *sqlStore) flagLatestGeneration(ctx context.Context, column, sessionID string) error {
	// column is one of two constants above
	res, err := s.exec(ctx, `UPDATE ai_generations SET `+column+` = ?
		WHERE id = (SELECT id FROM ai_generations WHERE modal_session_id = ? ORDER BY created_at DESC LIMIT 1)`,
		true, sessionID)
	if err != nil {
		slog.Error(s.name+" flag generation failed", "error", err, "column", column, "session", sessionID)
		return err
	}
	if err := requireAffected(res, s.name+" flag generation", sessionID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrGenerationNotRecorded
		}
		return err
	}
	slog.Debug(s.name+" flag generation succeeded", "column", column, "session", sessionID)
	return nil
}

// AddBetaSignup stores a beta signup.
func (s *sqlStore) AddBetaSignup(ctx context.Context, b models.BetaSignup) error {
	_, err := s.exec(ctx, `INSERT INTO beta_signups (id, email, modal_session_id, product_slug,
		utm_source, utm_medium, utm_campaign, utm_content, utm_term, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Email, nilIfEmpty(b.ModalSessionID), nilIfEmpty(b.ProductSlug),
		nilIfEmpty(b.UTM.Source), nilIfEmpty(b.UTM.Medium), nilIfEmpty(b.UTM.Campaign), nilIfEmpty(b.UTM.Content), nilIfEmpty(b.UTM.Term),
		b.CreatedAt.UTC())
	if err != nil {
		slog.Error(s.name+" AddBetaSignup failed", "error", err, "session", b.ModalSessionID)
		return fmt.Errorf("failed to insert beta signup: %w", err)
	}
	slog.Debug(s.name+" AddBetaSignup succeeded", "id", b.ID)
	return nil
}

// ListBetaSignups returns all signups, oldest first.
func (s *sqlStore) ListBetaSignups(ctx context.Context) ([]models.BetaSignup, error) {
	rows, err := s.query(ctx, `SELECT id, email, modal_session_id, product_slug,
		utm_source, utm_medium, utm_campaign, utm_content, utm_term, created_at
		FROM beta_signups ORDER BY created_at`)
	if err != nil {
		slog.Error(s.name+" ListBetaSignups query failed", "error", err)
		return nil, fmt.Errorf("failed to query beta signups: %w", err)
	}
	defer rows.Close()

	var out []models.BetaSignup
	for rows.Next() {
		var b models.BetaSignup
		var session, product, src, medium, campaign, content, term sql.NullString
		if err := rows.Scan(&b.ID, &b.Email, &session, &product, &src, &medium, &campaign, &content, &term, &b.CreatedAt); err != nil {
			slog.Error(s.name+" ListBetaSignups scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan beta signup row: %w", err)
		}
		b.ModalSessionID, b.ProductSlug = session.String, product.String
		b.UTM = models.UTMParams{Source: src.String, Medium: medium.String, Campaign: campaign.String, Content: content.String, Term: term.String}
		out = append(out, b)
	}
	return out, rows.Err()
}

// AddMarketingEvent stores an analytics event.
func (s *sqlStore) AddMarketingEvent(ctx context.Context, e models.MarketingEvent) error {
	props, err := marshalJSONColumn(e.Properties)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, `INSERT INTO marketing_events (id, name, visitor_id, modal_session_id, properties, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, nilIfEmpty(e.VisitorID), nilIfEmpty(e.ModalSessionID), props, e.CreatedAt.UTC())
	if err != nil {
		slog.Error(s.name+" AddMarketingEvent failed", "error", err, "name", e.Name)
		return fmt.Errorf("failed to insert marketing event %s: %w", e.Name, err)
	}
	slog.Debug(s.name+" AddMarketingEvent succeeded", "name", e.Name)
	return nil
}

// ListMarketingEvents returns events with the given name, or all events when name is empty.
func (s *sqlStore) ListMarketingEvents(ctx context.Context, name string) ([]models.MarketingEvent, error) {
	query := `SELECT id, name, visitor_id, modal_session_id, properties, created_at FROM marketing_events`
	var args []interface{}
	if name != "" {
		query += ` WHERE name = ?`
		args = append(args, name)
	}
	rows, err := s.query(ctx, query+` ORDER BY created_at`, args...)
	if err != nil {
		slog.Error(s.name+" ListMarketingEvents query failed", "error", err)
		return nil, fmt.Errorf("failed to query marketing events: %w", err)
	}
	defer rows.Close()

	var out []models.MarketingEvent
	for rows.Next() {
		var e models.MarketingEvent
		var visitor, session, props sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &visitor, &session, &props, &e.CreatedAt); err != nil {
			slog.Error(s.name+" ListMarketingEvents scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan marketing event row: %w", err)
		}
		e.VisitorID, e.ModalSessionID = visitor.String, session.String
		if err := unmarshalJSONColumn(props, &e.Properties); err != nil {
			slog.Warn(s.name+" ListMarketingEvents properties unreadable", "error", err, "id", e.ID)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const experimentColumns = `id, name, landing_slug, variants, weights, conversion_goal, state, winner_variant, created_at, updated_at`

// CreateExperiment inserts an experiment and fills in its id.
func (s *sqlStore) CreateExperiment(ctx context.Context, e *models.Experiment) error {
	variants, err := marshalJSONColumn(e.Variants)
	if err != nil {
		return err
	}
	weights, err := marshalJSONColumn(e.Weights)
	if err != nil {
		return err
	}
	if e.State == "" {
		e.State = models.ExperimentRunning
	}
	if existing, err := s.GetExperiment(ctx, e.Name); err != nil {
		return err
	} else if existing != nil {
		return models.ErrDuplicateExperiment
	}
	err = s.queryRow(ctx, `INSERT INTO experiments (name, landing_slug, variants, weights, conversion_goal, state, winner_variant, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		e.Name, nilIfEmpty(e.LandingSlug), variants, weights, nilIfEmpty(e.ConversionGoal), string(e.State),
		nullInt(e.WinnerVariant), e.CreatedAt.UTC(), e.UpdatedAt.UTC()).Scan(&e.ID)
	if err != nil {
		slog.Error(s.name+" CreateExperiment failed", "error", err, "name", e.Name)
		return fmt.Errorf("failed to insert experiment %s: %w", e.Name, err)
	}
	slog.Debug(s.name+" CreateExperiment succeeded", "id", e.ID, "name", e.Name)
	return nil
}

func scanExperiment(row rowScanner) (models.Experiment, error) {
	var e models.Experiment
	var landing, variants, weights, goal sql.NullString
	var state string
	var winner sql.NullInt64
	if err := row.Scan(&e.ID, &e.Name, &landing, &variants, &weights, &goal, &state, &winner, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return e, err
	}
	e.LandingSlug, e.ConversionGoal, e.State = landing.String, goal.String, models.ExperimentState(state)
	if winner.Valid {
		w := int(winner.Int64)
		e.WinnerVariant = &w
	}
	if err := unmarshalJSONColumn(variants, &e.Variants); err != nil {
		return e, err
	}
	if err := unmarshalJSONColumn(weights, &e.Weights); err != nil {
		return e, err
	}
	return e, nil
}

// GetExperiment retrieves an experiment by name.
func (s *sqlStore) GetExperiment(ctx context.Context, name string) (*models.Experiment, error) {
	e, err := scanExperiment(s.queryRow(ctx, `SELECT `+experimentColumns+` FROM experiments WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetExperiment not found", "name", name)
		return nil, nil
	}
	if err != nil {
		slog.Error(s.name+" GetExperiment failed", "error", err, "name", name)
		return nil, err
	}
	return &e, nil
}

// ListExperiments returns every experiment, newest first.
func (s *sqlStore) ListExperiments(ctx context.Context) ([]models.Experiment, error) {
	rows, err := s.query(ctx, `SELECT `+experimentColumns+` FROM experiments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		slog.Error(s.name+" ListExperiments query failed", "error", err)
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}
	defer rows.Close()

	var out []models.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			slog.Error(s.name+" ListExperiments scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan experiment row: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateExperimentState changes the state and winner of an experiment.
func (s *sqlStore) UpdateExperimentState(ctx context.Context, name string, state models.ExperimentState, winner *int) error {
	res, err := s.exec(ctx, `UPDATE experiments SET state = ?, winner_variant = ?, updated_at = ? WHERE name = ?`,
		string(state), nullInt(winner), time.Now().UTC(), name)
	if err != nil {
		slog.Error(s.name+" UpdateExperimentState failed", "error", err, "name", name)
		return err
	}
	return requireAffected(res, s.name+" UpdateExperimentState", name)
}

// RecordExperimentEvent stores an event once per visitor and type. It reports whether a row was added.
func (s *sqlStore) RecordExperimentEvent(ctx context.Context, name string, variant int, eventType models.ExperimentEventType, visitorID string) (bool, error) {
	res, err := s.exec(ctx, `INSERT INTO experiment_events (experiment_name, variant, event_type, visitor_id, created_at)
		VALUES (?, ?, ?, ?, ?) ON CONFLICT (experiment_name, visitor_id, event_type) DO NOTHING`,
		name, variant, string(eventType), visitorID, time.Now().UTC())
	if err != nil {
		slog.Error(s.name+" RecordExperimentEvent failed", "error", err, "name", name, "type", eventType)
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	slog.Debug(s.name+" RecordExperimentEvent", "name", name, "variant", variant, "type", eventType, "inserted", n > 0)
	return n > 0, nil
}

// GetVariantStats counts views and conversions per variant, ordered by variant.
func (s *sqlStore) GetVariantStats(ctx context.Context, name string) ([]models.VariantStats, error) {
	rows, err := s.query(ctx, `SELECT variant,
		SUM(CASE WHEN event_type = 'view' THEN 1 ELSE 0 END),
		SUM(CASE WHEN event_type = 'convert' THEN 1 ELSE 0 END)
		FROM experiment_events WHERE experiment_name = ? GROUP BY variant ORDER BY variant`, name)
	if err != nil {
		slog.Error(s.name+" GetVariantStats query failed", "error", err, "name", name)
		return nil, fmt.Errorf("failed to query variant stats: %w", err)
	}
	defer rows.Close()

	var out []models.VariantStats
	for rows.Next() {
		var vs models.VariantStats
		if err := rows.Scan(&vs.Variant, &vs.Views, &vs.Conversions); err != nil {
			return nil, fmt.Errorf("failed to scan variant stats row: %w", err)
		}
		out = append(out, vs)
	}
	return out, rows.Err()
}

// CreateConversation stores a chat conversation.
func (s *sqlStore) CreateConversation(ctx context.Context, c models.ChatConversation) error {
	_, err := s.exec(ctx, `INSERT INTO chat_conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, nilIfEmpty(c.Title), c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		slog.Error(s.name+" CreateConversation failed", "error", err, "id", c.ID)
		return fmt.Errorf("failed to insert conversation %s: %w", c.ID, err)
	}
	slog.Debug(s.name+" CreateConversation succeeded", "id", c.ID, "user", c.UserID)
	return nil
}

// GetConversation retrieves a conversation by id.
func (s *sqlStore) GetConversation(ctx context.Context, id string) (*models.ChatConversation, error) {
	var c models.ChatConversation
	var title sql.NullString
	err := s.queryRow(ctx, `SELECT id, user_id, title, created_at, updated_at FROM chat_conversations WHERE id = ?`, id).Scan(
		&c.ID, &c.UserID, &title, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		slog.Debug(s.name+" GetConversation not found", "id", id)
		return nil, nil
	}
	if err != nil {
		slog.Error(s.name+" GetConversation failed", "error", err, "id", id)
		return nil, err
	}
	c.Title = title.String
	return &c, nil
}

// AddChatMessage appends a message and bumps the conversation's updated_at.
func (s *sqlStore) AddChatMessage(ctx context.Context, m models.ChatMessage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO chat_messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`),
		m.ID, m.ConversationID, string(m.Role), m.Content, m.CreatedAt.UTC()); err != nil {
		slog.Error(s.name+" AddChatMessage insert failed", "error", err, "conversation", m.ConversationID)
		return fmt.Errorf("failed to insert chat message: %w", err)
	}
	if _, err := tx.ExecContext(ctx, s.q(`UPDATE chat_conversations SET updated_at = ? WHERE id = ?`),
		m.CreatedAt.UTC(), m.ConversationID); err != nil {
		slog.Error(s.name+" AddChatMessage touch failed", "error", err, "conversation", m.ConversationID)
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat message: %w", err)
	}
	slog.Debug(s.name+" AddChatMessage succeeded", "conversation", m.ConversationID, "role", m.Role)
	return nil
}

// ListChatMessages returns a conversation's messages in insertion order.
func (s *sqlStore) ListChatMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	rows, err := s.query(ctx, `SELECT id, conversation_id, role, content, created_at
		FROM chat_messages WHERE conversation_id = ? ORDER BY seq`, conversationID)
	if err != nil {
		slog.Error(s.name+" ListChatMessages query failed", "error", err, "conversation", conversationID)
		return nil, fmt.Errorf("failed to query chat messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message row: %w", err)
		}
		m.Role = models.ChatRole(role)
		out = append(out, m)
	}
	return out, rows.Err()
}

// GetKV returns the value under key and whether it exists.
func (s *sqlStore) GetKV(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.queryRow(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		slog.Error(s.name+" GetKV failed", "error", err, "key", key)
		return "", false, err
	}
	return value, true, nil
}

// SetKV stores value under key.
func (s *sqlStore) SetKV(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC())
	if err != nil {
		slog.Error(s.name+" SetKV failed", "error", err, "key", key)
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// DeleteKV removes key. Missing keys are not an error.
func (s *sqlStore) DeleteKV(ctx context.Context, key string) error {
	if _, err := s.exec(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		slog.Error(s.name+" DeleteKV failed", "error", err, "key", key)
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

func requireAffected(res sql.Result, op, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		slog.Debug(op+" matched no rows", "id", id)
		return models.ErrNotFound
	}
	return nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return int64(*v)
}
