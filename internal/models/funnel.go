package models

import (
	"strings"
	"time"
)

// DeviceType is the coarse device class captured when the modal opens.
type DeviceType string

const (
	DeviceDesktop DeviceType = "desktop"
	DeviceMobile  DeviceType = "mobile"
	DeviceTablet  DeviceType = "tablet"
)

// ModalSessionStatus tracks a signup modal from open to account creation.
type ModalSessionStatus string

const (
	ModalSessionOpen      ModalSessionStatus = "open"
	ModalSessionAnswered  ModalSessionStatus = "answered"
	ModalSessionCompleted ModalSessionStatus = "completed"
	ModalSessionAbandoned ModalSessionStatus = "abandoned"
)

// CampaignKind selects which copy table a campaign config row belongs to.
type CampaignKind string

const (
	CampaignKindAd      CampaignKind = "ad"
	CampaignKindLanding CampaignKind = "landing"
	CampaignKindPersona CampaignKind = "persona"
)

// IsValidCampaignKind checks if the given campaign kind is supported.
func IsValidCampaignKind(k CampaignKind) bool {
	switch k {
	case CampaignKindAd, CampaignKindLanding, CampaignKindPersona:
		return true
	default:
		return false
	}
}

// UTMParams are the campaign-tracking parameters a visit arrived with.
type UTMParams struct {
	Source   string `json:"utm_source,omitempty"`
	Medium   string `json:"utm_medium,omitempty"`
	Campaign string `json:"utm_campaign,omitempty"`
	Content  string `json:"utm_content,omitempty"`
	Term     string `json:"utm_term,omitempty"`
}

// IsEmpty reports whether no UTM parameter is set.
func (u UTMParams) IsEmpty() bool {
	return u == UTMParams{}
}

// Visit is a single landing-page view.
type Visit struct {
	ID          string     `json:"id"`
	VisitorID   string     `json:"visitor_id"`
	LandingSlug string     `json:"landing_slug"`
	Variant     string     `json:"variant,omitempty"`
	Referrer    string     `json:"referrer,omitempty"`
	DeviceType  DeviceType `json:"device_type"`
	UTM         UTMParams  `json:"utm"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ModalSession is one run through the signup modal, keyed by a client-generated id.
type ModalSession struct {
	ID          string             `json:"id"`
	VisitID     string             `json:"visit_id,omitempty"`
	ProductSlug string             `json:"product_slug"`
	PersonaSlug string             `json:"persona_slug"`
	AdSlug      string             `json:"ad_slug,omitempty"`
	LandingSlug string             `json:"landing_slug,omitempty"`
	DeviceType  DeviceType         `json:"device_type"`
	Status      ModalSessionStatus `json:"status"`
	Email       string             `json:"email,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// ModalResponse is the answer to one of the four modal questions.
type ModalResponse struct {
	SessionID    string      `json:"session_id,omitempty"`
	Slot         int         `json:"slot"` // 1..4
	QuestionKey  string      `json:"question_key"`
	QuestionText string      `json:"question_text"`
	AnswerValue  string      `json:"answer_value"`
	AnswerLabel  string      `json:"answer_label"`
	WidgetType   string      `json:"widget_type,omitempty"`
	WidgetValue  interface{} `json:"widget_value,omitempty"`
	CreatedAt    time.Time   `json:"created_at,omitempty"`
}

// Validate checks the slot and answer of a modal response.
func (r *ModalResponse) Validate() error {
	if r.Slot < 1 || r.Slot > ModalQuestionCount {
		return ErrInvalidQuestionSlot
	}
	if strings.TrimSpace(r.AnswerValue) == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// CampaignCopy is a row of the campaign config table. Fields irrelevant to a kind stay empty.
type CampaignCopy struct {
	Kind        CampaignKind `json:"kind"`
	Slug        string       `json:"slug"`
	ProductSlug string       `json:"product_slug,omitempty"`
	Headline    string       `json:"headline,omitempty"`
	Subheadline string       `json:"subheadline,omitempty"`
	Body        string       `json:"body,omitempty"`
	CTA         string       `json:"cta,omitempty"`
	PersonaName string       `json:"persona_name,omitempty"`
	PainPoints  []string     `json:"pain_points,omitempty"`
}

// ContextPart names a piece of UserConversionContext for default-substitution bookkeeping.
type ContextPart string

const (
	PartSession   ContextPart = "session"
	PartResponses ContextPart = "responses"
	PartAd        ContextPart = "ad"
	PartLanding   ContextPart = "landing"
	PartPersona   ContextPart = "persona"
	PartUTM       ContextPart = "utm"
)

// UserConversionContext is everything the summary generator knows about one modal session.
type UserConversionContext struct {
	SessionID   string          `json:"session_id"`
	ProductSlug string          `json:"product_slug"`
	PersonaSlug string          `json:"persona_slug"`
	DeviceType  DeviceType      `json:"device_type"`
	UTM         UTMParams       `json:"utm"`
	Ad          CampaignCopy    `json:"ad"`
	Landing     CampaignCopy    `json:"landing"`
	Persona     CampaignCopy    `json:"persona"`
	Responses   []ModalResponse `json:"responses"` // always ModalQuestionCount entries, slot order
	Defaulted   []ContextPart   `json:"defaulted,omitempty"`
}

// Response returns the answer in the given slot, or a zero value.
func (c UserConversionContext) Response(slot int) ModalResponse {
	for _, r := range c.Responses {
		if r.Slot == slot {
			return r
		}
	}
	return ModalResponse{Slot: slot}
}

// UsedDefault reports whether the given part was substituted.
func (c UserConversionContext) UsedDefault(part ContextPart) bool {
	for _, p := range c.Defaulted {
		if p == part {
			return true
		}
	}
	return false
}

// BetaSignup is written when the OAuth callback completes for a modal session.
type BetaSignup struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	ModalSessionID string    `json:"modal_session_id,omitempty"`
	ProductSlug    string    `json:"product_slug,omitempty"`
	UTM            UTMParams `json:"utm"`
	CreatedAt      time.Time `json:"created_at"`
}

// MarketingEvent is a free-form analytics event from the landing pages.
type MarketingEvent struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	VisitorID      string            `json:"visitor_id,omitempty"`
	ModalSessionID string            `json:"modal_session_id,omitempty"`
	Properties     map[string]string `json:"properties,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// AuthCallback is what the OAuth redirect hands back after sign-in.
type AuthCallback struct {
	Email           string    `json:"email"`
	ModalSessionID  string    `json:"modal_session_id,omitempty"`
	PendingRedirect string    `json:"pending_redirect,omitempty"`
	UTM             UTMParams `json:"utm"`
}

// Validate checks the callback carries an email.
func (a *AuthCallback) Validate() error {
	if strings.TrimSpace(a.Email) == "" {
		return ErrMissingEmail
	}
	return nil
}
