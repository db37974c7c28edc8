// Package models defines the core data structures for FlareFunnel.
//
// It includes the funnel, onboarding, content, experiment and chat types shared across
// modules, and the JSON envelope every API response is wrapped in.
package models

import (
	"errors"
)

// Input limits.
const (
	// MaxConditions is the maximum number of conditions a user may pick during onboarding.
	MaxConditions = 3
	// MaxSeverity is the upper bound of the onboarding baseline severity scale.
	MaxSeverity = 10
	// MaxChatMessageLength defines the maximum allowed length for a chat message body.
	MaxChatMessageLength = 4096
	// ModalQuestionCount is the number of questions in the signup modal.
	ModalQuestionCount = 4
)

// Sentinel errors returned by the services; the api package maps them to status codes.
var (
	ErrNotFound              = errors.New("not found")
	ErrEmptySessionID        = errors.New("modal session id cannot be empty")
	ErrInvalidQuestionSlot   = errors.New("question slot must be between 1 and 4")
	ErrEmptyAnswer           = errors.New("answer value cannot be empty")
	ErrMissingEmail          = errors.New("auth session has no email")
	ErrTooManyConditions     = errors.New("at most 3 conditions may be selected")
	ErrInvalidPriority       = errors.New("invalid priority")
	ErrInvalidIntent         = errors.New("invalid intent")
	ErrInvalidSeverity       = errors.New("severity must be between 0 and 10")
	ErrEmptyImpactQuestion   = errors.New("impact question needs both a feature and an outcome")
	ErrEmptyUserID           = errors.New("user id cannot be empty")
	ErrEmptyMessage          = errors.New("message cannot be empty")
	ErrMessageTooLong        = errors.New("message exceeds maximum length")
	ErrInvalidEventType      = errors.New("invalid event type")
	ErrInvalidVariants       = errors.New("an experiment needs at least two variants")
	ErrInvalidWeights        = errors.New("weights must match variants and be positive")
	ErrVariantOutOfRange     = errors.New("variant index out of range")
	ErrExperimentNotRunning  = errors.New("experiment is not running")
	ErrEmptyExperimentName   = errors.New("experiment name cannot be empty")
	ErrDuplicateExperiment   = errors.New("experiment already exists")
	ErrGenerationNotRecorded = errors.New("no AI generation recorded for session")
	ErrEmptyVisitorID        = errors.New("visitor id cannot be empty")
	ErrInvalidCampaignKind   = errors.New("invalid campaign kind")
	ErrInvalidState          = errors.New("invalid experiment state")
)
