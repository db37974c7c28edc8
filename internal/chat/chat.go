// Package chat is the placeholder chat backend of the mobile app. Every user message
// is stored and answered with a fixed assistant reply until a real assistant ships.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/BTreeMap/FlareFunnel/internal/models"
)

// PlaceholderReply is the assistant's answer to every message.
const PlaceholderReply = "Thanks for sharing. Chat insights are coming soon. In the meantime, keep logging your check-ins so we can spot your patterns."

// DefaultTitle names conversations started without a title.
const DefaultTitle = "New conversation"

// Store is the persistence the chat service needs.
type Store interface {
	CreateConversation(ctx context.Context, c models.ChatConversation) error
	GetConversation(ctx context.Context, id string) (*models.ChatConversation, error)
	AddChatMessage(ctx context.Context, m models.ChatMessage) error
	ListChatMessages(ctx context.Context, conversationID string) ([]models.ChatMessage, error)
}

// Service manages chat conversations.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a chat service over st.
func NewService(st Store) *Service {
	return &Service{store: st, now: time.Now}
}

// StartConversation opens a new conversation for userID.
func (s *Service) StartConversation(ctx context.Context, userID, title string) (models.ChatConversation, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.ChatConversation{}, models.ErrEmptyUserID
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	now := s.now().UTC()
	c := models.ChatConversation{ID: uuid.NewString(), UserID: userID, Title: title, CreatedAt: now, UpdatedAt: now}
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return models.ChatConversation{}, err
	}
	slog.Debug("chat.Service.StartConversation: conversation created", "conversation", c.ID, "user", userID)
	return c, nil
}

// PostMessage stores the user's message and the placeholder reply, returning both.
func (s *Service) PostMessage(ctx context.Context, conversationID, text string) ([]models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > models.MaxChatMessageLength {
		return nil, models.ErrMessageTooLong
	}
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, models.ErrNotFound
	}

	userAt := s.now().UTC()
	user := models.ChatMessage{ID: uuid.NewString(), ConversationID: conv.ID, Role: models.ChatRoleUser, Content: text, CreatedAt: userAt}
	// reply must sort after the user message at microsecond precision
	reply := models.ChatMessage{ID: uuid.NewString(), ConversationID: conv.ID, Role: models.ChatRoleAssistant,
		Content: PlaceholderReply, CreatedAt: userAt.Add(time.Millisecond)}

	for _, m := range []models.ChatMessage{user, reply} {
		if err := s.store.AddChatMessage(ctx, m); err != nil {
			slog.Error("chat.Service.PostMessage: failed to store message", "error", err, "conversation", conv.ID, "role", m.Role)
			return nil, err
		}
	}
	return []models.ChatMessage{user, reply}, nil
}

// History returns a conversation's messages, oldest first.
func (s *Service) History(ctx context.Context, conversationID string) ([]models.ChatMessage, error) {
	conv, err := s.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, models.ErrNotFound
	}
	msgs, err := s.store.ListChatMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return msgs, nil
}
