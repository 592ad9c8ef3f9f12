package services

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"match-service/internal/models"
	"match-service/internal/observability"
	"match-service/internal/repositories"
)

// MaxMessageRunes bounds a message after trimming.
const MaxMessageRunes = 2000

// ConversationService reads and appends match conversations.
type ConversationService struct {
	registry  *MatchRegistry
	messages  repositories.MessageRepository
	notifier  Notifier
	publisher EventPublisher
}

func NewConversationService(registry *MatchRegistry, messages repositories.MessageRepository, notifier Notifier, publisher EventPublisher) *ConversationService {
	return &ConversationService{registry: registry, messages: messages, notifier: notifier, publisher: publisher}
}

// ListMessages returns the full history of a match in ascending order.
func (s *ConversationService) ListMessages(ctx context.Context, matchID, groupID string) ([]models.Message, error) {
	const op = "conversation.ListMessages"
	if _, err := s.registry.Authorize(ctx, matchID, groupID); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListMessages(ctx, matchID)
	if err != nil {
		return nil, storeError(op, err)
	}
	return msgs, nil
}

// PostMessage appends a message authored by authorGroupID.
func (s *ConversationService) PostMessage(ctx context.Context, matchID, authorGroupID, text string) (models.Message, error) {
	const op = "conversation.PostMessage"
	ctx, span := tracer.Start(ctx, "conversation.PostMessage")
	defer span.End()
	span.SetAttributes(attribute.String("match.id", matchID), attribute.String("group.id", authorGroupID))

	msg, err := s.post(ctx, op, matchID, authorGroupID, text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, PublicMessage(err))
		return models.Message{}, err
	}
	return msg, nil
}

func (s *ConversationService) post(ctx context.Context, op, matchID, authorGroupID, text string) (models.Message, error) {
	if _, err := s.registry.Authorize(ctx, matchID, authorGroupID); err != nil {
		return models.Message{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.Message{}, invalid(op, "message text is empty")
	}
	if utf8.RuneCountInString(text) > MaxMessageRunes {
		return models.Message{}, invalid(op, "message text is too long")
	}

	msg, err := s.messages.CreateMessage(ctx, matchID, authorGroupID, text)
	if err != nil {
		return models.Message{}, storeError(op, err)
	}

	observability.IncMessagePosted()
	if s.notifier != nil {
		s.notifier.NotifyMessage(ctx, msg)
	}
	publish(ctx, s.publisher, RoutingMessagePosted, "message_posted", MessagePostedEvent{
		MessageID:     msg.ID,
		MatchID:       msg.MatchID,
		AuthorGroupID: msg.AuthorGroupID,
		CreatedAt:     msg.CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	return msg, nil
}
