package services

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"

	"match-service/internal/models"
	"match-service/internal/observability"
)

const (
	RoutingLikeRecorded  = "likes.recorded"
	RoutingMatchCreated  = "matches.created"
	RoutingMessagePosted = "messages.posted"
)

var tracer = otel.Tracer("match-service/internal/services")

// EventPublisher delivers domain events to the message broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

// Notifier pushes a freshly stored message to live subscribers of its match.
type Notifier interface {
	NotifyMessage(ctx context.Context, msg models.Message)
}

// LikeRecordedEvent is published when a new like is written.
type LikeRecordedEvent struct {
	LikeID      string `json:"like_id"`
	FromGroupID string `json:"from_group_id"`
	ToGroupID   string `json:"to_group_id"`
	CreatedAt   string `json:"created_at"`
}

// MatchCreatedEvent is published once per match.
type MatchCreatedEvent struct {
	MatchID   string   `json:"match_id"`
	GroupIDs  []string `json:"group_ids"`
	CreatedAt string   `json:"created_at"`
}

// MessagePostedEvent is published for every stored message.
type MessagePostedEvent struct {
	MessageID     string `json:"message_id"`
	MatchID       string `json:"match_id"`
	AuthorGroupID string `json:"author_group_id"`
	CreatedAt     string `json:"created_at"`
}

// publish is best effort: the write already committed, so failures are only logged.
func publish(ctx context.Context, p EventPublisher, routingKey, eventName string, payload any) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, routingKey, observability.NewEvent("domain_event", eventName, payload)); err != nil {
		log.Printf("event publish failed routing_key=%s err=%v", routingKey, err)
	}
}
