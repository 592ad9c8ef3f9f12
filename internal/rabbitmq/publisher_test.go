package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-service/internal/observability"
	"match-service/internal/telemetry"
)

func TestNewPublisherWithoutURLIsNoop(t *testing.T) {
	p := NewPublisher("", "match.events")

	mode, reason := Describe(p)
	assert.Equal(t, ModeNoop, mode)
	assert.Equal(t, "empty amqp url", reason)
	assert.NoError(t, p.Close())
}

func TestNoopPublisherAcceptsEveryEvent(t *testing.T) {
	p := NewPublisher("", "match.events")
	ctx := observability.WithRequestID(context.Background(), "req-1")

	assert.NoError(t, p.Publish(ctx, "likes.recorded", observability.NewEvent("domain_event", "like_recorded", nil)))
	assert.NoError(t, p.Publish(ctx, "audit.match-service", telemetry.AuditEnvelope{EventType: "audit_log"}))
	assert.NoError(t, p.Publish(ctx, "other", map[string]string{"k": "v"}))
}

func TestNewPublishing(t *testing.T) {
	ctx := observability.WithRequestID(context.Background(), "req-1")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	event := observability.NewEvent("domain_event", "match_created", map[string]string{"match_id": "m1"})

	msg, err := newPublishing(ctx, "matches.created", event, at)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, at.UTC(), msg.Timestamp)
	assert.Equal(t, "match_created", msg.Type)
	assert.Equal(t, appID, msg.AppId)
	assert.NotEmpty(t, msg.MessageId)
	assert.Equal(t, "req-1", msg.Headers["x-request-id"])

	var decoded observability.EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "match_created", decoded.EventName)
}

func TestNewPublishingGivesEachMessageItsOwnID(t *testing.T) {
	a, err := newPublishing(context.Background(), "k", struct{}{}, time.Now())
	require.NoError(t, err)
	b, err := newPublishing(context.Background(), "k", struct{}{}, time.Now())
	require.NoError(t, err)

	assert.NotEqual(t, a.MessageId, b.MessageId)
	assert.Empty(t, a.Headers)
}

func TestNewPublishingRejectsUnencodableEvent(t *testing.T) {
	_, err := newPublishing(context.Background(), "k", make(chan int), time.Now())
	assert.Error(t, err)
}

func TestEventKind(t *testing.T) {
	tests := []struct {
		name  string
		event any
		want  string
	}{
		{"domain event", observability.NewEvent("domain_event", "like_recorded", nil), "like_recorded"},
		{"audit", telemetry.AuditEnvelope{EventType: "audit_log"}, "audit_log"},
		{"other", map[string]string{}, "fallback.key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, eventKind("fallback.key", tt.event))
		})
	}
}

func TestDescribeUnknownPublisher(t *testing.T) {
	mode, reason := Describe(nil)
	assert.Equal(t, "unknown", mode)
	assert.Empty(t, reason)
}
