package telemetry

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Audit levels.
const (
	AuditInfo  = "INFO"
	AuditError = "ERROR"
)

type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// AuditEntry is one line of the swipe/match audit trail. Empty ids are omitted.
type AuditEntry struct {
	Level     string
	Text      string
	RequestID string
	UserID    string
	GroupID   string
	MatchID   string
}

// AuditEmitter publishes audit entries for one service and environment.
type AuditEmitter struct {
	publisher   Publisher
	routingKey  string
	service     string
	environment string
	now         func() time.Time
}

type AuditEnvelope struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	OccurredAt    string       `json:"occurred_at"`
	Service       string       `json:"service"`
	Environment   string       `json:"environment"`
	RequestID     string       `json:"request_id"`
	TraceID       string       `json:"trace_id,omitempty"`
	UserID        *string      `json:"user_id,omitempty"`
	GroupID       *string      `json:"group_id,omitempty"`
	MatchID       *string      `json:"match_id,omitempty"`
	Payload       AuditPayload `json:"payload"`
}

type AuditPayload struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

func NewAuditEmitter(publisher Publisher, routingKey, service, environment string) *AuditEmitter {
	return &AuditEmitter{
		publisher:   publisher,
		routingKey:  routingKey,
		service:     service,
		environment: environment,
		now:         time.Now,
	}
}

// Envelope builds the published form of an entry. The trace id comes from the span in ctx.
func (e *AuditEmitter) Envelope(ctx context.Context, entry AuditEntry) AuditEnvelope {
	level := entry.Level
	if level == "" {
		level = AuditInfo
	}
	env := AuditEnvelope{
		SchemaVersion: 2,
		EventType:     "audit_log",
		OccurredAt:    e.now().UTC().Format(time.RFC3339Nano),
		Service:       e.service,
		Environment:   e.environment,
		RequestID:     entry.RequestID,
		UserID:        optional(entry.UserID),
		GroupID:       optional(entry.GroupID),
		MatchID:       optional(entry.MatchID),
		Payload:       AuditPayload{Level: level, Text: entry.Text},
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		env.TraceID = sc.TraceID().String()
	}
	return env
}

// Emit publishes the entry. Failures are logged, never returned.
func (e *AuditEmitter) Emit(ctx context.Context, entry AuditEntry) {
	if e == nil || e.publisher == nil {
		return
	}

	env := e.Envelope(ctx, entry)
	log.Printf("audit emit: level=%s request_id=%s user_id=%s group_id=%s match_id=%s text=%q",
		env.Payload.Level, entry.RequestID, entry.UserID, entry.GroupID, entry.MatchID, entry.Text)
	if err := e.publisher.Publish(ctx, e.routingKey, env); err != nil {
		log.Printf("audit publish failed routing_key=%s: %v", e.routingKey, err)
	}
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
