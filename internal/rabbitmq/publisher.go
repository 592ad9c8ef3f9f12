package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"match-service/internal/idgen"
	"match-service/internal/observability"
	"match-service/internal/telemetry"
)

const appID = "match-service"

const (
	ModeAMQP = "amqp"
	ModeNoop = "noop"
)

// Publisher publishes domain and audit events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
	Close() error
}

// NewPublisher connects to the topic exchange. Any connection failure
// degrades to a publisher that only logs, so the API keeps serving.
func NewPublisher(amqpURL, exchange string) Publisher {
	if amqpURL == "" {
		return newNoop("empty amqp url")
	}
	p, err := dial(amqpURL, exchange)
	if err != nil {
		return newNoop(err.Error())
	}
	log.Printf("rabbitmq connected exchange=%s", exchange)
	return p
}

func dial(amqpURL, exchange string) (*amqpPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	// durable topic exchange, not auto-deleted
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &amqpPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

type amqpPublisher struct {
	// amqp.Channel is not safe for concurrent publishes.
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func (p *amqpPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	msg, err := newPublishing(ctx, routingKey, event, time.Now())
	if err != nil {
		return fmt.Errorf("encode %s: %w", routingKey, err)
	}

	p.mu.Lock()
	err = p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		observability.IncAMQPPublishError()
		log.Printf("rabbitmq publish failed routing_key=%s message_id=%s: %v", routingKey, msg.MessageId, err)
	}
	return err
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// newPublishing encodes event as a persistent JSON message carrying the
// request and trace ids from ctx.
func newPublishing(ctx context.Context, routingKey string, event any, at time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	headers := amqp.Table{}
	for key, value := range observability.HeadersFromContext(ctx) {
		headers[key] = value
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    at.UTC(),
		MessageId:    idgen.NewID(),
		Type:         eventKind(routingKey, event),
		AppId:        appID,
		Headers:      headers,
		Body:         body,
	}, nil
}

// eventKind names the message for consumers that route on the AMQP type.
func eventKind(routingKey string, event any) string {
	switch e := event.(type) {
	case observability.EventEnvelope:
		return e.EventName
	case telemetry.AuditEnvelope:
		return e.EventType
	}
	return routingKey
}

type noopPublisher struct {
	reason string
}

func newNoop(reason string) noopPublisher {
	log.Printf("rabbitmq disabled, using noop: %s", reason)
	return noopPublisher{reason: reason}
}

func (noopPublisher) Publish(ctx context.Context, routingKey string, event any) error {
	log.Printf("rabbitmq noop publish routing_key=%s type=%s request_id=%s",
		routingKey, eventKind(routingKey, event), observability.RequestIDFromContext(ctx))
	return nil
}

func (noopPublisher) Close() error {
	return nil
}

// Describe reports how p delivers events and, for the noop publisher, why.
func Describe(p Publisher) (mode, reason string) {
	switch v := p.(type) {
	case *amqpPublisher:
		return ModeAMQP, ""
	case noopPublisher:
		return ModeNoop, v.reason
	}
	return "unknown", ""
}
