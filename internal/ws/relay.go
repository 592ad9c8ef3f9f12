package ws

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/redis/go-redis/v9"

	"match-service/internal/models"
	"match-service/internal/observability"
)

const relayChannelPrefix = "match:"

// RedisClient is the part of go-redis the relay needs.
type RedisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	PSubscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisRelay fans messages out to every instance through Redis pub/sub. Each
// instance delivers what it receives to its local hub.
type RedisRelay struct {
	client RedisClient
	hub    *Hub
}

func NewRedisRelay(client RedisClient, hub *Hub) *RedisRelay {
	return &RedisRelay{client: client, hub: hub}
}

func relayChannel(matchID string) string {
	return relayChannelPrefix + matchID
}

// NotifyMessage publishes the message for all instances. If Redis is unreachable the
// message is still delivered to local subscribers.
func (r *RedisRelay) NotifyMessage(ctx context.Context, msg models.Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("relay encode failed message_id=%s err=%v", msg.ID, err)
		return
	}
	if err := r.client.Publish(ctx, relayChannel(msg.MatchID), payload).Err(); err != nil {
		log.Printf("relay publish failed match_id=%s err=%v", msg.MatchID, err)
		r.hub.BroadcastMessage(msg.MatchID, msg)
		return
	}
	observability.IncRelay("out")
}

// Run consumes the relay channels until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, relayChannelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	log.Printf("redis relay subscribed pattern=%s*", relayChannelPrefix)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			r.handle(m.Channel, m.Payload)
		}
	}
}

func (r *RedisRelay) handle(channel, payload string) {
	var msg models.Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		log.Printf("relay decode failed channel=%s err=%v", channel, err)
		return
	}
	if err := msg.Validate(); err != nil {
		log.Printf("relay dropped invalid message channel=%s err=%v", channel, err)
		return
	}
	if matchID := strings.TrimPrefix(channel, relayChannelPrefix); matchID != msg.MatchID {
		log.Printf("relay dropped message for wrong channel channel=%s match_id=%s", channel, msg.MatchID)
		return
	}
	observability.IncRelay("in")
	r.hub.BroadcastMessage(msg.MatchID, msg)
}
