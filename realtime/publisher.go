// Package realtime pushes authoritative count payloads to per-user Redis
// channels. Consumers (the SSE/WebSocket edge, out of scope here) relay the
// payloads verbatim; counts are always absolute so clients never accumulate
// deltas.
package realtime

import (
	"context"
	"encoding/json"
	"log"

	"github.com/go-redis/redis/v8"
)

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func channelFor(userID string) string {
	return "counts:" + userID
}

// PublishCounts serializes the payload and publishes it to the user's count
// channel. Publishing is best-effort: a failure is logged, not returned, so
// a Redis hiccup never fails the mutation that triggered the push.
func (p *Publisher) PublishCounts(ctx context.Context, userID string, payload any) {
	if p == nil || p.client == nil {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Printf("realtime: marshal counts for user %s: %v", userID, err)
		return
	}
	if err := p.client.Publish(ctx, channelFor(userID), raw).Err(); err != nil {
		log.Printf("realtime: publish counts for user %s: %v", userID, err)
	}
}
