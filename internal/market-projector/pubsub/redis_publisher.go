package pubsub

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const ChannelOddsBroadcast = "market_odds_broadcast"

type RedisBroadcaster struct {
	r *redis.Client
}

func NewRedisBroadcaster(r *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{r: r}
}

func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.r.Publish(ctx, channel, payload).Err()
}

// Payload padrão para o WS do market-service
type WSUpdate struct {
	MarketID uint64          `json:"market_id"`
	Payload  json.RawMessage `json:"payload"`
}
