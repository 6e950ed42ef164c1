package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// OddsSnapshot é a projeção de leitura das odds de um mercado, mantida no Redis
// para quem não quer (ou não pode) bater no market-service
type OddsSnapshot struct {
	MarketID         uint64    `json:"market_id"`
	YesPct           int64     `json:"yes_pct"`
	NoPct            int64     `json:"no_pct"`
	TotalStakedCents int64     `json:"total_staked_cents"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RedisCache encapsula o snapshot de odds por mercado no Redis
// Client: cliente Redis
// TTL: tempo de expiração dos registros
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache cria uma instância de cache Redis com TTL configurável
func NewRedisCache(c *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{Client: c, TTL: ttl}
}

// key gera a chave Redis do snapshot de odds de um mercado
func key(marketID uint64) string { return "market:odds:" + strconv.FormatUint(marketID, 10) }

// SetSnapshot armazena o snapshot corrente de um mercado com TTL definido
func (r *RedisCache) SetSnapshot(ctx context.Context, s OddsSnapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key(s.MarketID), b, r.TTL).Err()
}
