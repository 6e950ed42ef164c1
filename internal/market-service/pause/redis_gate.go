// Package pause implementa o PauseGate do ledger lendo uma chave no Redis.
// O toggle em si (quem pausa e despausa) fica fora do core; aqui só se lê.
package pause

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PauseKey é a chave Redis observada; qualquer valor diferente de "" e "0" pausa.
const PauseKey = "market:paused"

type RedisGate struct {
	rdb *redis.Client
}

func NewRedisGate(rdb *redis.Client) *RedisGate { return &RedisGate{rdb: rdb} }

// IsPaused consulta a chave com timeout curto. Redis indisponível ou chave
// ausente contam como "não pausado": a pausa é um freio operacional, não pode
// derrubar a plataforma junto.
func (g *RedisGate) IsPaused(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()

	val, err := g.rdb.Get(ctx, PauseKey).Result()
	if err != nil {
		return false
	}
	return val != "" && val != "0"
}
