package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-projector/cache"
	"github.com/radieske/prediction-market-poc/internal/market-projector/repository"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// Processor consome o tópico market_events, projeta o snapshot de odds no
// Redis e persiste a trilha de auditoria no banco
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repository.PostgresRepo
	Cache  *cache.RedisCache
	DLQ    *kafka.Writer // mensagens indecifráveis vão pra cá

	OnConsumed func()       // métricas (counter++)
	OnCached   func()       // métricas
	OnPersist  func()       // métricas
	OnError    func(string) // métricas por fase

	// Após persistir um bet_placed, repassa o snapshot pro WS via Redis Pub/Sub
	OnAfterPersist func(env events.Envelope, snap *cache.OddsSnapshot)
}

// Run inicia o loop principal de consumo e processamento das mensagens Kafka
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed() // callback de métrica: mensagem consumida
		}

		var env events.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil || env.Type == "" {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			p.toDLQ(ctx, m.Value)
			continue
		}

		// bet_placed carrega o snapshot pós-aposta; projeta no Redis
		var snap *cache.OddsSnapshot
		if env.Type == events.TypeBetPlaced {
			var bp events.BetPlaced
			if err := json.Unmarshal(env.Payload, &bp); err != nil {
				p.Log.Warn("invalid bet_placed payload", zap.Error(err))
				if p.OnError != nil {
					p.OnError("decode")
				}
				p.toDLQ(ctx, m.Value)
				continue
			}
			snap = &cache.OddsSnapshot{
				MarketID:         bp.MarketID,
				YesPct:           bp.YesPct,
				NoPct:            bp.NoPct,
				TotalStakedCents: bp.TotalStakedCents,
				UpdatedAt:        time.UnixMilli(env.TsUnixMs),
			}
			if err := p.Cache.SetSnapshot(ctx, *snap); err != nil {
				p.Log.Warn("redis set failed", zap.Error(err))
				if p.OnError != nil {
					p.OnError("cache")
				}
				// não bloqueia persistência se falhar o cache
			} else if p.OnCached != nil {
				p.OnCached() // callback de métrica: cache atualizado
			}
		}

		// Persiste o evento no histórico (auditoria de todo ciclo de vida)
		if err := p.Repo.InsertHistory(ctx, env); err != nil {
			p.Log.Warn("db insert history failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("db_history")
			}
			continue
		}
		if p.OnPersist != nil {
			p.OnPersist() // callback de métrica: persistência concluída
		}

		if p.OnAfterPersist != nil {
			p.OnAfterPersist(env, snap)
		}
	}
}

func (p *Processor) toDLQ(ctx context.Context, value []byte) {
	if p.DLQ == nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.DLQ.WriteMessages(wctx, kafka.Message{Value: value}); err != nil {
		p.Log.Warn("dlq write failed", zap.Error(err))
	}
}
