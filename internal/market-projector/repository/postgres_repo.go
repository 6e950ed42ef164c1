package repository

import (
	"context"
	"database/sql"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// PostgresRepo persiste o histórico de eventos dos mercados (trilha de auditoria)
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// InsertHistory insere um evento de mercado no histórico (market_events_history)
// O payload vai como JSONB pra consulta ad-hoc sem migração por tipo de evento
func (r *PostgresRepo) InsertHistory(ctx context.Context, env events.Envelope) error {
	const q = `
		INSERT INTO market_events_history
		  (market_id, event_type, ts_unix_ms, payload)
		VALUES
		  ($1,$2,$3,$4)
	`
	_, err := r.DB.ExecContext(ctx, q, env.MarketID, env.Type, env.TsUnixMs, []byte(env.Payload))
	return err
}
