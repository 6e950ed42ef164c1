package engine

import (
	"context"
	"time"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// Colaboradores externos do ledger. O core só conhece estas interfaces;
// identidade/permissão, relógio, carteira e pausa ficam fora dele.

// Authorizer responde quem pode resolver ou cancelar mercados.
type Authorizer interface {
	IsAuthorizedResolver(id string) bool
	IsOwner(id string) bool
}

// Clock fornece o horário corrente (injetável nos testes).
type Clock interface {
	Now() time.Time
}

// Transferer paga um usuário (payout de claim ou devolução de refund).
// ref é a chave de idempotência no destino (ex: "claim:3:alice").
type Transferer interface {
	Transfer(ctx context.Context, to string, amountCents int64, ref string) error
}

// PauseGate bloqueia criação de mercados e apostas quando a plataforma está pausada.
type PauseGate interface {
	IsPaused(ctx context.Context) bool
}

// Sink recebe as notificações do ledger. Best-effort: implementações não podem
// bloquear o core nem devolver erro para ele.
type Sink interface {
	MarketCreated(ev events.MarketCreated)
	BetPlaced(ev events.BetPlaced)
	MarketResolved(ev events.MarketResolved)
	MarketCancelled(ev events.MarketCancelled)
	Claimed(ev events.Claimed)
}

// SystemClock usa time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// NopSink descarta todas as notificações (útil em testes).
type NopSink struct{}

func (NopSink) MarketCreated(events.MarketCreated)     {}
func (NopSink) BetPlaced(events.BetPlaced)             {}
func (NopSink) MarketResolved(events.MarketResolved)   {}
func (NopSink) MarketCancelled(events.MarketCancelled) {}
func (NopSink) Claimed(events.Claimed)                 {}
