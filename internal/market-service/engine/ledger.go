// Package engine implementa o ledger dos mercados de previsão: registro de
// mercados, posições por usuário, precificação via AMM e o rateio pari-mutuel
// de payouts/refunds. Tudo em memória, com atomicidade por mercado.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/internal/market-service/amm"
	"github.com/radieske/prediction-market-poc/internal/market-service/fixedpoint"
	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// MaxFeeBps é o teto duro da taxa de protocolo (10%); FeeBps acima disso é truncado.
const MaxFeeBps int64 = 1000

// Params são os parâmetros operacionais do ledger (vindos do config).
type Params struct {
	MinBetCents      int64
	MaxBetCents      int64
	FeeBps           int64 // basis points sobre o payout bruto
	ResolutionWindow time.Duration
	MinDuration      time.Duration
	MaxDuration      time.Duration
}

// Ledger é o dono único dos mercados e posições. Toda mutação passa por aqui.
//
// Concorrência: o mapa de mercados é protegido por um RWMutex; cada mercado
// tem o próprio mutex, que serializa cotação+aplicação de aposta, transições
// de estado e o check-and-set da flag de claim. Mercados diferentes operam em
// paralelo.
type Ledger struct {
	log    *zap.Logger
	params Params
	auth   Authorizer
	clock  Clock
	funds  Transferer
	pause  PauseGate
	sink   Sink

	mu      sync.RWMutex
	nextID  uint64
	markets map[uint64]*marketEntry
}

type marketEntry struct {
	mu        sync.Mutex
	m         Market
	positions map[string]*Position
}

// New cria o ledger. FeeBps acima de MaxFeeBps é truncado no teto.
func New(log *zap.Logger, params Params, auth Authorizer, clock Clock, funds Transferer, pause PauseGate, sink Sink) *Ledger {
	if params.FeeBps > MaxFeeBps {
		params.FeeBps = MaxFeeBps
	}
	if params.FeeBps < 0 {
		params.FeeBps = 0
	}
	return &Ledger{
		log:     log,
		params:  params,
		auth:    auth,
		clock:   clock,
		funds:   funds,
		pause:   pause,
		sink:    sink,
		markets: make(map[uint64]*marketEntry),
	}
}

// CreateMarket aloca um id novo e registra o mercado como OPEN.
// openUntil = now + duration; resolveBy = openUntil + janela de resolução.
func (l *Ledger) CreateMarket(ctx context.Context, creator, question, description string, duration time.Duration) (uint64, error) {
	if l.pause.IsPaused(ctx) {
		return 0, ErrPaused
	}
	if creator == "" || strings.TrimSpace(question) == "" {
		return 0, ErrInvalidInput
	}
	if duration < l.params.MinDuration || duration > l.params.MaxDuration {
		return 0, ErrInvalidInput
	}

	now := l.clock.Now()
	m := Market{
		Question:    question,
		Description: description,
		Creator:     creator,
		OpenUntil:   now.Add(duration),
		ResolveBy:   now.Add(duration + l.params.ResolutionWindow),
		State:       StateOpen,
	}

	l.mu.Lock()
	l.nextID++ // ids nunca são reutilizados
	m.ID = l.nextID
	l.markets[m.ID] = &marketEntry{m: m, positions: make(map[string]*Position)}
	l.mu.Unlock()

	l.sink.MarketCreated(events.MarketCreated{
		MarketID:    m.ID,
		Creator:     creator,
		Question:    question,
		Description: description,
		OpenUntil:   m.OpenUntil,
		ResolveBy:   m.ResolveBy,
	})
	l.log.Info("market created",
		zap.Uint64("marketId", m.ID),
		zap.String("creator", creator),
		zap.Time("openUntil", m.OpenUntil),
	)
	return m.ID, nil
}

// GetMarket retorna uma cópia do registro do mercado.
func (l *Ledger) GetMarket(marketID uint64) (Market, error) {
	e, ok := l.entry(marketID)
	if !ok {
		return Market{}, ErrNotFound
	}
	e.mu.Lock()
	m := e.m
	e.mu.Unlock()
	return m, nil
}

// GetPosition retorna uma cópia da posição do usuário (zerada se nunca apostou).
func (l *Ledger) GetPosition(marketID uint64, userID string) (Position, error) {
	e, ok := l.entry(marketID)
	if !ok {
		return Position{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.positions[userID]; ok {
		return *p, nil
	}
	return Position{MarketID: marketID, UserID: userID}, nil
}

// Odds retorna o percentual corrente de cada lado; (50,50) em mercado vazio.
func (l *Ledger) Odds(marketID uint64) (yesPct, noPct int64, err error) {
	e, ok := l.entry(marketID)
	if !ok {
		return 0, 0, ErrNotFound
	}
	e.mu.Lock()
	yes, no := e.m.TotalYesShares, e.m.TotalNoShares
	e.mu.Unlock()
	yesPct, noPct = amm.Odds(yes, no)
	return yesPct, noPct, nil
}

// PlaceBet cota e aplica uma aposta como uma unidade atômica: duas apostas
// concorrentes no mesmo mercado nunca observam os mesmos totais pré-update.
// Retorna as shares emitidas.
func (l *Ledger) PlaceBet(ctx context.Context, marketID uint64, userID string, outcome Outcome, stakeCents int64, reservedRef string) (int64, error) {
	if l.pause.IsPaused(ctx) {
		return 0, ErrPaused
	}
	if userID == "" || (outcome != OutcomeYes && outcome != OutcomeNo) {
		return 0, ErrInvalidInput
	}
	e, ok := l.entry(marketID)
	if !ok {
		return 0, ErrNotFound
	}

	e.mu.Lock()
	now := l.clock.Now()
	if e.m.State != StateOpen || !now.Before(e.m.OpenUntil) {
		e.mu.Unlock()
		return 0, ErrMarketClosed
	}
	if stakeCents < l.params.MinBetCents || stakeCents > l.params.MaxBetCents {
		e.mu.Unlock()
		return 0, ErrStakeOutOfBounds
	}

	side, other := e.m.TotalYesShares, e.m.TotalNoShares
	if outcome == OutcomeNo {
		side, other = other, side
	}
	shares, err := amm.QuoteShares(side, other, stakeCents)
	if err != nil {
		e.mu.Unlock()
		return 0, fmt.Errorf("quote shares: %w", err)
	}
	if shares == 0 {
		e.mu.Unlock()
		return 0, ErrInvalidStake
	}

	p, ok := e.positions[userID]
	if !ok {
		p = &Position{MarketID: marketID, UserID: userID}
		e.positions[userID] = p
	}
	if outcome == OutcomeYes {
		e.m.TotalYesShares += shares
		p.YesShares += shares
	} else {
		e.m.TotalNoShares += shares
		p.NoShares += shares
	}
	e.m.TotalStakedCents += stakeCents
	p.TotalStakedCents += stakeCents

	yesPct, noPct := amm.Odds(e.m.TotalYesShares, e.m.TotalNoShares)
	ev := events.BetPlaced{
		MarketID:         marketID,
		UserID:           userID,
		Outcome:          outcome.String(),
		StakeCents:       stakeCents,
		Shares:           shares,
		ReservedRef:      reservedRef,
		TotalYesShares:   e.m.TotalYesShares,
		TotalNoShares:    e.m.TotalNoShares,
		TotalStakedCents: e.m.TotalStakedCents,
		YesPct:           yesPct,
		NoPct:            noPct,
	}
	e.mu.Unlock()

	l.sink.BetPlaced(ev)
	return shares, nil
}

// Resolve fecha o mercado com o resultado vencedor. Só dentro da janela
// [openUntil, resolveBy] e só por um resolver autorizado. Se ninguém resolver
// dentro da janela o mercado fica OPEN para sempre (comportamento conhecido;
// não há auto-cancel).
func (l *Ledger) Resolve(ctx context.Context, marketID uint64, callerID string, winning Outcome) error {
	if !l.auth.IsAuthorizedResolver(callerID) {
		return ErrUnauthorized
	}
	if winning != OutcomeYes && winning != OutcomeNo {
		return ErrInvalidInput
	}
	e, ok := l.entry(marketID)
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	if e.m.State != StateOpen {
		e.mu.Unlock()
		return ErrAlreadyFinalized
	}
	now := l.clock.Now()
	if now.Before(e.m.OpenUntil) {
		e.mu.Unlock()
		return ErrNotYetClosed
	}
	if now.After(e.m.ResolveBy) {
		e.mu.Unlock()
		return ErrResolutionExpired
	}
	e.m.State = StateResolved
	e.m.Winning = winning
	e.mu.Unlock()

	l.sink.MarketResolved(events.MarketResolved{
		MarketID:   marketID,
		Winning:    winning.String(),
		ResolvedBy: callerID,
		ResolvedAt: now,
	})
	l.log.Info("market resolved",
		zap.Uint64("marketId", marketID),
		zap.String("winning", winning.String()),
	)
	return nil
}

// Cancel encerra um mercado OPEN sem resultado; posições viram refund integral.
func (l *Ledger) Cancel(ctx context.Context, marketID uint64, callerID string) error {
	if !l.auth.IsOwner(callerID) {
		return ErrUnauthorized
	}
	e, ok := l.entry(marketID)
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	if e.m.State != StateOpen {
		e.mu.Unlock()
		return ErrAlreadyFinalized
	}
	e.m.State = StateCancelled
	e.mu.Unlock()

	l.sink.MarketCancelled(events.MarketCancelled{
		MarketID:    marketID,
		CancelledBy: callerID,
		CancelledAt: l.clock.Now(),
	})
	l.log.Info("market cancelled", zap.Uint64("marketId", marketID))
	return nil
}

// ComputePayout calcula o payout bruto de uma posição num mercado RESOLVED:
// rateio pari-mutuel do pool inteiro (stakes perdedores incluídos) na
// proporção das shares vencedoras, com floor. Retorna 0 (sem erro) para
// mercado não resolvido, posição já paga ou sem shares vencedoras.
func (l *Ledger) ComputePayout(marketID uint64, userID string) (int64, error) {
	e, ok := l.entry(marketID)
	if !ok {
		return 0, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.positions[userID]
	if !ok {
		return 0, nil
	}
	return payoutLocked(&e.m, p), nil
}

// Claim paga a posição vencedora: desconta a taxa de protocolo e transfere o
// líquido. A flag claimed é marcada antes da transferência e desfeita se ela
// falhar; o lock do mercado segura a operação inteira, então nenhum outro
// chamador observa o estado intermediário e um claim que falhou na
// transferência continua reivindicável.
func (l *Ledger) Claim(ctx context.Context, marketID uint64, userID string) (int64, error) {
	e, ok := l.entry(marketID)
	if !ok {
		return 0, ErrNotFound
	}

	e.mu.Lock()
	if e.m.State != StateResolved {
		e.mu.Unlock()
		return 0, ErrNothingToClaim
	}
	p, ok := e.positions[userID]
	if !ok {
		e.mu.Unlock()
		return 0, ErrNothingToClaim
	}
	if p.Claimed {
		e.mu.Unlock()
		return 0, ErrAlreadyClaimed
	}
	gross := payoutLocked(&e.m, p)
	if gross == 0 {
		e.mu.Unlock()
		return 0, ErrNothingToClaim
	}

	fee, err := fixedpoint.MulDiv(uint64(gross), uint64(l.params.FeeBps), 10_000)
	if err != nil {
		e.mu.Unlock()
		return 0, fmt.Errorf("fee: %w", err)
	}
	net := gross - int64(fee)

	p.Claimed = true
	if err := l.funds.Transfer(ctx, userID, net, fmt.Sprintf("claim:%d:%s", marketID, userID)); err != nil {
		p.Claimed = false
		e.mu.Unlock()
		l.log.Warn("claim transfer failed",
			zap.Uint64("marketId", marketID),
			zap.String("userId", userID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	ev := events.Claimed{
		MarketID:   marketID,
		UserID:     userID,
		GrossCents: gross,
		FeeCents:   int64(fee),
		NetCents:   net,
	}
	e.mu.Unlock()

	l.sink.Claimed(ev)
	return net, nil
}

// ClaimRefund devolve o stake integral (sem taxa) num mercado CANCELLED.
// Mesma disciplina de two-phase do Claim.
func (l *Ledger) ClaimRefund(ctx context.Context, marketID uint64, userID string) (int64, error) {
	e, ok := l.entry(marketID)
	if !ok {
		return 0, ErrNotFound
	}

	e.mu.Lock()
	if e.m.State != StateCancelled {
		e.mu.Unlock()
		return 0, ErrNothingToClaim
	}
	p, ok := e.positions[userID]
	if !ok || p.TotalStakedCents == 0 {
		e.mu.Unlock()
		return 0, ErrNothingToClaim
	}
	if p.Claimed {
		e.mu.Unlock()
		return 0, ErrAlreadyClaimed
	}
	amount := p.TotalStakedCents

	p.Claimed = true
	if err := l.funds.Transfer(ctx, userID, amount, fmt.Sprintf("refund:%d:%s", marketID, userID)); err != nil {
		p.Claimed = false
		e.mu.Unlock()
		l.log.Warn("refund transfer failed",
			zap.Uint64("marketId", marketID),
			zap.String("userId", userID),
			zap.Error(err),
		)
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	ev := events.Claimed{
		MarketID:   marketID,
		UserID:     userID,
		GrossCents: amount,
		NetCents:   amount,
		Refund:     true,
	}
	e.mu.Unlock()

	l.sink.Claimed(ev)
	return amount, nil
}

// payoutLocked assume o lock do mercado. amount = winShares*totalStaked/totalWinShares
// com floor; a sobra ("dust", até totalWinShares-1 centavos) fica presa no pool
// e nunca é varrida.
func payoutLocked(m *Market, p *Position) int64 {
	if m.State != StateResolved || p.Claimed {
		return 0
	}
	winShares, totalWin := p.YesShares, m.TotalYesShares
	if m.Winning == OutcomeNo {
		winShares, totalWin = p.NoShares, m.TotalNoShares
	}
	if winShares == 0 || totalWin == 0 {
		return 0
	}
	amount, err := fixedpoint.MulDiv(uint64(winShares), uint64(m.TotalStakedCents), uint64(totalWin))
	if err != nil {
		// winShares <= totalWin garante amount <= totalStaked; não alcançável
		return 0
	}
	return int64(amount)
}

func (l *Ledger) entry(marketID uint64) (*marketEntry, bool) {
	l.mu.RLock()
	e, ok := l.markets[marketID]
	l.mu.RUnlock()
	return e, ok
}
