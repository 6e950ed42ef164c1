package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- fakes dos colaboradores ---

type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fakeAuth struct {
	owners    map[string]bool
	resolvers map[string]bool
}

func (a *fakeAuth) IsAuthorizedResolver(id string) bool { return a.resolvers[id] }
func (a *fakeAuth) IsOwner(id string) bool              { return a.owners[id] }

type transferCall struct {
	to     string
	amount int64
	ref    string
}

type fakeFunds struct {
	mu    sync.Mutex
	calls []transferCall
	fail  error
}

func (f *fakeFunds) Transfer(_ context.Context, to string, amount int64, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.calls = append(f.calls, transferCall{to: to, amount: amount, ref: ref})
	return nil
}

func (f *fakeFunds) setFail(err error) {
	f.mu.Lock()
	f.fail = err
	f.mu.Unlock()
}

type fakePause struct{ paused bool }

func (p *fakePause) IsPaused(context.Context) bool { return p.paused }

func testParams() Params {
	return Params{
		MinBetCents:      100,
		MaxBetCents:      1_000_000,
		FeeBps:           200, // 2%
		ResolutionWindow: 48 * time.Hour,
		MinDuration:      time.Hour,
		MaxDuration:      365 * 24 * time.Hour,
	}
}

func newTestLedger(t *testing.T, params Params) (*Ledger, *fixedClock, *fakeFunds, *fakePause) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	funds := &fakeFunds{}
	pause := &fakePause{}
	auth := &fakeAuth{
		owners:    map[string]bool{"owner": true},
		resolvers: map[string]bool{"resolver": true},
	}
	l := New(zap.NewNop(), params, auth, clock, funds, pause, NopSink{})
	return l, clock, funds, pause
}

// --- criação e leitura ---

func TestCreateMarketValidation(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()

	_, err := l.CreateMarket(ctx, "alice", "", "", 24*time.Hour)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = l.CreateMarket(ctx, "alice", "  ", "", 24*time.Hour)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = l.CreateMarket(ctx, "alice", "chove amanhã?", "", 30*time.Minute)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = l.CreateMarket(ctx, "alice", "chove amanhã?", "", 400*24*time.Hour)
	assert.ErrorIs(t, err, ErrInvalidInput)

	id, err := l.CreateMarket(ctx, "alice", "chove amanhã?", "previsão BR", 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)

	id2, err := l.CreateMarket(ctx, "bob", "BTC acima de 100k?", "", 48*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), id2) // ids monotônicos, nunca reutilizados
}

func TestCreateMarketTimestamps(t *testing.T) {
	l, clock, _, _ := newTestLedger(t, testParams())
	id, err := l.CreateMarket(context.Background(), "alice", "chove amanhã?", "", 24*time.Hour)
	require.NoError(t, err)

	m, err := l.GetMarket(id)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, m.State)
	assert.Equal(t, clock.Now().Add(24*time.Hour), m.OpenUntil)
	assert.Equal(t, m.OpenUntil.Add(48*time.Hour), m.ResolveBy)
	assert.Zero(t, m.TotalStakedCents)
	assert.Zero(t, m.TotalYesShares)
	assert.Zero(t, m.TotalNoShares)
}

func TestGetMarketNotFound(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	_, err := l.GetMarket(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetPositionLazy(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	id, _ := l.CreateMarket(context.Background(), "alice", "chove amanhã?", "", 24*time.Hour)

	p, err := l.GetPosition(id, "quem-nunca-apostou")
	require.NoError(t, err)
	assert.Zero(t, p.TotalStakedCents)
	assert.False(t, p.Claimed)

	_, err = l.GetPosition(99, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

// --- apostas (cenários A e B do fluxo completo) ---

func TestFirstBetBootstrap(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	// primeira aposta: 1 share por centavo
	shares, err := l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	require.NoError(t, err)
	assert.Equal(t, int64(100), shares)

	yes, no, err := l.Odds(id)
	require.NoError(t, err)
	assert.Equal(t, int64(100), yes)
	assert.Equal(t, int64(0), no)
}

func TestSecondSideStillAtEvenPrice(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, err := l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	require.NoError(t, err)

	// lado NO ainda vazio: preço travado em 0.5, mint 1:1
	shares, err := l.PlaceBet(ctx, id, "bob", OutcomeNo, 100, "")
	require.NoError(t, err)
	assert.Equal(t, int64(100), shares)

	yes, no, _ := l.Odds(id)
	assert.Equal(t, int64(50), yes)
	assert.Equal(t, int64(50), no)
}

func TestStakeBounds(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, err := l.PlaceBet(ctx, id, "alice", OutcomeYes, 99, "")
	assert.ErrorIs(t, err, ErrStakeOutOfBounds)

	_, err = l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	assert.NoError(t, err)

	_, err = l.PlaceBet(ctx, id, "alice", OutcomeYes, 1_000_001, "")
	assert.ErrorIs(t, err, ErrStakeOutOfBounds)

	_, err = l.PlaceBet(ctx, id, "alice", OutcomeYes, 1_000_000, "")
	assert.NoError(t, err)
}

func TestBetAfterCloseFails(t *testing.T) {
	l, clock, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	clock.Advance(24 * time.Hour) // exatamente openUntil: já não aceita
	_, err := l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	assert.ErrorIs(t, err, ErrMarketClosed)
}

func TestBetInvalidInputs(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, err := l.PlaceBet(ctx, id, "", OutcomeYes, 100, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = l.PlaceBet(ctx, id, "alice", OutcomeUnset, 100, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = l.PlaceBet(ctx, 99, "alice", OutcomeYes, 100, "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestZeroShareMintRejected(t *testing.T) {
	params := testParams()
	params.MinBetCents = 1
	l, _, _, _ := newTestLedger(t, params)
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, err := l.PlaceBet(ctx, id, "alice", OutcomeYes, 200, "")
	require.NoError(t, err)
	_, err = l.PlaceBet(ctx, id, "bob", OutcomeNo, 100, "")
	require.NoError(t, err)

	// 1 centavo no lado YES (preço 2/3): 1*0.5/0.666 < 1 share -> mint zero
	_, err = l.PlaceBet(ctx, id, "carol", OutcomeYes, 1, "")
	assert.ErrorIs(t, err, ErrInvalidStake)
}

func TestPauseGate(t *testing.T) {
	l, _, _, pause := newTestLedger(t, testParams())
	ctx := context.Background()
	id, err := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)
	require.NoError(t, err)

	pause.paused = true
	_, err = l.CreateMarket(ctx, "alice", "outro?", "", 24*time.Hour)
	assert.ErrorIs(t, err, ErrPaused)
	_, err = l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	assert.ErrorIs(t, err, ErrPaused)
}

// --- resolução (cenários C e F) ---

func TestResolveGuards(t *testing.T) {
	l, clock, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	err := l.Resolve(ctx, id, "intruso", OutcomeYes)
	assert.ErrorIs(t, err, ErrUnauthorized)

	err = l.Resolve(ctx, id, "resolver", OutcomeUnset)
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = l.Resolve(ctx, id, "resolver", OutcomeYes)
	assert.ErrorIs(t, err, ErrNotYetClosed)

	clock.Advance(25 * time.Hour)
	require.NoError(t, l.Resolve(ctx, id, "resolver", OutcomeYes))

	err = l.Resolve(ctx, id, "resolver", OutcomeNo)
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	err = l.Cancel(ctx, id, "owner")
	assert.ErrorIs(t, err, ErrAlreadyFinalized)

	m, _ := l.GetMarket(id)
	assert.Equal(t, StateResolved, m.State)
	assert.Equal(t, OutcomeYes, m.Winning)
}

func TestResolveAfterWindowExpires(t *testing.T) {
	l, clock, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	clock.Advance(24*time.Hour + 48*time.Hour + time.Minute)
	err := l.Resolve(ctx, id, "resolver", OutcomeYes)
	assert.ErrorIs(t, err, ErrResolutionExpired)

	// janela perdida: mercado fica OPEN para sempre, sem apostas novas
	m, _ := l.GetMarket(id)
	assert.Equal(t, StateOpen, m.State)
	_, err = l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	assert.ErrorIs(t, err, ErrMarketClosed)
}

// --- payout e claim (cenários C e D) ---

func TestPariMutuelPayout(t *testing.T) {
	l, clock, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, err := l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	require.NoError(t, err)
	_, err = l.PlaceBet(ctx, id, "bob", OutcomeNo, 100, "")
	require.NoError(t, err)

	// antes de resolver, payout é zero
	amt, err := l.ComputePayout(id, "alice")
	require.NoError(t, err)
	assert.Zero(t, amt)

	clock.Advance(25 * time.Hour)
	require.NoError(t, l.Resolve(ctx, id, "resolver", OutcomeYes))

	// alice leva o pool inteiro: 100 shares * 200 centavos / 100 shares
	amt, err = l.ComputePayout(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(200), amt)

	amt, err = l.ComputePayout(id, "bob")
	require.NoError(t, err)
	assert.Zero(t, amt)
}

func TestClaimDeductsFee(t *testing.T) {
	l, clock, funds, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, _ = l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	_, _ = l.PlaceBet(ctx, id, "bob", OutcomeNo, 100, "")
	clock.Advance(25 * time.Hour)
	require.NoError(t, l.Resolve(ctx, id, "resolver", OutcomeYes))

	// payout bruto 200, fee 2% = 4, líquido 196
	net, err := l.Claim(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(196), net)
	require.Len(t, funds.calls, 1)
	assert.Equal(t, transferCall{to: "alice", amount: 196, ref: "claim:1:alice"}, funds.calls[0])

	// idempotência: segundo claim falha, sem nova transferência
	_, err = l.Claim(ctx, id, "alice")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)
	assert.Len(t, funds.calls, 1)

	// perdedor não tem o que reivindicar
	_, err = l.Claim(ctx, id, "bob")
	assert.ErrorIs(t, err, ErrNothingToClaim)
}

func TestClaimOnOpenMarket(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)
	_, _ = l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")

	_, err := l.Claim(ctx, id, "alice")
	assert.ErrorIs(t, err, ErrNothingToClaim)
	_, err = l.ClaimRefund(ctx, id, "alice")
	assert.ErrorIs(t, err, ErrNothingToClaim)
}

func TestFeeCappedAtHardMax(t *testing.T) {
	params := testParams()
	params.FeeBps = 5000 // acima do teto: trunca em 10%
	l, clock, _, _ := newTestLedger(t, params)
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, _ = l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	_, _ = l.PlaceBet(ctx, id, "bob", OutcomeNo, 100, "")
	clock.Advance(25 * time.Hour)
	require.NoError(t, l.Resolve(ctx, id, "resolver", OutcomeYes))

	net, err := l.Claim(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(180), net) // 200 - 10%
}

func TestClaimTransferFailureRollsBack(t *testing.T) {
	l, clock, funds, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, _ = l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	_, _ = l.PlaceBet(ctx, id, "bob", OutcomeNo, 100, "")
	clock.Advance(25 * time.Hour)
	require.NoError(t, l.Resolve(ctx, id, "resolver", OutcomeYes))

	funds.setFail(errors.New("wallet offline"))
	_, err := l.Claim(ctx, id, "alice")
	assert.ErrorIs(t, err, ErrTransferFailed)

	// flag não ficou marcada: retry funciona quando a carteira volta
	p, _ := l.GetPosition(id, "alice")
	assert.False(t, p.Claimed)

	funds.setFail(nil)
	net, err := l.Claim(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(196), net)
}

// --- cancelamento e refund (cenário E) ---

func TestCancelAndRefund(t *testing.T) {
	l, _, funds, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	_, _ = l.PlaceBet(ctx, id, "alice", OutcomeYes, 300, "")
	_, _ = l.PlaceBet(ctx, id, "bob", OutcomeNo, 500, "")

	err := l.Cancel(ctx, id, "intruso")
	assert.ErrorIs(t, err, ErrUnauthorized)
	require.NoError(t, l.Cancel(ctx, id, "owner"))

	// cada um recebe exatamente o stake original, sem taxa
	amt, err := l.ClaimRefund(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(300), amt)

	amt, err = l.ClaimRefund(ctx, id, "bob")
	require.NoError(t, err)
	assert.Equal(t, int64(500), amt)

	require.Len(t, funds.calls, 2)
	assert.Equal(t, "refund:1:alice", funds.calls[0].ref)

	_, err = l.ClaimRefund(ctx, id, "alice")
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	_, err = l.ClaimRefund(ctx, id, "quem-nunca-apostou")
	assert.ErrorIs(t, err, ErrNothingToClaim)
}

func TestRefundTransferFailureRollsBack(t *testing.T) {
	l, _, funds, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)
	_, _ = l.PlaceBet(ctx, id, "alice", OutcomeYes, 300, "")
	require.NoError(t, l.Cancel(ctx, id, "owner"))

	funds.setFail(errors.New("wallet offline"))
	_, err := l.ClaimRefund(ctx, id, "alice")
	assert.ErrorIs(t, err, ErrTransferFailed)

	funds.setFail(nil)
	amt, err := l.ClaimRefund(ctx, id, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(300), amt)
}

// --- invariantes de conservação ---

func TestStakeConservation(t *testing.T) {
	l, clock, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	users := []string{"alice", "bob", "carol", "dave"}
	outcomes := []Outcome{OutcomeYes, OutcomeNo, OutcomeYes, OutcomeNo}
	stakes := []int64{137, 9901, 450, 777}
	for i, u := range users {
		for j := 0; j < 3; j++ {
			_, err := l.PlaceBet(ctx, id, u, outcomes[i], stakes[i], "")
			require.NoError(t, err)
		}
	}

	m, _ := l.GetMarket(id)
	var sum int64
	for _, u := range users {
		p, err := l.GetPosition(id, u)
		require.NoError(t, err)
		sum += p.TotalStakedCents
	}
	assert.Equal(t, m.TotalStakedCents, sum)

	clock.Advance(25 * time.Hour)
	require.NoError(t, l.Resolve(ctx, id, "resolver", OutcomeYes))

	// soma dos payouts nunca excede o pool; a sobra (dust) fica presa nele
	var payouts int64
	for _, u := range users {
		amt, err := l.ComputePayout(id, u)
		require.NoError(t, err)
		payouts += amt
	}
	assert.LessOrEqual(t, payouts, m.TotalStakedCents)
}

func TestConcurrentStakesStayConsistent(t *testing.T) {
	l, _, _, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)

	const workers = 16
	const betsPerWorker = 25
	var wg sync.WaitGroup
	var minted int64
	var mintedMu sync.Mutex

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			user := string(rune('a' + w%8))
			outcome := OutcomeYes
			if w%2 == 1 {
				outcome = OutcomeNo
			}
			var local int64
			for i := 0; i < betsPerWorker; i++ {
				shares, err := l.PlaceBet(ctx, id, user, outcome, 500, "")
				if err == nil {
					local += shares
				}
			}
			mintedMu.Lock()
			minted += local
			mintedMu.Unlock()
		}(w)
	}
	wg.Wait()

	m, _ := l.GetMarket(id)
	assert.Equal(t, int64(workers*betsPerWorker*500), m.TotalStakedCents)
	assert.Equal(t, minted, m.TotalYesShares+m.TotalNoShares)
}

func TestConcurrentClaimsSingleWinner(t *testing.T) {
	l, clock, funds, _ := newTestLedger(t, testParams())
	ctx := context.Background()
	id, _ := l.CreateMarket(ctx, "alice", "chove amanhã?", "", 24*time.Hour)
	_, _ = l.PlaceBet(ctx, id, "alice", OutcomeYes, 100, "")
	_, _ = l.PlaceBet(ctx, id, "bob", OutcomeNo, 100, "")
	clock.Advance(25 * time.Hour)
	require.NoError(t, l.Resolve(ctx, id, "resolver", OutcomeYes))

	const attempts = 8
	var wg sync.WaitGroup
	results := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = l.Claim(ctx, id, "alice")
		}(i)
	}
	wg.Wait()

	var ok, already int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyClaimed):
			already++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, already)
	assert.Len(t, funds.calls, 1)
}

func TestParseOutcome(t *testing.T) {
	o, err := ParseOutcome("yes")
	require.NoError(t, err)
	assert.Equal(t, OutcomeYes, o)

	o, err = ParseOutcome("NO")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNo, o)

	_, err = ParseOutcome("maybe")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
