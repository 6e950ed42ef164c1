package amm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteSharesBootstrap(t *testing.T) {
	// mercado vazio: 1 share por centavo
	shares, err := QuoteShares(0, 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), shares)
}

func TestQuoteSharesEmptySideClamp(t *testing.T) {
	// lado NO vazio com YES já populado: preço trava em 0.5, mint 1:1
	shares, err := QuoteShares(0, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), shares)
}

func TestQuoteSharesEvenMarketMintsAtPar(t *testing.T) {
	shares, err := QuoteShares(100, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), shares)
}

func TestQuoteSharesPopularSideCostsMore(t *testing.T) {
	// lado com 75% das shares: preço 0.75, shares = 100*0.5/0.75 = 66 (floor)
	shares, err := QuoteShares(300, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(66), shares)

	// lado com 25%: preço 0.25, shares = 100*0.5/0.25 = 200
	shares, err = QuoteShares(100, 300, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(200), shares)
}

func TestQuoteSharesFloorNeverOverMints(t *testing.T) {
	// 1 centavo num lado a 2/3 do total: 1*0.5/(0.666..) = 0.75 -> floor 0
	shares, err := QuoteShares(200, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), shares)
}

func TestQuoteSharesZeroStake(t *testing.T) {
	shares, err := QuoteShares(100, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), shares)
}

func TestOddsEmptyMarket(t *testing.T) {
	yes, no := Odds(0, 0)
	assert.Equal(t, int64(50), yes)
	assert.Equal(t, int64(50), no)
}

func TestOdds(t *testing.T) {
	yes, no := Odds(100, 0)
	assert.Equal(t, int64(100), yes)
	assert.Equal(t, int64(0), no)

	yes, no = Odds(100, 100)
	assert.Equal(t, int64(50), yes)
	assert.Equal(t, int64(50), no)

	// floor nos dois lados; a soma pode ficar abaixo de 100
	yes, no = Odds(100, 200)
	assert.Equal(t, int64(33), yes)
	assert.Equal(t, int64(66), no)
}
