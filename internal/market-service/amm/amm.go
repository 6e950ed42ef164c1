// Package amm contém a função de precificação dos mercados binários: converte
// o valor apostado em shares de um resultado, sem order book. Funções puras;
// quem chama aplica o delta no ledger.
package amm

import (
	"math"

	"github.com/radieske/prediction-market-poc/internal/market-service/fixedpoint"
)

// QuoteShares calcula quantas shares uma aposta de stakeCents compra no lado
// escolhido, dado o total de shares já emitidas em cada lado.
//
// Regras (o floor e o clamp fazem parte da semântica de rateio, não de estilo):
//   - mercado vazio: bootstrap 1 share por unidade de stake (preço 0.5)
//   - preço do lado = sideShares / (sideShares + otherShares), escala 1e18
//   - preço zero (lado ainda vazio) trava em 0.5
//   - shares = stake * 0.5 / preço, com floor: emissão ao par quando o lado
//     está em 50%, mais cara conforme o lado acumula stake
//
// Retornar zero shares não é erro aqui; o ledger rejeita o mint degenerado.
func QuoteShares(sideShares, otherShares, stakeCents int64) (int64, error) {
	if stakeCents <= 0 {
		return 0, nil
	}
	total := uint64(sideShares) + uint64(otherShares)
	if total == 0 {
		return stakeCents, nil
	}

	price, err := fixedpoint.DivScaled(uint64(sideShares), total)
	if err != nil {
		return 0, err
	}
	if price == 0 {
		price = fixedpoint.Scale / 2
	}

	shares, err := fixedpoint.MulDiv(uint64(stakeCents), fixedpoint.Scale/2, price)
	if err != nil {
		return 0, err
	}
	if shares > math.MaxInt64 {
		return 0, fixedpoint.ErrOverflow
	}
	return int64(shares), nil
}

// Odds retorna o percentual de cada lado (floor). Mercado vazio: 50/50.
func Odds(yesShares, noShares int64) (yesPct, noPct int64) {
	total := uint64(yesShares) + uint64(noShares)
	if total == 0 {
		return 50, 50
	}
	yp, _ := fixedpoint.MulDiv(uint64(yesShares), 100, total)
	np, _ := fixedpoint.MulDiv(uint64(noShares), 100, total)
	return int64(yp), int64(np)
}
