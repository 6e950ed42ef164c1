// Package fixedpoint implementa aritmética de ponto fixo (escala 1e18) para
// a precificação e o rateio dos mercados. Todas as divisões arredondam para
// baixo (floor); o produto intermediário usa 256 bits, então a*b nunca
// estoura antes da divisão.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// Scale é o fator de escala das frações (1e18, estilo wei)
const Scale uint64 = 1_000_000_000_000_000_000

var (
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
	ErrOverflow       = errors.New("fixedpoint: result does not fit in 64 bits")
)

// MulDiv calcula floor(a*b/c) sem overflow no produto intermediário.
// Retorna ErrOverflow se o resultado final não couber em uint64.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, ErrDivisionByZero
	}
	x := new(uint256.Int).SetUint64(a)
	y := new(uint256.Int).SetUint64(b)
	z := new(uint256.Int).SetUint64(c)

	x.Mul(x, y)
	x.Div(x, z) // floor

	if !x.IsUint64() {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}

// DivScaled calcula a fração a/b em escala 1e18, com floor.
// Ex: DivScaled(1, 2) == Scale/2.
func DivScaled(a, b uint64) (uint64, error) {
	return MulDiv(a, Scale, b)
}
