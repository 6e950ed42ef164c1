package engine

import (
	"encoding/json"
	"strings"
	"time"
)

// Outcome é o resultado binário de um mercado.
type Outcome uint8

const (
	OutcomeUnset Outcome = iota
	OutcomeYes
	OutcomeNo
)

func (o Outcome) String() string {
	switch o {
	case OutcomeYes:
		return "yes"
	case OutcomeNo:
		return "no"
	default:
		return "unset"
	}
}

// MarshalJSON serializa o outcome como "yes"/"no"/"unset".
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// ParseOutcome aceita "yes"/"no" (case-insensitive); qualquer outra coisa é ErrInvalidInput.
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(s) {
	case "yes":
		return OutcomeYes, nil
	case "no":
		return OutcomeNo, nil
	default:
		return OutcomeUnset, ErrInvalidInput
	}
}

// State é o estado do ciclo de vida de um mercado.
// Só avança OPEN->RESOLVED ou OPEN->CANCELLED, nunca volta.
type State string

const (
	StateOpen      State = "OPEN"
	StateResolved  State = "RESOLVED"
	StateCancelled State = "CANCELLED"
)

// Market é o registro canônico de um mercado binário.
// Imutável após criação exceto totais (enquanto OPEN) e a transição terminal.
type Market struct {
	ID          uint64    `json:"id"`
	Question    string    `json:"question"`
	Description string    `json:"description,omitempty"`
	Creator     string    `json:"creator"`
	OpenUntil   time.Time `json:"open_until"`
	ResolveBy   time.Time `json:"resolve_by"`
	State       State     `json:"state"`
	Winning     Outcome   `json:"winning_outcome"`

	TotalYesShares   int64 `json:"total_yes_shares"`
	TotalNoShares    int64 `json:"total_no_shares"`
	TotalStakedCents int64 `json:"total_staked_cents"`
}

// Position acumula shares e stake de um usuário em um mercado.
// Criada sob demanda na primeira aposta; nunca removida.
type Position struct {
	MarketID         uint64 `json:"market_id"`
	UserID           string `json:"user_id"`
	YesShares        int64  `json:"yes_shares"`
	NoShares         int64  `json:"no_shares"`
	TotalStakedCents int64  `json:"total_staked_cents"`
	Claimed          bool   `json:"claimed"`
}
