package events

// Evento emitido após um claim (payout) ou refund bem-sucedido.
type Claimed struct {
	MarketID   uint64 `json:"market_id"`
	UserID     string `json:"user_id"`
	GrossCents int64  `json:"gross_cents"`
	FeeCents   int64  `json:"fee_cents"`
	NetCents   int64  `json:"net_cents"`
	Refund     bool   `json:"refund"` // true quando veio de claimRefund (mercado cancelado)
}
