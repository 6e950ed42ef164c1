package events

type BetPlaced struct {
	MarketID    uint64 `json:"market_id"`
	UserID      string `json:"user_id"`
	Outcome     string `json:"outcome"` // "yes" | "no"
	StakeCents  int64  `json:"stake_cents"`
	Shares      int64  `json:"shares"`
	ReservedRef string `json:"reserved_ref,omitempty"` // external_ref usado na reserva da carteira (betID)

	// Snapshot do mercado após aplicar a aposta (consumido pelo projector)
	TotalYesShares   int64 `json:"total_yes_shares"`
	TotalNoShares    int64 `json:"total_no_shares"`
	TotalStakedCents int64 `json:"total_staked_cents"`
	YesPct           int64 `json:"yes_pct"`
	NoPct            int64 `json:"no_pct"`
}
