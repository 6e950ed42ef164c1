package dto

type CreateMarketResponse struct {
	MarketID uint64 `json:"market_id"`
}

type PlaceBetResponse struct {
	BetID  string `json:"betId"`
	Shares int64  `json:"shares"`
	YesPct int64  `json:"yes_pct"`
	NoPct  int64  `json:"no_pct"`
}

type OddsResponse struct {
	MarketID uint64 `json:"market_id"`
	YesPct   int64  `json:"yes_pct"`
	NoPct    int64  `json:"no_pct"`
}

type ClaimResponse struct {
	NetCents int64 `json:"net_cents"`
}

type RefundResponse struct {
	AmountCents int64 `json:"amount_cents"`
}

type PayoutResponse struct {
	AmountCents int64 `json:"amount_cents"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
