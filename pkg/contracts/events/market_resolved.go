package events

import "time"

type MarketResolved struct {
	MarketID   uint64    `json:"market_id"`
	Winning    string    `json:"winning"` // "yes" | "no"
	ResolvedBy string    `json:"resolved_by"`
	ResolvedAt time.Time `json:"resolved_at"`
}
