package events

import "time"

type MarketCreated struct {
	MarketID    uint64    `json:"market_id"`
	Creator     string    `json:"creator"`
	Question    string    `json:"question"`
	Description string    `json:"description,omitempty"`
	OpenUntil   time.Time `json:"open_until"`
	ResolveBy   time.Time `json:"resolve_by"`
}
