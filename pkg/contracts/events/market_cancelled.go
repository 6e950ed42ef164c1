package events

import "time"

type MarketCancelled struct {
	MarketID    uint64    `json:"market_id"`
	CancelledBy string    `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}
