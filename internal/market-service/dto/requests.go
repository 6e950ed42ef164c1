package dto

type CreateMarketRequest struct {
	Question    string `json:"question"`
	Description string `json:"description,omitempty"`
	Duration    string `json:"duration"` // formato do time.ParseDuration, ex: "24h"
}

type PlaceBetRequest struct {
	Outcome    string `json:"outcome"` // "yes" | "no"
	StakeCents int64  `json:"stake_cents"`
}

type ResolveRequest struct {
	Outcome string `json:"outcome"` // "yes" | "no"
}
