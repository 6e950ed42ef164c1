package events

import "encoding/json"

// Tipos de evento publicados no tópico market_events
const (
	TypeMarketCreated   = "market_created"
	TypeBetPlaced       = "bet_placed"
	TypeMarketResolved  = "market_resolved"
	TypeMarketCancelled = "market_cancelled"
	TypeClaimed         = "claimed"
)

// Envelope é o formato único de mensagem no tópico market_events.
// Payload carrega o evento concreto conforme o campo Type.
type Envelope struct {
	Type     string          `json:"type"`
	MarketID uint64          `json:"market_id"`
	TsUnixMs int64           `json:"ts_unix_ms"`
	Payload  json.RawMessage `json:"payload"`
}
