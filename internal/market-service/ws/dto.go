package ws

import "encoding/json"

// ClientMsg é a mensagem de controle enviada pelo cliente WebSocket
type ClientMsg struct {
	Type     string `json:"type"` // "subscribe" | "unsubscribe" | "ping"
	MarketID uint64 `json:"market_id"`
}

// OddsUpdate é o payload repassado aos clientes inscritos num mercado
type OddsUpdate struct {
	MarketID uint64          `json:"market_id"`
	Payload  json.RawMessage `json:"payload"`
}
