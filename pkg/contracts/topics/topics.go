package topics

const (
	// Eventos do ciclo de vida dos mercados (created, bet_placed, resolved, cancelled, claimed)
	MarketEvents = "market_events"

	// DLQ
	MarketEventsDLQ = "market_events_dlq"
)
