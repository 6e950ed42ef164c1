package producer

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-poc/pkg/contracts/events"
)

// KafkaSink publica as notificações do ledger no tópico market_events.
// Fire-and-forget: erro de publicação vira log warn, nunca volta pro core.
// O writer deve estar com Async habilitado para não bloquear o caminho quente.
type KafkaSink struct {
	log    *zap.Logger
	writer *kafka.Writer
}

func NewKafkaSink(log *zap.Logger, w *kafka.Writer) *KafkaSink {
	return &KafkaSink{log: log, writer: w}
}

func (s *KafkaSink) MarketCreated(ev events.MarketCreated) {
	s.publish(events.TypeMarketCreated, ev.MarketID, ev)
}

func (s *KafkaSink) BetPlaced(ev events.BetPlaced) {
	s.publish(events.TypeBetPlaced, ev.MarketID, ev)
}

func (s *KafkaSink) MarketResolved(ev events.MarketResolved) {
	s.publish(events.TypeMarketResolved, ev.MarketID, ev)
}

func (s *KafkaSink) MarketCancelled(ev events.MarketCancelled) {
	s.publish(events.TypeMarketCancelled, ev.MarketID, ev)
}

func (s *KafkaSink) Claimed(ev events.Claimed) {
	s.publish(events.TypeClaimed, ev.MarketID, ev)
}

// publish envelopa e envia; a chave da mensagem é o marketId pra preservar a
// ordem por mercado na partição.
func (s *KafkaSink) publish(typ string, marketID uint64, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		s.log.Warn("event marshal failed", zap.String("type", typ), zap.Error(err))
		return
	}
	env := events.Envelope{
		Type:     typ,
		MarketID: marketID,
		TsUnixMs: time.Now().UnixMilli(),
		Payload:  b,
	}
	eb, _ := json.Marshal(env)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(marketID, 10)),
		Value: eb,
	}); err != nil {
		s.log.Warn("event publish failed", zap.String("type", typ), zap.Error(err))
	}
}
