package kafka

import (
	"time"

	"github.com/segmentio/kafka-go"
)

type Writer = kafka.Writer

// NewWriter cria um writer síncrono (DLQ, publicações pontuais)
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
}

// NewAsyncWriter cria um writer assíncrono pro caminho quente do market-service:
// a publicação de eventos não pode segurar o ledger
func NewAsyncWriter(brokers []string, topic string) *kafka.Writer {
	w := NewWriter(brokers, topic)
	w.Async = true
	return w
}

// NewReader cria um reader com consumer group
func NewReader(brokers []string, topic string, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})
}
