package handler

import (
	"encoding/json"
	"time"

	"github.com/lendhub/lending-service/pkg/circuit_breaker"

	"github.com/IBM/sarama"
)

type Enqueuer interface {
	Enqueue(topic string, v any) error
}

// NewEnqueuer wraps the producer in a circuit breaker so a dead
// broker degrades to fast failures instead of blocking every lending
// operation on producer timeouts.
func NewEnqueuer(producer sarama.SyncProducer) Enqueuer {
	return &enqueuerImpl{
		producer: producer,
		cb:       circuit_breaker.New(20, time.Second*30, 0.5, 5),
	}
}

type enqueuerImpl struct {
	producer sarama.SyncProducer
	cb       circuit_breaker.CircuitBreaker
}

func (q *enqueuerImpl) Enqueue(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{Topic: topic, Value: sarama.StringEncoder(data)}
	return q.cb.Call(func() error {
		_, _, err := q.producer.SendMessage(msg)
		return err
	})
}
