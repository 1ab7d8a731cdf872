package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/meridianpay/relay-payment-service/internal/domain"
)

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// PublishPaymentEvent pushes one ledger transition to the bus, keyed by
// merchant so a consumer sees one merchant's payments in order.
func (k *KafkaPublisher) PublishPaymentEvent(event *domain.PaymentEvent, payment *domain.Payment) error {
	msg, err := json.Marshal(PaymentEventMessage{
		PaymentID:   payment.ID,
		PaymentHash: payment.Hash,
		MerchantID:  payment.MerchantID,
		NetworkID:   payment.NetworkID,
		EventType:   event.EventType,
		OldStatus:   string(event.OldStatus),
		NewStatus:   string(event.NewStatus),
		Amount:      payment.Amount.String(),
		TxHash:      payment.TxHash,
		Timestamp:   event.CreatedAt,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(payment.MerchantID),
		Value: msg,
		Time:  time.Now(),
	})
}
