package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/bouncehire/rentals/internal/domain"
)

// KafkaNotifier publishes booking events to a single topic, keyed by booking
// id so per-booking ordering is preserved within a partition.
type KafkaNotifier struct {
	writer *kafka.Writer
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
}

type bookingEvent struct {
	Type          string    `json:"type"`
	BookingID     string    `json:"booking_id"`
	BookingNumber string    `json:"booking_number"`
	UserID        string    `json:"user_id"`
	Status        string    `json:"status"`
	TotalPence    int64     `json:"total_pence"`
	OccurredAt    time.Time `json:"occurred_at"`
}

func (n *KafkaNotifier) Publish(ctx context.Context, eventType string, booking domain.Booking) error {
	payload, err := json.Marshal(bookingEvent{
		Type:          eventType,
		BookingID:     booking.ID,
		BookingNumber: booking.Number,
		UserID:        booking.UserID,
		Status:        string(booking.Status),
		TotalPence:    booking.Total,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal booking event: %w", err)
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(booking.ID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
