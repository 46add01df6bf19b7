package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	SettlementEventsChannel = "settlement_events"
)

// SettlementEventPublisher fans settlement events out to the redis pub/sub
// channel consumed by the notification layer and, best effort, to kafka for
// downstream analytics. Either sink may be nil.
type SettlementEventPublisher struct {
	rdb    *redis.Client
	writer *kafka.Writer
}

func NewSettlementEventPublisher(rdb *redis.Client, writer *kafka.Writer) *SettlementEventPublisher {
	return &SettlementEventPublisher{rdb: rdb, writer: writer}
}

type SettlementEvent struct {
	EventType   string                 `json:"event_type"` // escrow.scheduled, escrow.released, refund.created, ...
	BookingID   string                 `json:"booking_id"`
	PayeeID     string                 `json:"payee_id,omitempty"`
	DevoteeID   string                 `json:"devotee_id,omitempty"`
	Amount      int64                  `json:"amount,omitempty"` // minor units
	Currency    string                 `json:"currency,omitempty"`
	Status      string                 `json:"status,omitempty"`
	TransferRef string                 `json:"transfer_ref,omitempty"`
	ErrorMessage string                `json:"error_message,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Timestamp   time.Time              `json:"timestamp"`
}

// Publish sends an event to both sinks. A kafka failure never fails the
// settlement operation that emitted the event.
func (p *SettlementEventPublisher) Publish(ctx context.Context, event *SettlementEvent) error {
	event.Timestamp = time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if p.rdb != nil {
		if err := p.rdb.Publish(ctx, SettlementEventsChannel, payload).Err(); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}
	}

	if p.writer != nil {
		msg := kafka.Message{
			Key:   []byte(event.BookingID),
			Value: payload,
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			logrus.WithError(err).WithField("event_type", event.EventType).
				Warn("kafka publish failed, event delivered via redis only")
		}
	}

	return nil
}

// PublishEscrowScheduled announces a new or rescheduled escrow hold.
func (p *SettlementEventPublisher) PublishEscrowScheduled(ctx context.Context, bookingID, payeeID string, amount int64, releaseAt time.Time) error {
	return p.Publish(ctx, &SettlementEvent{
		EventType: "escrow.scheduled",
		BookingID: bookingID,
		PayeeID:   payeeID,
		Amount:    amount,
		Status:    "scheduled",
		Metadata:  map[string]interface{}{"release_at": releaseAt},
	})
}

// PublishEscrowReleased announces a completed transfer to the payee.
func (p *SettlementEventPublisher) PublishEscrowReleased(ctx context.Context, bookingID, payeeID, transferRef, status string, amount int64) error {
	return p.Publish(ctx, &SettlementEvent{
		EventType:   "escrow.released",
		BookingID:   bookingID,
		PayeeID:     payeeID,
		Amount:      amount,
		Status:      status,
		TransferRef: transferRef,
	})
}

// PublishEscrowReleaseFailed flags a hold that now needs operator attention.
func (p *SettlementEventPublisher) PublishEscrowReleaseFailed(ctx context.Context, bookingID, payeeID, errMsg string, amount int64) error {
	return p.Publish(ctx, &SettlementEvent{
		EventType:    "escrow.release_failed",
		BookingID:    bookingID,
		PayeeID:      payeeID,
		Amount:       amount,
		Status:       "failed",
		ErrorMessage: errMsg,
	})
}

// PublishRefundCreated announces a refund intent sent to the gateway.
func (p *SettlementEventPublisher) PublishRefundCreated(ctx context.Context, bookingID, devoteeID, reason, status string, refundAmount, fee int64) error {
	return p.Publish(ctx, &SettlementEvent{
		EventType: "refund.created",
		BookingID: bookingID,
		DevoteeID: devoteeID,
		Amount:    refundAmount,
		Status:    status,
		Metadata:  map[string]interface{}{"cancellation_fee": fee, "reason": reason},
	})
}

// PublishCreditIssued announces retention converted into loyalty credit.
func (p *SettlementEventPublisher) PublishCreditIssued(ctx context.Context, bookingID, devoteeID, payeeID string, amount int64) error {
	return p.Publish(ctx, &SettlementEvent{
		EventType: "credit.issued",
		BookingID: bookingID,
		DevoteeID: devoteeID,
		PayeeID:   payeeID,
		Amount:    amount,
		Status:    "active",
	})
}

// PublishCreditRedeemed announces a redemption against the pair's credits.
func (p *SettlementEventPublisher) PublishCreditRedeemed(ctx context.Context, devoteeID, payeeID string, amount int64) error {
	return p.Publish(ctx, &SettlementEvent{
		EventType: "credit.redeemed",
		DevoteeID: devoteeID,
		PayeeID:   payeeID,
		Amount:    amount,
		Status:    "redeemed",
	})
}
