package domain

import (
	"errors"
	"time"
)

// RefundStatus represents the lifecycle of a refund transaction.
type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusSucceeded RefundStatus = "succeeded"
	RefundStatusFailed    RefundStatus = "failed"
	RefundStatusCancelled RefundStatus = "cancelled"
)

const RefundReasonEmergency = "emergency"

// RefundTransaction records one cancellation's refund intent and outcome.
// Immutable once the status is terminal.
type RefundTransaction struct {
	ID              string       `json:"id"`
	BookingID       string       `json:"booking_id"`
	OriginalAmount  int64        `json:"original_amount"`
	RefundAmount    int64        `json:"refund_amount"`
	CancellationFee int64        `json:"cancellation_fee"`
	Reason          string       `json:"reason"`
	Status          RefundStatus `json:"status"`
	InitiatedBy     string       `json:"initiated_by"`
	ApprovedBy      *string      `json:"approved_by,omitempty"`
	GatewayRef      *string      `json:"gateway_ref,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"-"`
}

// RefundTier maps a time-before-service window to a cancellation fee.
type RefundTier struct {
	HoursBeforeService int   `json:"hours_before_service"`
	FeePercentage      int64 `json:"fee_percentage"`
}

// CancellationPolicy is the tiered refund schedule for a service category.
type CancellationPolicy struct {
	ServiceCategory string       `json:"service_category"`
	FreeUntilHours  int          `json:"free_until_hours"`
	NoRefundHours   int          `json:"no_refund_hours"`
	Tiers           []RefundTier `json:"tiers"`
}

// Validate rejects obviously broken policies before they are applied.
func (p *CancellationPolicy) Validate() error {
	if p.FreeUntilHours < 0 || p.NoRefundHours < 0 {
		return errors.New("policy thresholds must not be negative")
	}
	if p.NoRefundHours > p.FreeUntilHours {
		return errors.New("no-refund threshold cannot exceed free-cancellation threshold")
	}
	for _, t := range p.Tiers {
		if t.FeePercentage < 0 || t.FeePercentage > 100 {
			return errors.New("tier fee percentage must be within 0-100")
		}
		if t.HoursBeforeService < 0 {
			return errors.New("tier hours must not be negative")
		}
	}
	return nil
}
