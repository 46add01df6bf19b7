package domain

import (
	"errors"
	"time"
)

// BookingStatus represents possible states of a booking.
type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusDisputed  BookingStatus = "disputed"
)

// PayeeCategory determines how a booking's settlement is split.
type PayeeCategory string

const (
	PayeeCategoryIndependent PayeeCategory = "independent"
	PayeeCategoryEmployee    PayeeCategory = "employee"
	PayeeCategoryOwner       PayeeCategory = "owner"
)

// Booking is the unit of settlement. Pricing is frozen at confirmation;
// status transitions are append-only.
type Booking struct {
	ID              string           `json:"id"`
	DevoteeID       string           `json:"devotee_id"`
	PayeeID         string           `json:"payee_id"`
	ServiceID       string           `json:"service_id"`
	ServiceCategory string           `json:"service_category"`
	ScheduledStart  time.Time        `json:"scheduled_start"`
	ScheduledEnd    *time.Time       `json:"scheduled_end,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	Pricing         PricingBreakdown `json:"pricing"`
	AdvanceCharged  bool             `json:"advance_charged"`
	ChargeRef       *string          `json:"charge_ref,omitempty"`
	Status          BookingStatus    `json:"status"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"-"`
}

// PricingBreakdown is computed once at confirmation and never mutated.
// All amounts are in minor currency units (cents).
type PricingBreakdown struct {
	ServicePrice      int64 `json:"service_price"`
	TravelFee         int64 `json:"travel_fee"`
	DiscountApplied   int64 `json:"discount_applied"`
	LoyaltyCreditUsed int64 `json:"loyalty_credit_used"`
	Subtotal          int64 `json:"subtotal"`
	PlatformFee       int64 `json:"platform_fee"`
	TempleShare       int64 `json:"temple_share"`
	PayeeEarnings     int64 `json:"payee_earnings"`
	FinalPrice        int64 `json:"final_price"`
	AdvanceAmount     int64 `json:"advance_amount"`
	RemainingAmount   int64 `json:"remaining_amount"`
	RetentionAmount   int64 `json:"retention_amount"`
}

// Validate checks the frozen-breakdown invariants before settlement.
func (p *PricingBreakdown) Validate() error {
	if p.ServicePrice < 0 || p.TravelFee < 0 || p.DiscountApplied < 0 {
		return errors.New("pricing amounts must not be negative")
	}
	if p.Subtotal != p.ServicePrice+p.TravelFee {
		return errors.New("subtotal does not match service price plus travel fee")
	}
	if p.FinalPrice != p.Subtotal-p.DiscountApplied {
		return errors.New("final price does not match subtotal minus discount")
	}
	if p.AdvanceAmount+p.RemainingAmount != p.FinalPrice {
		return errors.New("advance and remaining amounts do not sum to final price")
	}
	if p.RetentionAmount > p.FinalPrice {
		return errors.New("retention amount exceeds final price")
	}
	return nil
}

// Payee is the service provider receiving settlement funds.
type Payee struct {
	ID                   string        `json:"id"`
	Category             PayeeCategory `json:"category"`
	TempleID             *string       `json:"temple_id,omitempty"`
	TempleSharePercent   *int64        `json:"temple_share_percent,omitempty"`
	AverageRating        float64       `json:"average_rating"`
	CompletedBookings    int           `json:"completed_bookings"`
	Verified             bool          `json:"verified"`
	ConnectAccountRef    *string       `json:"connect_account_ref,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
}

// PayeeStats is the track record used by the early-release gate.
type PayeeStats struct {
	AverageRating     float64 `json:"average_rating"`
	CompletedBookings int     `json:"completed_bookings"`
	Verified          bool    `json:"verified"`
	CancellationRate  float64 `json:"cancellation_rate"` // over the most recent window, 0..1
}
