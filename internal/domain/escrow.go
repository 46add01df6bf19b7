package domain

import "time"

// EscrowStatus represents the lifecycle of a per-booking escrow hold.
type EscrowStatus string

const (
	EscrowStatusScheduled     EscrowStatus = "scheduled"
	EscrowStatusReleasedEarly EscrowStatus = "released_early"
	EscrowStatusReleased      EscrowStatus = "released"
	EscrowStatusFailed        EscrowStatus = "failed"
)

// EscrowRecord tracks the hold between service completion and fund release.
// At most one active record exists per booking; only the escrow usecase
// mutates it, and release/failed are terminal.
type EscrowRecord struct {
	ID                 string       `json:"id"`
	BookingID          string       `json:"booking_id"`
	PayeeID            string       `json:"payee_id"`
	Amount             int64        `json:"amount"` // payee share in minor units
	HoldStartedAt      time.Time    `json:"hold_started_at"`
	ScheduledReleaseAt time.Time    `json:"scheduled_release_at"`
	ReleasedAt         *time.Time   `json:"released_at,omitempty"`
	TransferRef        *string      `json:"transfer_ref,omitempty"`
	FailureReason      *string      `json:"failure_reason,omitempty"`
	Status             EscrowStatus `json:"status"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"-"`
}

// Terminal reports whether the record can no longer change.
func (e *EscrowRecord) Terminal() bool {
	switch e.Status {
	case EscrowStatusReleased, EscrowStatusReleasedEarly:
		return true
	}
	return false
}

// EligibilityResult is the outcome of the early-release gate. Failing
// criteria are user-facing reasons, not errors.
type EligibilityResult struct {
	Eligible bool     `json:"eligible"`
	Reasons  []string `json:"reasons,omitempty"`
	Stats    PayeeStats `json:"stats"`
}
