package xerrors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func ParsePGErrorCode(err error) string {
	if pgErr, ok := err.(*pgconn.PgError); ok {
		return pgErr.Code // e.g. 23505 for unique_violation
	}
	return "unknown"
}

// Generic
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalServer = errors.New("internal server error")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrNotFound       = errors.New("not found")
)

// Pricing / split
var (
	ErrInvalidSplitInput   = errors.New("invalid split input")
	ErrInvalidPricingInput = errors.New("invalid pricing input")
)

// Refunds
var (
	ErrApprovalRequired     = errors.New("approval required for emergency refund")
	ErrRefundAlreadyExists  = errors.New("refund already recorded for booking")
	ErrBookingNotCancelable = errors.New("booking cannot be cancelled in its current status")
)

// Escrow
var (
	ErrNotEligibleForEarlyRelease = errors.New("not eligible for early release")
	ErrEscrowNotFound             = errors.New("no escrow record for booking")
	ErrEscrowTerminal             = errors.New("escrow record already released")
	ErrEscrowNotScheduled         = errors.New("escrow record is not in scheduled state")
)

// Connect accounts / payouts
var (
	ErrPayoutsDisabled       = errors.New("payee account is not payout capable")
	ErrConnectAccountMissing = errors.New("payee has no connect account")
	ErrAlreadyOnboarded      = errors.New("payee already has a connect account")
)

// Bookings
var (
	ErrBookingNotFound     = errors.New("booking not found")
	ErrBookingNotCompleted = errors.New("booking is not completed")
	ErrPricingNotFrozen    = errors.New("booking pricing breakdown failed validation")
)

// Loyalty
var (
	ErrCreditNotFound = errors.New("no active loyalty credit for devotee/payee pair")
	ErrCreditExpired  = errors.New("loyalty credit expired")
)
