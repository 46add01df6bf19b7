package gateway

import (
	"context"

	"github.com/google/uuid"
)

// TransferRequest instructs the payment network to move settled funds to a
// payee's sub-account. The idempotency key makes retries safe: the network
// executes at most one movement per key.
type TransferRequest struct {
	Amount         int64             `json:"amount"` // minor units
	Currency       string            `json:"currency"`
	DestinationRef string            `json:"destination_ref"`
	IdempotencyKey string            `json:"-"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}

type TransferResult struct {
	TransferRef string `json:"transfer_ref"`
	Status      string `json:"status"` // raw network status
}

// RefundRequest reverses (part of) an original charge.
type RefundRequest struct {
	ChargeRef      string `json:"charge_ref"`
	Amount         int64  `json:"amount"`
	Reason         string `json:"reason"`
	IdempotencyKey string `json:"-"`
}

type RefundResult struct {
	RefundRef string `json:"refund_ref"`
	Status    string `json:"status"`
}

// AccountRequest starts sub-account onboarding for a payee.
type AccountRequest struct {
	PayeeID string `json:"payee_id"`
	Email   string `json:"email,omitempty"`
	Country string `json:"country,omitempty"`
}

type AccountResult struct {
	AccountRef    string `json:"account_ref"`
	OnboardingURL string `json:"onboarding_url,omitempty"`
}

// RawAccountState is the network's view of a sub-account, mapped into the
// internal status machine by the connect usecase.
type RawAccountState struct {
	AccountRef     string   `json:"account_ref"`
	ChargesEnabled bool     `json:"charges_enabled"`
	PayoutsEnabled bool     `json:"payouts_enabled"`
	CurrentlyDue   []string `json:"currently_due"`
	EventuallyDue  []string `json:"eventually_due"`
	PastDue        []string `json:"past_due"`
	Errors         []string `json:"errors,omitempty"`
	BankLast4      *string  `json:"bank_last4,omitempty"`
	DisabledReason *string  `json:"disabled_reason,omitempty"`
}

// PaymentGateway is the boundary to the external payment-processing network.
// Implementations may fail or time out; every money-moving call must be
// idempotent under retry. This core never retries internally.
type PaymentGateway interface {
	CreateTransfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	CreateRefund(ctx context.Context, req RefundRequest) (*RefundResult, error)
	GetAccountStatus(ctx context.Context, accountRef string) (*RawAccountState, error)
	CreateAccount(ctx context.Context, req AccountRequest) (*AccountResult, error)
}

// idempotencyNamespace scopes derived keys to this service.
var idempotencyNamespace = uuid.MustParse("7a1d3e52-9c4b-4f7e-8d2a-5b6f0c9e1a44")

// IdempotencyKey derives a stable key from (bookingID, operationKind) so a
// retried call can never double-pay.
func IdempotencyKey(bookingID, operationKind string) string {
	return uuid.NewSHA1(idempotencyNamespace, []byte(bookingID+":"+operationKind)).String()
}
