package domain

import "time"

// ConnectAccountStatus is the internal three-value status derived from the
// payment network's raw sub-account state.
type ConnectAccountStatus string

const (
	ConnectStatusPending    ConnectAccountStatus = "pending"
	ConnectStatusRestricted ConnectAccountStatus = "restricted"
	ConnectStatusEnabled    ConnectAccountStatus = "enabled"
)

// TransferStatus is the internal mapping of the gateway's transfer state.
// Unknown external statuses map to pending, never to a terminal state.
type TransferStatus string

const (
	TransferStatusPending   TransferStatus = "pending"
	TransferStatusInTransit TransferStatus = "in_transit"
	TransferStatusPaid      TransferStatus = "paid"
	TransferStatusFailed    TransferStatus = "failed"
	TransferStatusReversed  TransferStatus = "reversed"
)

// AccountRequirements lists outstanding verification requirements on a
// payee's sub-account, as reported by the gateway.
type AccountRequirements struct {
	CurrentlyDue  []string `json:"currently_due"`
	EventuallyDue []string `json:"eventually_due"`
	PastDue       []string `json:"past_due"`
	Errors        []string `json:"errors,omitempty"`
}

// ConnectAccount tracks onboarding/verification state of a payee's
// sub-account on the external payment network. Records are retained for
// audit even when the payee is deactivated.
type ConnectAccount struct {
	ID              string               `json:"id"`
	PayeeID         string               `json:"payee_id"`
	AccountRef      string               `json:"account_ref"`
	AccountStatus   ConnectAccountStatus `json:"account_status"`
	ChargesEnabled  bool                 `json:"charges_enabled"`
	PayoutsEnabled  bool                 `json:"payouts_enabled"`
	Requirements    AccountRequirements  `json:"requirements"`
	BankAccountLast *string              `json:"bank_account_last,omitempty"`
	LastRefreshedAt *time.Time           `json:"last_refreshed_at,omitempty"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"-"`
}

// ConnectStatusLog captures each observed status transition for audit.
type ConnectStatusLog struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
