package domain

import "time"

// LoyaltyCreditStatus represents the lifecycle of a retention credit.
type LoyaltyCreditStatus string

const (
	LoyaltyCreditStatusActive    LoyaltyCreditStatus = "active"
	LoyaltyCreditStatusExpired   LoyaltyCreditStatus = "expired"
	LoyaltyCreditStatusFullyUsed LoyaltyCreditStatus = "fully_used"
)

// LoyaltyCredit is the retention amount converted into credit after a
// completed booking. Credits are pair-scoped: redeemable only against the
// payee that generated them. Never deleted, only status-transitioned.
type LoyaltyCredit struct {
	ID             string              `json:"id"`
	DevoteeID      string              `json:"devotee_id"`
	PayeeID        string              `json:"payee_id"`
	BookingID      string              `json:"booking_id"`
	OriginalAmount int64               `json:"original_amount"`
	UsedAmount     int64               `json:"used_amount"`
	Status         LoyaltyCreditStatus `json:"status"`
	ExpiresAt      *time.Time          `json:"expires_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"-"`
}

// Remaining returns the redeemable balance.
func (c *LoyaltyCredit) Remaining() int64 {
	return c.OriginalAmount - c.UsedAmount
}

// Expired reports whether the credit is past its expiry at the given time.
func (c *LoyaltyCredit) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
