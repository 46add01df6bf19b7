package domain

// PaymentSplit is derived at settlement time from a frozen PricingBreakdown.
// Amounts are the source of truth; percentages are informational only and
// never used to recompute amounts.
type PaymentSplit struct {
	PayeeAmount     int64 `json:"payee_amount"`
	TempleAmount    int64 `json:"temple_amount"`
	PlatformAmount  int64 `json:"platform_amount"`
	RetentionAmount int64 `json:"retention_amount"`

	PayeePercentage    float64 `json:"payee_percentage"`
	TemplePercentage   float64 `json:"temple_percentage"`
	PlatformPercentage float64 `json:"platform_percentage"`
}

// Total returns the amount actually distributed (retention already withheld).
func (s *PaymentSplit) Total() int64 {
	return s.PayeeAmount + s.TempleAmount + s.PlatformAmount
}
