package pricing

import (
	"fmt"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
)

const DefaultPlatformFeePercent int64 = 5

// SplitInput is everything needed to divide a booking's settled amount.
// Amounts are minor currency units.
type SplitInput struct {
	FinalPrice         int64
	RetentionAmount    int64
	PayeeCategory      domain.PayeeCategory
	TempleSharePercent *int64 // only meaningful for employee payees
	PlatformFeePercent int64  // 0 means use the default
}

// SplitCalculator computes how a booking's final price divides among
// platform, temple, priest and loyalty-retention buckets. Pure computation,
// safe to call repeatedly.
type SplitCalculator struct {
	defaultPlatformFeePercent int64
}

func NewSplitCalculator(platformFeePercent int64) *SplitCalculator {
	if platformFeePercent <= 0 {
		platformFeePercent = DefaultPlatformFeePercent
	}
	return &SplitCalculator{defaultPlatformFeePercent: platformFeePercent}
}

// Calculate distributes finalPrice minus retention. The payee always absorbs
// the rounding remainder so the platform and temple are never underpaid.
// Reported percentages are derived for display; amounts are the source of
// truth.
func (c *SplitCalculator) Calculate(in SplitInput) (*domain.PaymentSplit, error) {
	platformPct := in.PlatformFeePercent
	if platformPct == 0 {
		platformPct = c.defaultPlatformFeePercent
	}

	if err := validateSplitInput(in, platformPct); err != nil {
		return nil, err
	}

	amountAfterRetention := in.FinalPrice - in.RetentionAmount

	platformAmount := roundPercent(amountAfterRetention, platformPct)

	var templeAmount int64
	var templePct int64
	if in.PayeeCategory == domain.PayeeCategoryEmployee && in.TempleSharePercent != nil {
		templePct = *in.TempleSharePercent
		templeAmount = roundPercent(amountAfterRetention, templePct)
	}

	payeeAmount := amountAfterRetention - platformAmount - templeAmount

	return &domain.PaymentSplit{
		PayeeAmount:        payeeAmount,
		TempleAmount:       templeAmount,
		PlatformAmount:     platformAmount,
		RetentionAmount:    in.RetentionAmount,
		PayeePercentage:    float64(100 - platformPct - templePct),
		TemplePercentage:   float64(templePct),
		PlatformPercentage: float64(platformPct),
	}, nil
}

func validateSplitInput(in SplitInput, platformPct int64) error {
	if in.FinalPrice < 0 {
		return fmt.Errorf("%w: final price must not be negative", xerrors.ErrInvalidSplitInput)
	}
	if in.RetentionAmount < 0 {
		return fmt.Errorf("%w: retention amount must not be negative", xerrors.ErrInvalidSplitInput)
	}
	if in.RetentionAmount > in.FinalPrice {
		return fmt.Errorf("%w: retention amount exceeds final price", xerrors.ErrInvalidSplitInput)
	}
	if platformPct < 0 || platformPct > 100 {
		return fmt.Errorf("%w: platform fee percentage out of range (0-100): %d", xerrors.ErrInvalidSplitInput, platformPct)
	}
	if in.TempleSharePercent != nil {
		if *in.TempleSharePercent < 0 || *in.TempleSharePercent > 100 {
			return fmt.Errorf("%w: temple share percentage out of range (0-100): %d", xerrors.ErrInvalidSplitInput, *in.TempleSharePercent)
		}
		if platformPct+*in.TempleSharePercent > 100 {
			return fmt.Errorf("%w: platform and temple percentages exceed 100", xerrors.ErrInvalidSplitInput)
		}
	}
	return nil
}

// roundPercent computes amount×pct/100 with half-up rounding in integer
// arithmetic, avoiding float drift on money.
func roundPercent(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}
