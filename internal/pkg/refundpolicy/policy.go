package refundpolicy

import (
	"time"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
)

// Computation is a refund intent. The engine never calls the gateway; the
// caller instructs it and persists the asynchronous outcome.
type Computation struct {
	RefundAmount      int64
	CancellationFee   int64
	HoursUntilService float64
	AppliedTier       *domain.RefundTier
	// ConfigGap is set when no tier matched: a policy-configuration defect
	// resolved by the zero-refund default. Under-refunding is recoverable
	// via support; over-refunding is not. Callers must log it.
	ConfigGap bool
}

// Evaluate applies the tiered cancellation policy, first match wins:
//  1. at or beyond the free threshold: full refund
//  2. inside the no-refund threshold: advance fully retained
//  3. the tier with the largest hours-before-service not exceeding the time
//     remaining (cancelling later never refunds more than cancelling earlier)
//  4. no matching tier: zero refund
func Evaluate(policy *domain.CancellationPolicy, serviceStart, cancelledAt time.Time, advanceAmount int64) *Computation {
	hours := serviceStart.Sub(cancelledAt).Hours()

	comp := &Computation{HoursUntilService: hours}

	if hours >= float64(policy.FreeUntilHours) {
		comp.RefundAmount = advanceAmount
		return comp
	}

	if hours < float64(policy.NoRefundHours) {
		comp.CancellationFee = advanceAmount
		return comp
	}

	tier := selectTier(policy.Tiers, hours)
	if tier == nil {
		comp.CancellationFee = advanceAmount
		comp.ConfigGap = true
		return comp
	}

	fee := roundPercent(advanceAmount, tier.FeePercentage)
	comp.CancellationFee = fee
	comp.RefundAmount = advanceAmount - fee
	comp.AppliedTier = tier
	return comp
}

// selectTier picks the tightest applicable tier: largest hoursBeforeService
// that is ≤ hoursUntilService, ties broken by the higher fee.
func selectTier(tiers []domain.RefundTier, hours float64) *domain.RefundTier {
	var best *domain.RefundTier
	for i := range tiers {
		t := &tiers[i]
		if float64(t.HoursBeforeService) > hours {
			continue
		}
		if best == nil ||
			t.HoursBeforeService > best.HoursBeforeService ||
			(t.HoursBeforeService == best.HoursBeforeService && t.FeePercentage > best.FeePercentage) {
			best = t
		}
	}
	return best
}

// EvaluateEmergency issues a full refund of the advance regardless of tier.
// The bypass requires a non-empty approver identity.
func EvaluateEmergency(advanceAmount int64, approvedBy string) (*Computation, error) {
	if approvedBy == "" {
		return nil, xerrors.ErrApprovalRequired
	}
	return &Computation{RefundAmount: advanceAmount}, nil
}

func roundPercent(amount, pct int64) int64 {
	return (amount*pct + 50) / 100
}
