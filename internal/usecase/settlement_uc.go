package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"settlement-service/internal/domain"
	"settlement-service/internal/pkg/pricing"
	"settlement-service/internal/pkg/refundpolicy"
	xerrors "settlement-service/internal/pkg/xerrors"
	"settlement-service/internal/provider/gateway"
	publisher "settlement-service/internal/pub"
	"settlement-service/internal/repository"
	"settlement-service/pkg/utils"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const policyCacheTTL = 5 * time.Minute

// SettlementUsecase is the booking-settlement workflow: on completion the
// frozen breakdown is re-validated, the split computed, retention converted
// to credit and the escrow hold scheduled; on cancellation the refund policy
// runs instead and escrow is short-circuited.
type SettlementUsecase struct {
	bookingRepo repository.BookingRepository
	payeeRepo   repository.PayeeRepository
	refundRepo  repository.RefundRepository
	policyRepo  repository.PolicyRepository

	escrowUC  *EscrowUsecase
	loyaltyUC *LoyaltyUsecase

	splitCalc *pricing.SplitCalculator
	builder   *pricing.BreakdownBuilder

	gw          gateway.PaymentGateway
	pub         *publisher.SettlementEventPublisher
	redisClient *redis.Client
	refgen      *utils.RefGenerator
	clock       Clock
}

func NewSettlementUsecase(
	bookingRepo repository.BookingRepository,
	payeeRepo repository.PayeeRepository,
	refundRepo repository.RefundRepository,
	policyRepo repository.PolicyRepository,
	escrowUC *EscrowUsecase,
	loyaltyUC *LoyaltyUsecase,
	splitCalc *pricing.SplitCalculator,
	builder *pricing.BreakdownBuilder,
	gw gateway.PaymentGateway,
	pub *publisher.SettlementEventPublisher,
	redisClient *redis.Client,
	refgen *utils.RefGenerator,
	clock Clock,
) *SettlementUsecase {
	return &SettlementUsecase{
		bookingRepo: bookingRepo,
		payeeRepo:   payeeRepo,
		refundRepo:  refundRepo,
		policyRepo:  policyRepo,
		escrowUC:    escrowUC,
		loyaltyUC:   loyaltyUC,
		splitCalc:   splitCalc,
		builder:     builder,
		gw:          gw,
		pub:         pub,
		redisClient: redisClient,
		refgen:      refgen,
		clock:       clock,
	}
}

// SettlementOutcome is what completing a booking produced.
type SettlementOutcome struct {
	BookingID string                `json:"booking_id"`
	Split     *domain.PaymentSplit  `json:"split"`
	Escrow    *domain.EscrowRecord  `json:"escrow"`
	Credit    *domain.LoyaltyCredit `json:"credit,omitempty"`
}

// HandleBookingCompleted runs the settlement workflow for a completed
// booking: validate the frozen breakdown, compute the split, convert
// retention into loyalty credit, schedule the escrow release.
func (uc *SettlementUsecase) HandleBookingCompleted(ctx context.Context, bookingID string) (*SettlementOutcome, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case domain.BookingStatusConfirmed:
		if err := uc.bookingRepo.UpdateStatus(ctx, bookingID, domain.BookingStatusCompleted); err != nil {
			return nil, err
		}
		booking.Status = domain.BookingStatusCompleted
	case domain.BookingStatusCompleted:
		// settlement retry, proceed
	default:
		return nil, xerrors.ErrBookingNotCompleted
	}

	if err := booking.Pricing.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrPricingNotFrozen, err)
	}

	payee, err := uc.payeeRepo.GetByID(ctx, booking.PayeeID)
	if err != nil {
		return nil, err
	}

	split, err := uc.splitCalc.Calculate(pricing.SplitInput{
		FinalPrice:         booking.Pricing.FinalPrice,
		RetentionAmount:    booking.Pricing.RetentionAmount,
		PayeeCategory:      payee.Category,
		TempleSharePercent: payee.TempleSharePercent,
	})
	if err != nil {
		return nil, err
	}

	credit, err := uc.loyaltyUC.IssueFromRetention(ctx, booking)
	if err != nil {
		return nil, err
	}

	completion := uc.clock.Now()
	if booking.CompletedAt != nil {
		completion = *booking.CompletedAt
	}

	escrow, err := uc.escrowUC.ScheduleRelease(ctx, booking.ID, booking.PayeeID, split.PayeeAmount, completion)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id":      bookingID,
		"payee_amount":    split.PayeeAmount,
		"temple_amount":   split.TempleAmount,
		"platform_amount": split.PlatformAmount,
		"retention":       split.RetentionAmount,
		"release_at":      escrow.ScheduledReleaseAt,
	}).Info("booking settled")

	return &SettlementOutcome{
		BookingID: bookingID,
		Split:     split,
		Escrow:    escrow,
		Credit:    credit,
	}, nil
}

// HandleBookingCancelled computes the tiered refund, records the refund
// transaction and instructs the gateway. Escrow never starts for a
// cancelled booking.
func (uc *SettlementUsecase) HandleBookingCancelled(ctx context.Context, bookingID, reason, initiatedBy string) (*domain.RefundTransaction, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusRequested && booking.Status != domain.BookingStatusConfirmed {
		return nil, xerrors.ErrBookingNotCancelable
	}

	policy, err := uc.cancellationPolicy(ctx, booking.ServiceCategory)
	if err != nil {
		return nil, err
	}

	comp := refundpolicy.Evaluate(policy, booking.ScheduledStart, uc.clock.Now(), booking.Pricing.AdvanceAmount)
	if comp.ConfigGap {
		logrus.WithFields(logrus.Fields{
			"booking_id":       bookingID,
			"service_category": booking.ServiceCategory,
			"hours_until":      comp.HoursUntilService,
		}).Error("cancellation policy has no matching tier, defaulting to zero refund")
	}

	return uc.executeRefund(ctx, booking, comp, reason, initiatedBy, nil)
}

// EmergencyRefund bypasses the tier schedule entirely and refunds the full
// advance. Requires an approver identity. Only pre-completion bookings
// qualify: once settlement has run, an escrow hold for the payee share is
// already scheduled and refunding the advance on top would pay out twice.
func (uc *SettlementUsecase) EmergencyRefund(ctx context.Context, bookingID, approvedBy, initiatedBy string) (*domain.RefundTransaction, error) {
	booking, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != domain.BookingStatusRequested && booking.Status != domain.BookingStatusConfirmed {
		return nil, xerrors.ErrBookingNotCancelable
	}

	comp, err := refundpolicy.EvaluateEmergency(booking.Pricing.AdvanceAmount, approvedBy)
	if err != nil {
		return nil, err
	}

	return uc.executeRefund(ctx, booking, comp, domain.RefundReasonEmergency, initiatedBy, &approvedBy)
}

func (uc *SettlementUsecase) executeRefund(
	ctx context.Context,
	booking *domain.Booking,
	comp *refundpolicy.Computation,
	reason, initiatedBy string,
	approvedBy *string,
) (*domain.RefundTransaction, error) {
	refund := &domain.RefundTransaction{
		ID:              uc.refgen.GenerateRefundRef(),
		BookingID:       booking.ID,
		OriginalAmount:  booking.Pricing.AdvanceAmount,
		RefundAmount:    comp.RefundAmount,
		CancellationFee: comp.CancellationFee,
		Reason:          reason,
		Status:          domain.RefundStatusPending,
		InitiatedBy:     initiatedBy,
		ApprovedBy:      approvedBy,
	}

	if err := uc.refundRepo.Create(ctx, refund); err != nil {
		return nil, err
	}

	if err := uc.bookingRepo.UpdateStatus(ctx, booking.ID, domain.BookingStatusCancelled); err != nil {
		return nil, err
	}

	if comp.RefundAmount > 0 && booking.ChargeRef != nil {
		result, err := uc.gw.CreateRefund(ctx, gateway.RefundRequest{
			ChargeRef:      *booking.ChargeRef,
			Amount:         comp.RefundAmount,
			Reason:         reason,
			IdempotencyKey: gateway.IdempotencyKey(booking.ID, "refund"),
		})
		if err != nil {
			// Typed failure for the orchestrator; retrying with the same
			// idempotency key is safe.
			_ = uc.refundRepo.UpdateStatus(ctx, refund.ID, domain.RefundStatusFailed, nil)
			refund.Status = domain.RefundStatusFailed
			_ = uc.pub.PublishRefundCreated(ctx, booking.ID, booking.DevoteeID, reason, string(refund.Status), comp.RefundAmount, comp.CancellationFee)
			return refund, err
		}

		refund.GatewayRef = &result.RefundRef
		if result.Status == "succeeded" {
			refund.Status = domain.RefundStatusSucceeded
		}
		if err := uc.refundRepo.UpdateStatus(ctx, refund.ID, refund.Status, refund.GatewayRef); err != nil {
			return nil, err
		}
	} else {
		// Nothing will ever move for a zero refund or an uncharged advance,
		// so the transaction is terminal immediately.
		refund.Status = domain.RefundStatusSucceeded
		if err := uc.refundRepo.UpdateStatus(ctx, refund.ID, refund.Status, nil); err != nil {
			return nil, err
		}
	}

	_ = uc.pub.PublishRefundCreated(ctx, booking.ID, booking.DevoteeID, reason, string(refund.Status), comp.RefundAmount, comp.CancellationFee)

	logrus.WithFields(logrus.Fields{
		"booking_id":       booking.ID,
		"refund_amount":    comp.RefundAmount,
		"cancellation_fee": comp.CancellationFee,
		"reason":           reason,
	}).Info("refund recorded")

	return refund, nil
}

// QuotePricing computes a full breakdown for a prospective booking.
func (uc *SettlementUsecase) QuotePricing(in pricing.BreakdownInput) (*domain.PricingBreakdown, error) {
	return uc.builder.Build(in)
}

// GetRefund returns the latest refund transaction for a booking.
func (uc *SettlementUsecase) GetRefund(ctx context.Context, bookingID string) (*domain.RefundTransaction, error) {
	return uc.refundRepo.GetByBookingID(ctx, bookingID)
}

// cancellationPolicy loads the category's policy through a short-lived redis
// cache; policies are stable so the cache takes most reads.
func (uc *SettlementUsecase) cancellationPolicy(ctx context.Context, category string) (*domain.CancellationPolicy, error) {
	cacheKey := "settlement:policy:" + category

	if uc.redisClient != nil {
		if val, err := uc.redisClient.Get(ctx, cacheKey).Result(); err == nil {
			var cached domain.CancellationPolicy
			if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
				return &cached, nil
			}
		}
	}

	policy, err := uc.policyRepo.GetByServiceCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	if uc.redisClient != nil {
		if data, err := json.Marshal(policy); err == nil {
			_ = uc.redisClient.Set(ctx, cacheKey, data, policyCacheTTL).Err()
		}
	}

	return policy, nil
}
