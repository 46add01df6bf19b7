package usecase

import (
	"context"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
	publisher "settlement-service/internal/pub"
	"settlement-service/internal/repository"
	"settlement-service/pkg/utils"

	"github.com/sirupsen/logrus"
)

// LoyaltyUsecase converts retention amounts into pair-scoped credits and
// records redemptions. Issuing and redeeming are separate steps: applying a
// credit at quote time does not touch the ledger (Scenario: the breakdown
// caps the discount, redemption records usage afterwards).
type LoyaltyUsecase struct {
	repo       repository.LoyaltyRepository
	pub        *publisher.SettlementEventPublisher
	refgen     *utils.RefGenerator
	clock      Clock
	expiryDays int // 0 = credits never expire
}

func NewLoyaltyUsecase(
	repo repository.LoyaltyRepository,
	pub *publisher.SettlementEventPublisher,
	refgen *utils.RefGenerator,
	clock Clock,
	expiryDays int,
) *LoyaltyUsecase {
	return &LoyaltyUsecase{
		repo:       repo,
		pub:        pub,
		refgen:     refgen,
		clock:      clock,
		expiryDays: expiryDays,
	}
}

// IssueFromRetention creates the credit for a completed booking's retention
// amount. Returns nil when the booking retained nothing.
func (uc *LoyaltyUsecase) IssueFromRetention(ctx context.Context, booking *domain.Booking) (*domain.LoyaltyCredit, error) {
	amount := booking.Pricing.RetentionAmount
	if amount <= 0 {
		return nil, nil
	}

	credit := &domain.LoyaltyCredit{
		ID:             uc.refgen.GenerateCreditRef(),
		DevoteeID:      booking.DevoteeID,
		PayeeID:        booking.PayeeID,
		BookingID:      booking.ID,
		OriginalAmount: amount,
		Status:         domain.LoyaltyCreditStatusActive,
	}
	if uc.expiryDays > 0 {
		expires := uc.clock.Now().AddDate(0, 0, uc.expiryDays)
		credit.ExpiresAt = &expires
	}

	if err := uc.repo.Create(ctx, credit); err != nil {
		return nil, err
	}

	_ = uc.pub.PublishCreditIssued(ctx, booking.ID, booking.DevoteeID, booking.PayeeID, amount)

	logrus.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"devotee_id": booking.DevoteeID,
		"payee_id":   booking.PayeeID,
		"amount":     amount,
	}).Info("loyalty credit issued from retention")

	return credit, nil
}

// AvailableBalance sums the pair's redeemable credit, skipping anything past
// expiry.
func (uc *LoyaltyUsecase) AvailableBalance(ctx context.Context, devoteeID, payeeID string) (int64, error) {
	credits, err := uc.repo.GetActiveByPair(ctx, devoteeID, payeeID)
	if err != nil {
		return 0, err
	}

	now := uc.clock.Now()
	var total int64
	for _, c := range credits {
		if c.Expired(now) {
			continue
		}
		total += c.Remaining()
	}
	return total, nil
}

// Redeem records usage against the pair's credits, oldest first. Expired
// credits encountered on the way are transitioned rather than silently
// skipped. Returns the amount actually applied, capped at availability.
func (uc *LoyaltyUsecase) Redeem(ctx context.Context, devoteeID, payeeID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, xerrors.ErrInvalidRequest
	}

	credits, err := uc.repo.GetActiveByPair(ctx, devoteeID, payeeID)
	if err != nil {
		return 0, err
	}
	if len(credits) == 0 {
		return 0, xerrors.ErrCreditNotFound
	}

	now := uc.clock.Now()
	var applied int64

	for _, c := range credits {
		if applied >= amount {
			break
		}
		if c.Expired(now) {
			if err := uc.repo.MarkExpired(ctx, c.ID); err != nil {
				return applied, err
			}
			continue
		}

		take := c.Remaining()
		if take > amount-applied {
			take = amount - applied
		}
		if take <= 0 {
			continue
		}

		used := c.UsedAmount + take
		status := domain.LoyaltyCreditStatusActive
		if used == c.OriginalAmount {
			status = domain.LoyaltyCreditStatusFullyUsed
		}
		if err := uc.repo.RecordRedemption(ctx, c.ID, used, status); err != nil {
			return applied, err
		}
		applied += take
	}

	if applied == 0 {
		return 0, xerrors.ErrCreditNotFound
	}

	_ = uc.pub.PublishCreditRedeemed(ctx, devoteeID, payeeID, applied)
	return applied, nil
}

// ExpireStaleCredits is the periodic sweep transitioning credits past their
// expiry. Returns how many were expired.
func (uc *LoyaltyUsecase) ExpireStaleCredits(ctx context.Context, devoteeID, payeeID string) (int, error) {
	credits, err := uc.repo.GetActiveByPair(ctx, devoteeID, payeeID)
	if err != nil {
		return 0, err
	}

	now := uc.clock.Now()
	expired := 0
	for _, c := range credits {
		if !c.Expired(now) {
			continue
		}
		if err := uc.repo.MarkExpired(ctx, c.ID); err != nil {
			return expired, err
		}
		expired++
	}
	return expired, nil
}
