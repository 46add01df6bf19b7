package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
	"settlement-service/internal/provider/gateway"
	publisher "settlement-service/internal/pub"
	"settlement-service/internal/repository"
	"settlement-service/pkg/utils"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultHoldDays is the escrow interval after service completion.
	DefaultHoldDays = 7

	// settlementCurrency is the single currency this engine settles in.
	// Currency conversion is out of scope.
	settlementCurrency = "INR"

	// recentBookingWindow is how far back the cancellation rate looks.
	recentBookingWindow = 20

	// Early-release gate thresholds. Conjunctive: one failing criterion
	// blocks early release.
	minEarlyReleaseRating     = 4.5
	minEarlyReleaseCompleted  = 10
	maxEarlyReleaseCancelRate = 0.10
)

// EscrowUsecase owns the per-booking escrow state machine:
// none -> scheduled -> {released | released_early | failed}.
type EscrowUsecase struct {
	escrowRepo  repository.EscrowRepository
	bookingRepo repository.BookingRepository
	payeeRepo   repository.PayeeRepository
	connectUC   *ConnectUsecase
	gw          gateway.PaymentGateway
	pub         *publisher.SettlementEventPublisher
	refgen      *utils.RefGenerator
	clock       Clock
	holdDays    int
	locks       *keyedMutex
}

func NewEscrowUsecase(
	escrowRepo repository.EscrowRepository,
	bookingRepo repository.BookingRepository,
	payeeRepo repository.PayeeRepository,
	connectUC *ConnectUsecase,
	gw gateway.PaymentGateway,
	pub *publisher.SettlementEventPublisher,
	refgen *utils.RefGenerator,
	clock Clock,
	holdDays int,
) *EscrowUsecase {
	if holdDays <= 0 {
		holdDays = DefaultHoldDays
	}
	return &EscrowUsecase{
		escrowRepo:  escrowRepo,
		bookingRepo: bookingRepo,
		payeeRepo:   payeeRepo,
		connectUC:   connectUC,
		gw:          gw,
		pub:         pub,
		refgen:      refgen,
		clock:       clock,
		holdDays:    holdDays,
		locks:       newKeyedMutex(),
	}
}

// ScheduleRelease computes the release date (completion + hold days, rolled
// forward over weekends) and transitions the booking's escrow to scheduled.
// Idempotent: re-scheduling for the same date is a no-op; a different date
// overwrites the schedule and logs the change.
func (uc *EscrowUsecase) ScheduleRelease(ctx context.Context, bookingID, payeeID string, amount int64, completion time.Time) (*domain.EscrowRecord, error) {
	unlock := uc.locks.Lock(bookingID)
	defer unlock()

	releaseAt := NextBusinessDay(completion.AddDate(0, 0, uc.holdDays))

	rec, err := uc.escrowRepo.GetByBookingID(ctx, bookingID)
	if err != nil && !errors.Is(err, xerrors.ErrEscrowNotFound) {
		return nil, err
	}

	if rec == nil {
		rec = &domain.EscrowRecord{
			ID:                 uc.refgen.GenerateEscrowRef(),
			BookingID:          bookingID,
			PayeeID:            payeeID,
			Amount:             amount,
			HoldStartedAt:      completion,
			ScheduledReleaseAt: releaseAt,
			Status:             domain.EscrowStatusScheduled,
		}
		if err := uc.escrowRepo.Create(ctx, rec); err != nil {
			return nil, err
		}
		_ = uc.pub.PublishEscrowScheduled(ctx, bookingID, payeeID, amount, releaseAt)
		return rec, nil
	}

	if rec.Terminal() || rec.Status == domain.EscrowStatusFailed {
		return nil, xerrors.ErrEscrowTerminal
	}

	if rec.ScheduledReleaseAt.Equal(releaseAt) {
		return rec, nil
	}

	tx, err := uc.escrowRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	locked, err := uc.escrowRepo.GetByBookingIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if locked.Status != domain.EscrowStatusScheduled {
		return nil, xerrors.ErrEscrowNotScheduled
	}
	if err := uc.escrowRepo.UpdateSchedule(ctx, tx, locked.ID, releaseAt); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"booking_id": bookingID,
		"old_date":   locked.ScheduledReleaseAt,
		"new_date":   releaseAt,
	}).Info("escrow release rescheduled")

	locked.ScheduledReleaseAt = releaseAt
	_ = uc.pub.PublishEscrowScheduled(ctx, bookingID, payeeID, locked.Amount, releaseAt)
	return locked, nil
}

// GetByBookingID returns the booking's escrow record.
func (uc *EscrowUsecase) GetByBookingID(ctx context.Context, bookingID string) (*domain.EscrowRecord, error) {
	return uc.escrowRepo.GetByBookingID(ctx, bookingID)
}

// CheckEarlyReleaseEligibility evaluates the payee's track record. All four
// criteria must hold; failing criteria come back as user-facing reasons.
func (uc *EscrowUsecase) CheckEarlyReleaseEligibility(ctx context.Context, payeeID string) (*domain.EligibilityResult, error) {
	payee, err := uc.payeeRepo.GetByID(ctx, payeeID)
	if err != nil {
		return nil, err
	}

	recent, err := uc.bookingRepo.GetRecentByPayee(ctx, payeeID, recentBookingWindow)
	if err != nil {
		return nil, err
	}

	cancelRate := 0.0
	if len(recent) > 0 {
		cancelled := 0
		for _, b := range recent {
			if b.Status == domain.BookingStatusCancelled {
				cancelled++
			}
		}
		cancelRate = float64(cancelled) / float64(len(recent))
	}

	result := &domain.EligibilityResult{
		Eligible: true,
		Stats: domain.PayeeStats{
			AverageRating:     payee.AverageRating,
			CompletedBookings: payee.CompletedBookings,
			Verified:          payee.Verified,
			CancellationRate:  cancelRate,
		},
	}

	if payee.AverageRating < minEarlyReleaseRating {
		result.Reasons = append(result.Reasons, fmt.Sprintf("average rating %.2f below %.1f", payee.AverageRating, minEarlyReleaseRating))
	}
	if payee.CompletedBookings < minEarlyReleaseCompleted {
		result.Reasons = append(result.Reasons, fmt.Sprintf("completed bookings %d below %d", payee.CompletedBookings, minEarlyReleaseCompleted))
	}
	if !payee.Verified {
		result.Reasons = append(result.Reasons, "payee is not verified")
	}
	if cancelRate > maxEarlyReleaseCancelRate {
		result.Reasons = append(result.Reasons, fmt.Sprintf("cancellation rate %.0f%% above %.0f%%", cancelRate*100, maxEarlyReleaseCancelRate*100))
	}

	result.Eligible = len(result.Reasons) == 0
	return result, nil
}

// ReleaseEarly transfers the held funds immediately instead of waiting for
// the scheduled date. Requires the eligibility gate to pass.
func (uc *EscrowUsecase) ReleaseEarly(ctx context.Context, bookingID, payeeID string) (*domain.EscrowRecord, error) {
	eligibility, err := uc.CheckEarlyReleaseEligibility(ctx, payeeID)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrNotEligibleForEarlyRelease, eligibility.Reasons)
	}

	return uc.release(ctx, bookingID, domain.EscrowStatusReleasedEarly)
}

// ProcessDueReleases releases every scheduled hold whose date has arrived.
// Returns how many holds were released; a gateway failure marks that hold
// failed (operator attention, not auto-retried) and the sweep continues.
func (uc *EscrowUsecase) ProcessDueReleases(ctx context.Context, limit int) (int, error) {
	due, err := uc.escrowRepo.ListDue(ctx, uc.clock.Now(), limit)
	if err != nil {
		return 0, err
	}

	released := 0
	for _, rec := range due {
		if _, err := uc.release(ctx, rec.BookingID, domain.EscrowStatusReleased); err != nil {
			logrus.WithError(err).WithField("booking_id", rec.BookingID).
				Warn("scheduled escrow release failed")
			continue
		}
		released++
	}
	return released, nil
}

// release serializes on the booking, checks the payout gate and issues the
// transfer with an idempotency key derived from (bookingID, operation) so a
// retried call cannot double-pay.
func (uc *EscrowUsecase) release(ctx context.Context, bookingID string, target domain.EscrowStatus) (*domain.EscrowRecord, error) {
	unlock := uc.locks.Lock(bookingID)
	defer unlock()

	tx, err := uc.escrowRepo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rec, err := uc.escrowRepo.GetByBookingIDForUpdate(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}
	if rec.Terminal() {
		return nil, xerrors.ErrEscrowTerminal
	}
	if rec.Status != domain.EscrowStatusScheduled {
		return nil, xerrors.ErrEscrowNotScheduled
	}

	account, err := uc.connectUC.GetAccount(ctx, rec.PayeeID)
	if err != nil {
		return nil, err
	}
	if !CanReceivePayouts(account) {
		return nil, xerrors.ErrPayoutsDisabled
	}

	result, err := uc.gw.CreateTransfer(ctx, gateway.TransferRequest{
		Amount:         rec.Amount,
		Currency:       settlementCurrency,
		DestinationRef: account.AccountRef,
		IdempotencyKey: gateway.IdempotencyKey(bookingID, "escrow_release"),
		Metadata: map[string]string{
			"booking_id": bookingID,
			"escrow_id":  rec.ID,
		},
	})
	if err != nil {
		if markErr := uc.escrowRepo.MarkFailed(ctx, tx, rec.ID, err.Error()); markErr != nil {
			return nil, markErr
		}
		if commitErr := tx.Commit(ctx); commitErr != nil {
			return nil, commitErr
		}
		_ = uc.pub.PublishEscrowReleaseFailed(ctx, bookingID, rec.PayeeID, err.Error(), rec.Amount)
		return nil, err
	}

	now := uc.clock.Now()
	if err := uc.escrowRepo.MarkReleased(ctx, tx, rec.ID, target, result.TransferRef, now); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	rec.Status = target
	rec.TransferRef = &result.TransferRef
	rec.ReleasedAt = &now

	status := MapTransferStatus(result.Status)
	_ = uc.pub.PublishEscrowReleased(ctx, bookingID, rec.PayeeID, result.TransferRef, string(status), rec.Amount)

	logrus.WithFields(logrus.Fields{
		"booking_id":   bookingID,
		"payee_id":     rec.PayeeID,
		"amount":       rec.Amount,
		"transfer_ref": result.TransferRef,
		"status":       target,
	}).Info("escrow released")

	return rec, nil
}

// NextBusinessDay rolls a weekend release date forward: Saturday by two
// days, Sunday by one, so funds always move on a banking day.
func NextBusinessDay(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, 2)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}
