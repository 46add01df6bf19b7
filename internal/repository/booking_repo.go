package repository

import (
	"context"
	"errors"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BookingRepository is the read-mostly view of bookings this engine needs:
// lookups for settlement and the recent-history query behind the
// early-release eligibility gate.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetRecentByPayee(ctx context.Context, payeeID string, limit int) ([]*domain.Booking, error)
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
}

type bookingRepo struct {
	db *pgxpool.Pool
}

func NewBookingRepo(db *pgxpool.Pool) BookingRepository {
	return &bookingRepo{db: db}
}

const bookingColumns = `
	id, devotee_id, payee_id, service_id, service_category,
	scheduled_start, scheduled_end, completed_at,
	service_price, travel_fee, discount_applied, loyalty_credit_used,
	subtotal, platform_fee, temple_share, payee_earnings,
	final_price, advance_amount, remaining_amount, retention_amount,
	advance_charged, charge_ref, status, created_at, updated_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	err := row.Scan(
		&b.ID, &b.DevoteeID, &b.PayeeID, &b.ServiceID, &b.ServiceCategory,
		&b.ScheduledStart, &b.ScheduledEnd, &b.CompletedAt,
		&b.Pricing.ServicePrice, &b.Pricing.TravelFee, &b.Pricing.DiscountApplied, &b.Pricing.LoyaltyCreditUsed,
		&b.Pricing.Subtotal, &b.Pricing.PlatformFee, &b.Pricing.TempleShare, &b.Pricing.PayeeEarnings,
		&b.Pricing.FinalPrice, &b.Pricing.AdvanceAmount, &b.Pricing.RemainingAmount, &b.Pricing.RetentionAmount,
		&b.AdvanceCharged, &b.ChargeRef, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrBookingNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (r *bookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE id=$1
	`, id)
	return scanBooking(row)
}

// GetRecentByPayee fetches the payee's most recent bookings, newest first,
// used to compute the cancellation rate over a fixed window.
func (r *bookingRepo) GetRecentByPayee(ctx context.Context, payeeID string, limit int) ([]*domain.Booking, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+bookingColumns+`
		FROM bookings
		WHERE payee_id=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, payeeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET status=$1, updated_at=NOW()
		WHERE id=$2
	`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return xerrors.ErrBookingNotFound
	}
	return nil
}

// PayeeRepository exposes the payee profile fields the settlement engine
// reads (category, temple share, track record, connect reference).
type PayeeRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Payee, error)
}

type payeeRepo struct {
	db *pgxpool.Pool
}

func NewPayeeRepo(db *pgxpool.Pool) PayeeRepository {
	return &payeeRepo{db: db}
}

func (r *payeeRepo) GetByID(ctx context.Context, id string) (*domain.Payee, error) {
	var p domain.Payee
	err := r.db.QueryRow(ctx, `
		SELECT id, category, temple_id, temple_share_percent,
		       average_rating, completed_bookings, verified,
		       connect_account_ref, created_at
		FROM payees
		WHERE id=$1
	`, id).Scan(
		&p.ID, &p.Category, &p.TempleID, &p.TempleSharePercent,
		&p.AverageRating, &p.CompletedBookings, &p.Verified,
		&p.ConnectAccountRef, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}
