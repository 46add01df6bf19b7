package repository

import (
	"context"
	"errors"
	"time"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EscrowRepository persists per-booking escrow holds. At most one active
// record exists per booking (unique index on booking_id); row locks via
// GetByBookingIDForUpdate serialize a scheduled release racing a concurrent
// early-release request.
type EscrowRepository interface {
	BeginTx(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, rec *domain.EscrowRecord) error
	GetByBookingID(ctx context.Context, bookingID string) (*domain.EscrowRecord, error)
	GetByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.EscrowRecord, error)
	UpdateSchedule(ctx context.Context, tx pgx.Tx, id string, releaseAt time.Time) error
	MarkReleased(ctx context.Context, tx pgx.Tx, id string, status domain.EscrowStatus, transferRef string, releasedAt time.Time) error
	MarkFailed(ctx context.Context, tx pgx.Tx, id string, reason string) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.EscrowRecord, error)
}

type escrowRepo struct {
	db *pgxpool.Pool
}

func NewEscrowRepo(db *pgxpool.Pool) EscrowRepository {
	return &escrowRepo{db: db}
}

func (r *escrowRepo) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

func (r *escrowRepo) Create(ctx context.Context, rec *domain.EscrowRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO escrow_records
			(id, booking_id, payee_id, amount, hold_started_at, scheduled_release_at, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
	`, rec.ID, rec.BookingID, rec.PayeeID, rec.Amount, rec.HoldStartedAt, rec.ScheduledReleaseAt, rec.Status)
	return err
}

const escrowColumns = `
	id, booking_id, payee_id, amount, hold_started_at, scheduled_release_at,
	released_at, transfer_ref, failure_reason, status, created_at, updated_at`

func scanEscrow(row pgx.Row) (*domain.EscrowRecord, error) {
	var e domain.EscrowRecord
	err := row.Scan(
		&e.ID, &e.BookingID, &e.PayeeID, &e.Amount, &e.HoldStartedAt, &e.ScheduledReleaseAt,
		&e.ReleasedAt, &e.TransferRef, &e.FailureReason, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrEscrowNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *escrowRepo) GetByBookingID(ctx context.Context, bookingID string) (*domain.EscrowRecord, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+escrowColumns+`
		FROM escrow_records
		WHERE booking_id=$1
	`, bookingID)
	return scanEscrow(row)
}

// GetByBookingIDForUpdate locks the row for the duration of the transaction.
func (r *escrowRepo) GetByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.EscrowRecord, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+escrowColumns+`
		FROM escrow_records
		WHERE booking_id=$1
		FOR UPDATE
	`, bookingID)
	return scanEscrow(row)
}

func (r *escrowRepo) UpdateSchedule(ctx context.Context, tx pgx.Tx, id string, releaseAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE escrow_records
		SET scheduled_release_at=$1, updated_at=NOW()
		WHERE id=$2
	`, releaseAt, id)
	return err
}

func (r *escrowRepo) MarkReleased(ctx context.Context, tx pgx.Tx, id string, status domain.EscrowStatus, transferRef string, releasedAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE escrow_records
		SET status=$1, transfer_ref=$2, released_at=$3, failure_reason=NULL, updated_at=NOW()
		WHERE id=$4
	`, status, transferRef, releasedAt, id)
	return err
}

func (r *escrowRepo) MarkFailed(ctx context.Context, tx pgx.Tx, id string, reason string) error {
	_, err := tx.Exec(ctx, `
		UPDATE escrow_records
		SET status=$1, failure_reason=$2, updated_at=NOW()
		WHERE id=$3
	`, domain.EscrowStatusFailed, reason, id)
	return err
}

// ListDue fetches scheduled records whose release date has arrived.
func (r *escrowRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.EscrowRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+escrowColumns+`
		FROM escrow_records
		WHERE status=$1 AND scheduled_release_at <= $2
		ORDER BY scheduled_release_at ASC
		LIMIT $3
	`, domain.EscrowStatusScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.EscrowRecord
	for rows.Next() {
		rec, err := scanEscrow(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
