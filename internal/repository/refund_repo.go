package repository

import (
	"context"
	"errors"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RefundRepository keeps the append-only refund ledger, one transaction per
// cancellation event. Rows are immutable after a terminal status.
type RefundRepository interface {
	Create(ctx context.Context, t *domain.RefundTransaction) error
	GetByID(ctx context.Context, id string) (*domain.RefundTransaction, error)
	GetByBookingID(ctx context.Context, bookingID string) (*domain.RefundTransaction, error)
	UpdateStatus(ctx context.Context, id string, status domain.RefundStatus, gatewayRef *string) error
}

type refundRepo struct {
	db *pgxpool.Pool
}

func NewRefundRepo(db *pgxpool.Pool) RefundRepository {
	return &refundRepo{db: db}
}

func (r *refundRepo) Create(ctx context.Context, t *domain.RefundTransaction) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO refund_transactions
			(id, booking_id, original_amount, refund_amount, cancellation_fee,
			 reason, status, initiated_by, approved_by, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
	`, t.ID, t.BookingID, t.OriginalAmount, t.RefundAmount, t.CancellationFee,
		t.Reason, t.Status, t.InitiatedBy, t.ApprovedBy)
	if err != nil && xerrors.ParsePGErrorCode(err) == "23505" {
		return xerrors.ErrRefundAlreadyExists
	}
	return err
}

const refundColumns = `
	id, booking_id, original_amount, refund_amount, cancellation_fee,
	reason, status, initiated_by, approved_by, gateway_ref, created_at, updated_at`

func scanRefund(row pgx.Row) (*domain.RefundTransaction, error) {
	var t domain.RefundTransaction
	err := row.Scan(
		&t.ID, &t.BookingID, &t.OriginalAmount, &t.RefundAmount, &t.CancellationFee,
		&t.Reason, &t.Status, &t.InitiatedBy, &t.ApprovedBy, &t.GatewayRef, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *refundRepo) GetByID(ctx context.Context, id string) (*domain.RefundTransaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+refundColumns+`
		FROM refund_transactions
		WHERE id=$1
	`, id)
	return scanRefund(row)
}

func (r *refundRepo) GetByBookingID(ctx context.Context, bookingID string) (*domain.RefundTransaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+refundColumns+`
		FROM refund_transactions
		WHERE booking_id=$1
		ORDER BY created_at DESC
		LIMIT 1
	`, bookingID)
	return scanRefund(row)
}

func (r *refundRepo) UpdateStatus(ctx context.Context, id string, status domain.RefundStatus, gatewayRef *string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE refund_transactions
		SET status=$1, gateway_ref=COALESCE($2, gateway_ref), updated_at=NOW()
		WHERE id=$3
	`, status, gatewayRef, id)
	return err
}
