package repository

import (
	"context"

	"settlement-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LoyaltyRepository persists pair-scoped retention credits. Credits are
// never deleted, only status-transitioned.
type LoyaltyRepository interface {
	Create(ctx context.Context, c *domain.LoyaltyCredit) error
	GetActiveByPair(ctx context.Context, devoteeID, payeeID string) ([]*domain.LoyaltyCredit, error)
	RecordRedemption(ctx context.Context, id string, usedAmount int64, status domain.LoyaltyCreditStatus) error
	MarkExpired(ctx context.Context, id string) error
}

type loyaltyRepo struct {
	db *pgxpool.Pool
}

func NewLoyaltyRepo(db *pgxpool.Pool) LoyaltyRepository {
	return &loyaltyRepo{db: db}
}

func (r *loyaltyRepo) Create(ctx context.Context, c *domain.LoyaltyCredit) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO loyalty_credits
			(id, devotee_id, payee_id, booking_id, original_amount, used_amount, status, expires_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
	`, c.ID, c.DevoteeID, c.PayeeID, c.BookingID, c.OriginalAmount, c.UsedAmount, c.Status, c.ExpiresAt)
	return err
}

// GetActiveByPair lists redeemable credits for the (devotee, payee) pair,
// oldest first so redemption drains the earliest credits before they expire.
func (r *loyaltyRepo) GetActiveByPair(ctx context.Context, devoteeID, payeeID string) ([]*domain.LoyaltyCredit, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, devotee_id, payee_id, booking_id, original_amount, used_amount, status, expires_at, created_at, updated_at
		FROM loyalty_credits
		WHERE devotee_id=$1 AND payee_id=$2 AND status=$3
		ORDER BY created_at ASC
	`, devoteeID, payeeID, domain.LoyaltyCreditStatusActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var credits []*domain.LoyaltyCredit
	for rows.Next() {
		var c domain.LoyaltyCredit
		if err := rows.Scan(
			&c.ID, &c.DevoteeID, &c.PayeeID, &c.BookingID, &c.OriginalAmount,
			&c.UsedAmount, &c.Status, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		credits = append(credits, &c)
	}
	return credits, rows.Err()
}

func (r *loyaltyRepo) RecordRedemption(ctx context.Context, id string, usedAmount int64, status domain.LoyaltyCreditStatus) error {
	_, err := r.db.Exec(ctx, `
		UPDATE loyalty_credits
		SET used_amount=$1, status=$2, updated_at=NOW()
		WHERE id=$3
	`, usedAmount, status, id)
	return err
}

func (r *loyaltyRepo) MarkExpired(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE loyalty_credits
		SET status=$1, updated_at=NOW()
		WHERE id=$2
	`, domain.LoyaltyCreditStatusExpired, id)
	return err
}
