package repository

import (
	"context"
	"errors"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PolicyRepository loads the tiered cancellation policy for a service
// category. Policies change rarely; the settlement usecase caches them.
type PolicyRepository interface {
	GetByServiceCategory(ctx context.Context, category string) (*domain.CancellationPolicy, error)
}

type policyRepo struct {
	db *pgxpool.Pool
}

func NewPolicyRepo(db *pgxpool.Pool) PolicyRepository {
	return &policyRepo{db: db}
}

func (r *policyRepo) GetByServiceCategory(ctx context.Context, category string) (*domain.CancellationPolicy, error) {
	var p domain.CancellationPolicy
	err := r.db.QueryRow(ctx, `
		SELECT service_category, free_until_hours, no_refund_hours
		FROM cancellation_policies
		WHERE service_category=$1
	`, category).Scan(&p.ServiceCategory, &p.FreeUntilHours, &p.NoRefundHours)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT hours_before_service, fee_percentage
		FROM cancellation_policy_tiers
		WHERE service_category=$1
		ORDER BY hours_before_service DESC
	`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t domain.RefundTier
		if err := rows.Scan(&t.HoursBeforeService, &t.FeePercentage); err != nil {
			return nil, err
		}
		p.Tiers = append(p.Tiers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &p, nil
}
