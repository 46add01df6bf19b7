package repository

import (
	"context"
	"errors"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnectRepository persists payee sub-account state. Records are never
// deleted; deactivated payees keep their row for audit.
type ConnectRepository interface {
	Create(ctx context.Context, a *domain.ConnectAccount) error
	GetByPayeeID(ctx context.Context, payeeID string) (*domain.ConnectAccount, error)
	UpdateState(ctx context.Context, a *domain.ConnectAccount) error
	InsertStatusLog(ctx context.Context, log *domain.ConnectStatusLog) error
	ListStatusLogs(ctx context.Context, accountID string) ([]domain.ConnectStatusLog, error)
}

type connectRepo struct {
	db *pgxpool.Pool
}

func NewConnectRepo(db *pgxpool.Pool) ConnectRepository {
	return &connectRepo{db: db}
}

func (r *connectRepo) Create(ctx context.Context, a *domain.ConnectAccount) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO connect_accounts
			(id, payee_id, account_ref, account_status, charges_enabled, payouts_enabled,
			 currently_due, eventually_due, past_due, requirement_errors,
			 bank_account_last, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW())
	`, a.ID, a.PayeeID, a.AccountRef, a.AccountStatus, a.ChargesEnabled, a.PayoutsEnabled,
		a.Requirements.CurrentlyDue, a.Requirements.EventuallyDue, a.Requirements.PastDue, a.Requirements.Errors,
		a.BankAccountLast)
	if err != nil && xerrors.ParsePGErrorCode(err) == "23505" {
		return xerrors.ErrAlreadyOnboarded
	}
	return err
}

func (r *connectRepo) GetByPayeeID(ctx context.Context, payeeID string) (*domain.ConnectAccount, error) {
	var a domain.ConnectAccount
	err := r.db.QueryRow(ctx, `
		SELECT id, payee_id, account_ref, account_status, charges_enabled, payouts_enabled,
		       currently_due, eventually_due, past_due, requirement_errors,
		       bank_account_last, last_refreshed_at, created_at, updated_at
		FROM connect_accounts
		WHERE payee_id=$1
	`, payeeID).Scan(
		&a.ID, &a.PayeeID, &a.AccountRef, &a.AccountStatus, &a.ChargesEnabled, &a.PayoutsEnabled,
		&a.Requirements.CurrentlyDue, &a.Requirements.EventuallyDue, &a.Requirements.PastDue, &a.Requirements.Errors,
		&a.BankAccountLast, &a.LastRefreshedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, xerrors.ErrConnectAccountMissing
		}
		return nil, err
	}
	return &a, nil
}

func (r *connectRepo) UpdateState(ctx context.Context, a *domain.ConnectAccount) error {
	_, err := r.db.Exec(ctx, `
		UPDATE connect_accounts
		SET account_status=$1, charges_enabled=$2, payouts_enabled=$3,
		    currently_due=$4, eventually_due=$5, past_due=$6, requirement_errors=$7,
		    bank_account_last=$8, last_refreshed_at=NOW(), updated_at=NOW()
		WHERE id=$9
	`, a.AccountStatus, a.ChargesEnabled, a.PayoutsEnabled,
		a.Requirements.CurrentlyDue, a.Requirements.EventuallyDue, a.Requirements.PastDue, a.Requirements.Errors,
		a.BankAccountLast, a.ID)
	return err
}

func (r *connectRepo) InsertStatusLog(ctx context.Context, log *domain.ConnectStatusLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO connect_status_logs (id, account_id, from_status, to_status, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,NOW())
	`, log.ID, log.AccountID, log.From, log.To, log.Notes)
	return err
}

func (r *connectRepo) ListStatusLogs(ctx context.Context, accountID string) ([]domain.ConnectStatusLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, from_status, to_status, notes, created_at
		FROM connect_status_logs
		WHERE account_id=$1
		ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []domain.ConnectStatusLog
	for rows.Next() {
		var l domain.ConnectStatusLog
		if err := rows.Scan(&l.ID, &l.AccountID, &l.From, &l.To, &l.Notes, &l.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
