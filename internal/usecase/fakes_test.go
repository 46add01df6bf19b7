package usecase

import (
	"context"
	"time"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
	"settlement-service/internal/provider/gateway"

	"github.com/jackc/pgx/v5"
)

// fakeClock pins time for deterministic scheduling assertions.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// fakeTx satisfies pgx.Tx for the in-memory repos; only Commit and Rollback
// are ever reached.
type fakeTx struct {
	pgx.Tx
}

func (fakeTx) Commit(ctx context.Context) error   { return nil }
func (fakeTx) Rollback(ctx context.Context) error { return nil }

type fakeEscrowRepo struct {
	records map[string]*domain.EscrowRecord // keyed by booking id
}

func newFakeEscrowRepo() *fakeEscrowRepo {
	return &fakeEscrowRepo{records: map[string]*domain.EscrowRecord{}}
}

func (f *fakeEscrowRepo) BeginTx(ctx context.Context) (pgx.Tx, error) { return fakeTx{}, nil }

func (f *fakeEscrowRepo) Create(ctx context.Context, rec *domain.EscrowRecord) error {
	cp := *rec
	f.records[rec.BookingID] = &cp
	return nil
}

func (f *fakeEscrowRepo) GetByBookingID(ctx context.Context, bookingID string) (*domain.EscrowRecord, error) {
	rec, ok := f.records[bookingID]
	if !ok {
		return nil, xerrors.ErrEscrowNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeEscrowRepo) GetByBookingIDForUpdate(ctx context.Context, tx pgx.Tx, bookingID string) (*domain.EscrowRecord, error) {
	return f.GetByBookingID(ctx, bookingID)
}

func (f *fakeEscrowRepo) byID(id string) *domain.EscrowRecord {
	for _, rec := range f.records {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (f *fakeEscrowRepo) UpdateSchedule(ctx context.Context, tx pgx.Tx, id string, releaseAt time.Time) error {
	if rec := f.byID(id); rec != nil {
		rec.ScheduledReleaseAt = releaseAt
	}
	return nil
}

func (f *fakeEscrowRepo) MarkReleased(ctx context.Context, tx pgx.Tx, id string, status domain.EscrowStatus, transferRef string, releasedAt time.Time) error {
	if rec := f.byID(id); rec != nil {
		rec.Status = status
		rec.TransferRef = &transferRef
		rec.ReleasedAt = &releasedAt
	}
	return nil
}

func (f *fakeEscrowRepo) MarkFailed(ctx context.Context, tx pgx.Tx, id string, reason string) error {
	if rec := f.byID(id); rec != nil {
		rec.Status = domain.EscrowStatusFailed
		rec.FailureReason = &reason
	}
	return nil
}

func (f *fakeEscrowRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.EscrowRecord, error) {
	var due []*domain.EscrowRecord
	for _, rec := range f.records {
		if rec.Status == domain.EscrowStatusScheduled && !rec.ScheduledReleaseAt.After(now) {
			cp := *rec
			due = append(due, &cp)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

type fakeBookingRepo struct {
	bookings map[string]*domain.Booking
	recent   map[string][]*domain.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings: map[string]*domain.Booking{},
		recent:   map[string][]*domain.Booking{},
	}
}

func (f *fakeBookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, xerrors.ErrBookingNotFound
	}
	return b, nil
}

func (f *fakeBookingRepo) GetRecentByPayee(ctx context.Context, payeeID string, limit int) ([]*domain.Booking, error) {
	recent := f.recent[payeeID]
	if len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

func (f *fakeBookingRepo) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	b, ok := f.bookings[id]
	if !ok {
		return xerrors.ErrBookingNotFound
	}
	b.Status = status
	return nil
}

type fakePayeeRepo struct {
	payees map[string]*domain.Payee
}

func newFakePayeeRepo() *fakePayeeRepo {
	return &fakePayeeRepo{payees: map[string]*domain.Payee{}}
}

func (f *fakePayeeRepo) GetByID(ctx context.Context, id string) (*domain.Payee, error) {
	p, ok := f.payees[id]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return p, nil
}

type fakeRefundRepo struct {
	refunds   []*domain.RefundTransaction
	createErr error
}

func (f *fakeRefundRepo) Create(ctx context.Context, t *domain.RefundTransaction) error {
	if f.createErr != nil {
		return f.createErr
	}
	cp := *t
	f.refunds = append(f.refunds, &cp)
	return nil
}

func (f *fakeRefundRepo) GetByID(ctx context.Context, id string) (*domain.RefundTransaction, error) {
	for _, r := range f.refunds {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeRefundRepo) GetByBookingID(ctx context.Context, bookingID string) (*domain.RefundTransaction, error) {
	for i := len(f.refunds) - 1; i >= 0; i-- {
		if f.refunds[i].BookingID == bookingID {
			return f.refunds[i], nil
		}
	}
	return nil, xerrors.ErrNotFound
}

func (f *fakeRefundRepo) UpdateStatus(ctx context.Context, id string, status domain.RefundStatus, gatewayRef *string) error {
	for _, r := range f.refunds {
		if r.ID == id {
			r.Status = status
			if gatewayRef != nil {
				r.GatewayRef = gatewayRef
			}
			return nil
		}
	}
	return xerrors.ErrNotFound
}

type fakeLoyaltyRepo struct {
	credits []*domain.LoyaltyCredit
}

func (f *fakeLoyaltyRepo) Create(ctx context.Context, c *domain.LoyaltyCredit) error {
	cp := *c
	f.credits = append(f.credits, &cp)
	return nil
}

func (f *fakeLoyaltyRepo) GetActiveByPair(ctx context.Context, devoteeID, payeeID string) ([]*domain.LoyaltyCredit, error) {
	var out []*domain.LoyaltyCredit
	for _, c := range f.credits {
		if c.DevoteeID == devoteeID && c.PayeeID == payeeID && c.Status == domain.LoyaltyCreditStatusActive {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeLoyaltyRepo) RecordRedemption(ctx context.Context, id string, usedAmount int64, status domain.LoyaltyCreditStatus) error {
	for _, c := range f.credits {
		if c.ID == id {
			c.UsedAmount = usedAmount
			c.Status = status
			return nil
		}
	}
	return xerrors.ErrCreditNotFound
}

func (f *fakeLoyaltyRepo) MarkExpired(ctx context.Context, id string) error {
	for _, c := range f.credits {
		if c.ID == id {
			c.Status = domain.LoyaltyCreditStatusExpired
			return nil
		}
	}
	return xerrors.ErrCreditNotFound
}

type fakeConnectRepo struct {
	accounts map[string]*domain.ConnectAccount // keyed by payee id
	logs     []domain.ConnectStatusLog
}

func newFakeConnectRepo() *fakeConnectRepo {
	return &fakeConnectRepo{accounts: map[string]*domain.ConnectAccount{}}
}

func (f *fakeConnectRepo) Create(ctx context.Context, a *domain.ConnectAccount) error {
	if _, exists := f.accounts[a.PayeeID]; exists {
		return xerrors.ErrAlreadyOnboarded
	}
	cp := *a
	f.accounts[a.PayeeID] = &cp
	return nil
}

func (f *fakeConnectRepo) GetByPayeeID(ctx context.Context, payeeID string) (*domain.ConnectAccount, error) {
	a, ok := f.accounts[payeeID]
	if !ok {
		return nil, xerrors.ErrConnectAccountMissing
	}
	cp := *a
	return &cp, nil
}

func (f *fakeConnectRepo) UpdateState(ctx context.Context, a *domain.ConnectAccount) error {
	cp := *a
	f.accounts[a.PayeeID] = &cp
	return nil
}

func (f *fakeConnectRepo) InsertStatusLog(ctx context.Context, log *domain.ConnectStatusLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

func (f *fakeConnectRepo) ListStatusLogs(ctx context.Context, accountID string) ([]domain.ConnectStatusLog, error) {
	var out []domain.ConnectStatusLog
	for _, l := range f.logs {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakePolicyRepo struct {
	policies map[string]*domain.CancellationPolicy
}

func (f *fakePolicyRepo) GetByServiceCategory(ctx context.Context, category string) (*domain.CancellationPolicy, error) {
	p, ok := f.policies[category]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return p, nil
}

// fakeGateway records every call and can be told to fail.
type fakeGateway struct {
	transferErr error
	refundErr   error
	accountErr  error

	transferStatus string // defaults to "paid"
	refundStatus   string // defaults to "succeeded"
	rawState       *gateway.RawAccountState

	transfers []gateway.TransferRequest
	refunds   []gateway.RefundRequest
}

func (f *fakeGateway) CreateTransfer(ctx context.Context, req gateway.TransferRequest) (*gateway.TransferResult, error) {
	if f.transferErr != nil {
		return nil, f.transferErr
	}
	f.transfers = append(f.transfers, req)
	status := f.transferStatus
	if status == "" {
		status = "paid"
	}
	return &gateway.TransferResult{TransferRef: "tr_test_1", Status: status}, nil
}

func (f *fakeGateway) CreateRefund(ctx context.Context, req gateway.RefundRequest) (*gateway.RefundResult, error) {
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	f.refunds = append(f.refunds, req)
	status := f.refundStatus
	if status == "" {
		status = "succeeded"
	}
	return &gateway.RefundResult{RefundRef: "re_test_1", Status: status}, nil
}

func (f *fakeGateway) GetAccountStatus(ctx context.Context, accountRef string) (*gateway.RawAccountState, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return f.rawState, nil
}

func (f *fakeGateway) CreateAccount(ctx context.Context, req gateway.AccountRequest) (*gateway.AccountResult, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return &gateway.AccountResult{AccountRef: "acct_" + req.PayeeID}, nil
}
