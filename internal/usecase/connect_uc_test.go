package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
	"settlement-service/internal/provider/gateway"
)

func newConnectFixture(t *testing.T) (*ConnectUsecase, *fakeConnectRepo, *fakeGateway) {
	t.Helper()
	repo := newFakeConnectRepo()
	gw := &fakeGateway{}
	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	return NewConnectUsecase(repo, gw, newTestRefGen(t), clock), repo, gw
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name string
		raw  gateway.RawAccountState
		want domain.ConnectAccountStatus
	}{
		{"fully enabled", gateway.RawAccountState{ChargesEnabled: true, PayoutsEnabled: true}, domain.ConnectStatusEnabled},
		{"payouts off", gateway.RawAccountState{ChargesEnabled: true, PayoutsEnabled: false}, domain.ConnectStatusRestricted},
		{"charges off", gateway.RawAccountState{ChargesEnabled: false, PayoutsEnabled: true}, domain.ConnectStatusRestricted},
		{"both off no requirements", gateway.RawAccountState{}, domain.ConnectStatusRestricted},
		{"capabilities on but requirements due", gateway.RawAccountState{
			ChargesEnabled: true, PayoutsEnabled: true,
			CurrentlyDue: []string{"identity_document"},
		}, domain.ConnectStatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeriveStatus(&tc.raw); got != tc.want {
				t.Errorf("DeriveStatus = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestCanReceivePayouts(t *testing.T) {
	ok := &domain.ConnectAccount{ChargesEnabled: true, PayoutsEnabled: true}
	if !CanReceivePayouts(ok) {
		t.Error("fully enabled account must pass the gate")
	}

	blocked := []*domain.ConnectAccount{
		{ChargesEnabled: false, PayoutsEnabled: true},
		{ChargesEnabled: true, PayoutsEnabled: false},
		{ChargesEnabled: true, PayoutsEnabled: true,
			Requirements: domain.AccountRequirements{CurrentlyDue: []string{"bank_account"}}},
	}
	for i, a := range blocked {
		if CanReceivePayouts(a) {
			t.Errorf("case %d: gate passed for a blocked account", i)
		}
	}
}

func TestMapTransferStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want domain.TransferStatus
	}{
		{"pending", domain.TransferStatusPending},
		{"created", domain.TransferStatusPending},
		{"in_transit", domain.TransferStatusInTransit},
		{"processing", domain.TransferStatusInTransit},
		{"paid", domain.TransferStatusPaid},
		{"succeeded", domain.TransferStatusPaid},
		{"failed", domain.TransferStatusFailed},
		{"reversed", domain.TransferStatusReversed},
		{"canceled", domain.TransferStatusReversed},
		// Unknown statuses stay pending rather than landing terminal.
		{"some_new_status", domain.TransferStatusPending},
		{"", domain.TransferStatusPending},
	}

	for _, tc := range cases {
		if got := MapTransferStatus(tc.raw); got != tc.want {
			t.Errorf("MapTransferStatus(%q) = %s, want %s", tc.raw, got, tc.want)
		}
	}
}

func TestStartOnboarding(t *testing.T) {
	uc, repo, _ := newConnectFixture(t)

	account, err := uc.StartOnboarding(context.Background(), "p1", "priest@example.com", "IN")
	if err != nil {
		t.Fatalf("StartOnboarding: %v", err)
	}
	if account.AccountStatus != domain.ConnectStatusPending {
		t.Errorf("status = %s, want pending", account.AccountStatus)
	}
	if account.AccountRef != "acct_p1" {
		t.Errorf("account ref = %s, want acct_p1", account.AccountRef)
	}
	if len(repo.logs) != 1 {
		t.Errorf("status logs = %d, want 1", len(repo.logs))
	}

	if _, err := uc.StartOnboarding(context.Background(), "p1", "priest@example.com", "IN"); !errors.Is(err, xerrors.ErrAlreadyOnboarded) {
		t.Errorf("second onboarding err = %v, want ErrAlreadyOnboarded", err)
	}
}

func TestRefreshStatusTransition(t *testing.T) {
	uc, repo, gw := newConnectFixture(t)
	repo.accounts["p1"] = &domain.ConnectAccount{
		ID: "ca1", PayeeID: "p1", AccountRef: "acct_p1",
		AccountStatus: domain.ConnectStatusPending,
	}
	gw.rawState = &gateway.RawAccountState{
		AccountRef:     "acct_p1",
		ChargesEnabled: true,
		PayoutsEnabled: true,
	}

	account, err := uc.RefreshStatus(context.Background(), "p1")
	if err != nil {
		t.Fatalf("RefreshStatus: %v", err)
	}
	if account.AccountStatus != domain.ConnectStatusEnabled {
		t.Errorf("status = %s, want enabled", account.AccountStatus)
	}
	if len(repo.logs) != 1 {
		t.Fatalf("status logs = %d, want 1", len(repo.logs))
	}
	if repo.logs[0].From != "pending" || repo.logs[0].To != "enabled" {
		t.Errorf("log transition = %s -> %s, want pending -> enabled", repo.logs[0].From, repo.logs[0].To)
	}

	// A refresh that observes the same status adds no log entry.
	if _, err := uc.RefreshStatus(context.Background(), "p1"); err != nil {
		t.Fatalf("second RefreshStatus: %v", err)
	}
	if len(repo.logs) != 1 {
		t.Errorf("status logs after no-op refresh = %d, want 1", len(repo.logs))
	}
}

func TestRefreshStatusRestriction(t *testing.T) {
	uc, repo, gw := newConnectFixture(t)
	repo.accounts["p1"] = &domain.ConnectAccount{
		ID: "ca1", PayeeID: "p1", AccountRef: "acct_p1",
		AccountStatus:  domain.ConnectStatusEnabled,
		ChargesEnabled: true,
		PayoutsEnabled: true,
	}
	gw.rawState = &gateway.RawAccountState{
		AccountRef:     "acct_p1",
		ChargesEnabled: true,
		PayoutsEnabled: false,
		PastDue:        []string{"bank_account"},
	}

	account, err := uc.RefreshStatus(context.Background(), "p1")
	if err != nil {
		t.Fatalf("RefreshStatus: %v", err)
	}
	if account.AccountStatus != domain.ConnectStatusRestricted {
		t.Errorf("status = %s, want restricted", account.AccountStatus)
	}
	if CanReceivePayouts(account) {
		t.Error("restricted account must fail the payout gate")
	}
}
