package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
	publisher "settlement-service/internal/pub"
)

func newLoyaltyFixture(t *testing.T) (*LoyaltyUsecase, *fakeLoyaltyRepo, *fakeClock) {
	t.Helper()
	repo := &fakeLoyaltyRepo{}
	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	pub := publisher.NewSettlementEventPublisher(nil, nil)
	return NewLoyaltyUsecase(repo, pub, newTestRefGen(t), clock, 365), repo, clock
}

func retentionBooking(retention int64) *domain.Booking {
	return &domain.Booking{
		ID:        "b1",
		DevoteeID: "d1",
		PayeeID:   "p1",
		Status:    domain.BookingStatusCompleted,
		Pricing:   domain.PricingBreakdown{RetentionAmount: retention},
	}
}

func TestIssueFromRetention(t *testing.T) {
	uc, repo, clock := newLoyaltyFixture(t)

	credit, err := uc.IssueFromRetention(context.Background(), retentionBooking(2500))
	if err != nil {
		t.Fatalf("IssueFromRetention: %v", err)
	}

	if credit.OriginalAmount != 2500 {
		t.Errorf("amount = %d, want 2500", credit.OriginalAmount)
	}
	if credit.Status != domain.LoyaltyCreditStatusActive {
		t.Errorf("status = %s, want active", credit.Status)
	}
	if credit.ExpiresAt == nil || !credit.ExpiresAt.Equal(clock.now.AddDate(0, 0, 365)) {
		t.Errorf("expires at = %v, want one year out", credit.ExpiresAt)
	}
	if len(repo.credits) != 1 {
		t.Errorf("stored credits = %d, want 1", len(repo.credits))
	}
}

func TestIssueFromRetentionZero(t *testing.T) {
	uc, repo, _ := newLoyaltyFixture(t)

	credit, err := uc.IssueFromRetention(context.Background(), retentionBooking(0))
	if err != nil {
		t.Fatalf("IssueFromRetention: %v", err)
	}
	if credit != nil {
		t.Errorf("credit = %+v, want nil for zero retention", credit)
	}
	if len(repo.credits) != 0 {
		t.Error("no credit may be stored for zero retention")
	}
}

func TestRedeemOldestFirst(t *testing.T) {
	uc, repo, _ := newLoyaltyFixture(t)
	repo.credits = []*domain.LoyaltyCredit{
		{ID: "c1", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 1000, Status: domain.LoyaltyCreditStatusActive},
		{ID: "c2", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 500, Status: domain.LoyaltyCreditStatusActive},
	}

	applied, err := uc.Redeem(context.Background(), "d1", "p1", 1200)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if applied != 1200 {
		t.Errorf("applied = %d, want 1200", applied)
	}

	if repo.credits[0].Status != domain.LoyaltyCreditStatusFullyUsed {
		t.Errorf("oldest credit status = %s, want fully_used", repo.credits[0].Status)
	}
	if repo.credits[1].UsedAmount != 200 {
		t.Errorf("second credit used = %d, want 200", repo.credits[1].UsedAmount)
	}
	if repo.credits[1].Status != domain.LoyaltyCreditStatusActive {
		t.Errorf("second credit status = %s, want active", repo.credits[1].Status)
	}
}

func TestRedeemCappedAtAvailability(t *testing.T) {
	uc, repo, _ := newLoyaltyFixture(t)
	repo.credits = []*domain.LoyaltyCredit{
		{ID: "c1", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 800, Status: domain.LoyaltyCreditStatusActive},
	}

	// A 3000 request against 800 of credit applies only what exists.
	applied, err := uc.Redeem(context.Background(), "d1", "p1", 3000)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if applied != 800 {
		t.Errorf("applied = %d, want 800", applied)
	}
}

func TestRedeemNoCredits(t *testing.T) {
	uc, _, _ := newLoyaltyFixture(t)

	if _, err := uc.Redeem(context.Background(), "d1", "p1", 100); !errors.Is(err, xerrors.ErrCreditNotFound) {
		t.Errorf("err = %v, want ErrCreditNotFound", err)
	}
}

func TestRedeemInvalidAmount(t *testing.T) {
	uc, _, _ := newLoyaltyFixture(t)

	if _, err := uc.Redeem(context.Background(), "d1", "p1", 0); !errors.Is(err, xerrors.ErrInvalidRequest) {
		t.Errorf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestRedeemExpiresStaleCreditsOnTouch(t *testing.T) {
	uc, repo, clock := newLoyaltyFixture(t)
	past := clock.now.AddDate(0, 0, -1)
	repo.credits = []*domain.LoyaltyCredit{
		{ID: "c1", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 1000, Status: domain.LoyaltyCreditStatusActive, ExpiresAt: &past},
		{ID: "c2", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 500, Status: domain.LoyaltyCreditStatusActive},
	}

	applied, err := uc.Redeem(context.Background(), "d1", "p1", 400)
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if applied != 400 {
		t.Errorf("applied = %d, want 400 from the live credit", applied)
	}
	if repo.credits[0].Status != domain.LoyaltyCreditStatusExpired {
		t.Errorf("stale credit status = %s, want expired", repo.credits[0].Status)
	}
	if repo.credits[1].UsedAmount != 400 {
		t.Errorf("live credit used = %d, want 400", repo.credits[1].UsedAmount)
	}
}

func TestAvailableBalanceSkipsExpired(t *testing.T) {
	uc, repo, clock := newLoyaltyFixture(t)
	past := clock.now.AddDate(0, 0, -1)
	future := clock.now.AddDate(0, 0, 30)
	repo.credits = []*domain.LoyaltyCredit{
		{ID: "c1", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 1000, Status: domain.LoyaltyCreditStatusActive, ExpiresAt: &past},
		{ID: "c2", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 500, UsedAmount: 100, Status: domain.LoyaltyCreditStatusActive, ExpiresAt: &future},
		{ID: "c3", DevoteeID: "d1", PayeeID: "p2", OriginalAmount: 9000, Status: domain.LoyaltyCreditStatusActive},
	}

	balance, err := uc.AvailableBalance(context.Background(), "d1", "p1")
	if err != nil {
		t.Fatalf("AvailableBalance: %v", err)
	}
	if balance != 400 {
		t.Errorf("balance = %d, want 400 (expired and other-payee credits excluded)", balance)
	}
}

func TestExpireStaleCredits(t *testing.T) {
	uc, repo, clock := newLoyaltyFixture(t)
	past := clock.now.AddDate(0, 0, -1)
	repo.credits = []*domain.LoyaltyCredit{
		{ID: "c1", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 1000, Status: domain.LoyaltyCreditStatusActive, ExpiresAt: &past},
		{ID: "c2", DevoteeID: "d1", PayeeID: "p1", OriginalAmount: 500, Status: domain.LoyaltyCreditStatusActive},
	}

	expired, err := uc.ExpireStaleCredits(context.Background(), "d1", "p1")
	if err != nil {
		t.Fatalf("ExpireStaleCredits: %v", err)
	}
	if expired != 1 {
		t.Errorf("expired = %d, want 1", expired)
	}
	if repo.credits[1].Status != domain.LoyaltyCreditStatusActive {
		t.Errorf("live credit status = %s, want active", repo.credits[1].Status)
	}
}
