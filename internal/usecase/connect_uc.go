package usecase

import (
	"context"

	"settlement-service/internal/domain"
	xerrors "settlement-service/internal/pkg/xerrors"
	"settlement-service/internal/provider/gateway"
	"settlement-service/internal/repository"
	"settlement-service/pkg/utils"

	"github.com/sirupsen/logrus"
)

// ConnectUsecase tracks onboarding/verification state of payee sub-accounts
// and gates payout eligibility. It maps the gateway's raw account state into
// the internal three-value status machine.
type ConnectUsecase struct {
	repo   repository.ConnectRepository
	gw     gateway.PaymentGateway
	refgen *utils.RefGenerator
	clock  Clock
}

func NewConnectUsecase(
	repo repository.ConnectRepository,
	gw gateway.PaymentGateway,
	refgen *utils.RefGenerator,
	clock Clock,
) *ConnectUsecase {
	return &ConnectUsecase{
		repo:   repo,
		gw:     gw,
		refgen: refgen,
		clock:  clock,
	}
}

// StartOnboarding creates the payee's sub-account on the payment network and
// records it locally in pending state.
func (uc *ConnectUsecase) StartOnboarding(ctx context.Context, payeeID, email, country string) (*domain.ConnectAccount, error) {
	if existing, err := uc.repo.GetByPayeeID(ctx, payeeID); err == nil && existing != nil {
		return nil, xerrors.ErrAlreadyOnboarded
	}

	res, err := uc.gw.CreateAccount(ctx, gateway.AccountRequest{
		PayeeID: payeeID,
		Email:   email,
		Country: country,
	})
	if err != nil {
		return nil, err
	}

	account := &domain.ConnectAccount{
		ID:            uc.refgen.GenerateULID(),
		PayeeID:       payeeID,
		AccountRef:    res.AccountRef,
		AccountStatus: domain.ConnectStatusPending,
	}
	if err := uc.repo.Create(ctx, account); err != nil {
		return nil, err
	}

	_ = uc.repo.InsertStatusLog(ctx, &domain.ConnectStatusLog{
		ID:        uc.refgen.GenerateULID(),
		AccountID: account.ID,
		From:      "",
		To:        string(domain.ConnectStatusPending),
		Notes:     "onboarding started",
	})

	logrus.WithFields(logrus.Fields{
		"payee_id":    payeeID,
		"account_ref": res.AccountRef,
	}).Info("connect account created")

	return account, nil
}

// RefreshStatus pulls the raw sub-account state from the gateway and folds
// it into the stored record. Called from webhooks and the periodic sweep.
func (uc *ConnectUsecase) RefreshStatus(ctx context.Context, payeeID string) (*domain.ConnectAccount, error) {
	account, err := uc.repo.GetByPayeeID(ctx, payeeID)
	if err != nil {
		return nil, err
	}

	raw, err := uc.gw.GetAccountStatus(ctx, account.AccountRef)
	if err != nil {
		return nil, err
	}

	previous := account.AccountStatus

	account.ChargesEnabled = raw.ChargesEnabled
	account.PayoutsEnabled = raw.PayoutsEnabled
	account.Requirements = domain.AccountRequirements{
		CurrentlyDue:  raw.CurrentlyDue,
		EventuallyDue: raw.EventuallyDue,
		PastDue:       raw.PastDue,
		Errors:        raw.Errors,
	}
	account.BankAccountLast = raw.BankLast4
	account.AccountStatus = DeriveStatus(raw)

	if err := uc.repo.UpdateState(ctx, account); err != nil {
		return nil, err
	}

	if account.AccountStatus != previous {
		_ = uc.repo.InsertStatusLog(ctx, &domain.ConnectStatusLog{
			ID:        uc.refgen.GenerateULID(),
			AccountID: account.ID,
			From:      string(previous),
			To:        string(account.AccountStatus),
			Notes:     "gateway status refresh",
		})
		logrus.WithFields(logrus.Fields{
			"payee_id": payeeID,
			"from":     previous,
			"to":       account.AccountStatus,
		}).Info("connect account status changed")
	}

	return account, nil
}

// GetAccount returns the stored record without touching the gateway.
func (uc *ConnectUsecase) GetAccount(ctx context.Context, payeeID string) (*domain.ConnectAccount, error) {
	return uc.repo.GetByPayeeID(ctx, payeeID)
}

// StatusLogs returns the audit trail of observed status transitions.
func (uc *ConnectUsecase) StatusLogs(ctx context.Context, payeeID string) ([]domain.ConnectStatusLog, error) {
	account, err := uc.repo.GetByPayeeID(ctx, payeeID)
	if err != nil {
		return nil, err
	}
	return uc.repo.ListStatusLogs(ctx, account.ID)
}

// DeriveStatus maps the network's raw state onto the internal status:
// enabled only with both capabilities live and nothing currently due;
// restricted whenever a capability is off, even with an empty requirements
// list (e.g. pending review); pending otherwise.
func DeriveStatus(raw *gateway.RawAccountState) domain.ConnectAccountStatus {
	if !raw.ChargesEnabled || !raw.PayoutsEnabled {
		return domain.ConnectStatusRestricted
	}
	if len(raw.CurrentlyDue) == 0 {
		return domain.ConnectStatusEnabled
	}
	return domain.ConnectStatusPending
}

// CanReceivePayouts is the single gate every transfer path must check
// before moving money.
func CanReceivePayouts(a *domain.ConnectAccount) bool {
	return a.ChargesEnabled && a.PayoutsEnabled && len(a.Requirements.CurrentlyDue) == 0
}

// MapTransferStatus folds the gateway's transfer state into the internal
// enum. Unknown values map to pending so an unrecognized status can never
// silently land in a terminal state.
func MapTransferStatus(raw string) domain.TransferStatus {
	switch raw {
	case "pending", "created":
		return domain.TransferStatusPending
	case "in_transit", "processing":
		return domain.TransferStatusInTransit
	case "paid", "succeeded":
		return domain.TransferStatusPaid
	case "failed":
		return domain.TransferStatusFailed
	case "reversed", "canceled":
		return domain.TransferStatusReversed
	default:
		return domain.TransferStatusPending
	}
}
