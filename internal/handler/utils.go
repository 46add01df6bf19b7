package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	xerrors "settlement-service/internal/pkg/xerrors"
	"settlement-service/pkg/utils"
)

func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// respondError maps domain errors onto HTTP statuses. Eligibility failures
// and payout gates are business outcomes (422), not server defects.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrBookingNotFound),
		errors.Is(err, xerrors.ErrEscrowNotFound),
		errors.Is(err, xerrors.ErrConnectAccountMissing),
		errors.Is(err, xerrors.ErrCreditNotFound),
		errors.Is(err, xerrors.ErrNotFound):
		utils.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrInvalidSplitInput),
		errors.Is(err, xerrors.ErrInvalidPricingInput),
		errors.Is(err, xerrors.ErrInvalidRequest),
		errors.Is(err, xerrors.ErrBookingNotCompleted),
		errors.Is(err, xerrors.ErrBookingNotCancelable),
		errors.Is(err, xerrors.ErrPricingNotFrozen):
		utils.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, xerrors.ErrApprovalRequired):
		utils.Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, xerrors.ErrRefundAlreadyExists),
		errors.Is(err, xerrors.ErrAlreadyOnboarded),
		errors.Is(err, xerrors.ErrEscrowTerminal),
		errors.Is(err, xerrors.ErrEscrowNotScheduled):
		utils.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, xerrors.ErrNotEligibleForEarlyRelease),
		errors.Is(err, xerrors.ErrPayoutsDisabled):
		utils.Error(w, http.StatusUnprocessableEntity, err.Error())
	default:
		utils.Error(w, http.StatusBadGateway, "settlement operation failed: "+err.Error())
	}
}
