package handler

import (
	"net/http"

	"settlement-service/internal/middleware"
	"settlement-service/internal/pkg/pricing"
	"settlement-service/internal/usecase"
	"settlement-service/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// SettlementHandler exposes the settlement workflow over REST.
type SettlementHandler struct {
	settlementUC *usecase.SettlementUsecase
	escrowUC     *usecase.EscrowUsecase
	connectUC    *usecase.ConnectUsecase
	loyaltyUC    *usecase.LoyaltyUsecase
}

func NewSettlementHandler(
	settlementUC *usecase.SettlementUsecase,
	escrowUC *usecase.EscrowUsecase,
	connectUC *usecase.ConnectUsecase,
	loyaltyUC *usecase.LoyaltyUsecase,
) *SettlementHandler {
	return &SettlementHandler{
		settlementUC: settlementUC,
		escrowUC:     escrowUC,
		connectUC:    connectUC,
		loyaltyUC:    loyaltyUC,
	}
}

// CompleteBooking triggers settlement for a completed booking.
func (h *SettlementHandler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	outcome, err := h.settlementUC.HandleBookingCompleted(r.Context(), bookingID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, outcome)
}

// CancelBooking computes the tiered refund and records the cancellation.
func (h *SettlementHandler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reason == "" {
		req.Reason = "requested_by_devotee"
	}

	refund, err := h.settlementUC.HandleBookingCancelled(r.Context(), bookingID, req.Reason, middleware.UserID(r.Context()))
	if err != nil && refund == nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, refund)
}

// EmergencyRefund is the approval-gated bypass of the tier schedule.
func (h *SettlementHandler) EmergencyRefund(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	var req struct {
		ApprovedBy string `json:"approved_by"`
	}
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	refund, err := h.settlementUC.EmergencyRefund(r.Context(), bookingID, req.ApprovedBy, middleware.UserID(r.Context()))
	if err != nil && refund == nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, refund)
}

// GetRefund returns the booking's latest refund transaction.
func (h *SettlementHandler) GetRefund(w http.ResponseWriter, r *http.Request) {
	refund, err := h.settlementUC.GetRefund(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, refund)
}

// GetEscrow returns the booking's escrow record.
func (h *SettlementHandler) GetEscrow(w http.ResponseWriter, r *http.Request) {
	rec, err := h.escrowUC.GetByBookingID(r.Context(), chi.URLParam(r, "bookingID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, rec)
}

// ReleaseEarly pays the booking's hold out ahead of schedule when the payee
// qualifies.
func (h *SettlementHandler) ReleaseEarly(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")

	rec, err := h.escrowUC.GetByBookingID(r.Context(), bookingID)
	if err != nil {
		respondError(w, err)
		return
	}

	released, err := h.escrowUC.ReleaseEarly(r.Context(), bookingID, rec.PayeeID)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, released)
}

// EarlyReleaseEligibility surfaces the gate's verdict with reasons.
func (h *SettlementHandler) EarlyReleaseEligibility(w http.ResponseWriter, r *http.Request) {
	result, err := h.escrowUC.CheckEarlyReleaseEligibility(r.Context(), chi.URLParam(r, "payeeID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, result)
}

// QuotePricing computes a full pricing breakdown for a prospective booking.
func (h *SettlementHandler) QuotePricing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServicePrice    int64   `json:"service_price"`
		AdvancePercent  int64   `json:"advance_percent"`
		RetentionAmount int64   `json:"retention_amount"`
		DistanceKM      float64 `json:"distance_km"`
		RatePerKM       *int64  `json:"rate_per_km,omitempty"`
		AppliedCredits  int64   `json:"applied_credits"`
	}
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	breakdown, err := h.settlementUC.QuotePricing(pricing.BreakdownInput{
		ServicePrice:    req.ServicePrice,
		AdvancePercent:  req.AdvancePercent,
		RetentionAmount: req.RetentionAmount,
		DistanceKM:      req.DistanceKM,
		RatePerKM:       req.RatePerKM,
		AppliedCredits:  req.AppliedCredits,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, breakdown)
}

// StartOnboarding creates the payee's connect account.
func (h *SettlementHandler) StartOnboarding(w http.ResponseWriter, r *http.Request) {
	payeeID := chi.URLParam(r, "payeeID")

	var req struct {
		Email   string `json:"email"`
		Country string `json:"country"`
	}
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.connectUC.StartOnboarding(r.Context(), payeeID, req.Email, req.Country)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, account)
}

// GetConnectAccount returns the stored sub-account state.
func (h *SettlementHandler) GetConnectAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.connectUC.GetAccount(r.Context(), chi.URLParam(r, "payeeID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, account)
}

// RefreshConnectAccount re-pulls state from the gateway. Also wired to the
// gateway webhook so pushed updates land through the same path.
func (h *SettlementHandler) RefreshConnectAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.connectUC.RefreshStatus(r.Context(), chi.URLParam(r, "payeeID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, account)
}

// ConnectStatusLogs returns the account's status transition audit trail.
func (h *SettlementHandler) ConnectStatusLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.connectUC.StatusLogs(r.Context(), chi.URLParam(r, "payeeID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, logs)
}

// CreditBalance returns the pair's redeemable loyalty balance.
func (h *SettlementHandler) CreditBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.loyaltyUC.AvailableBalance(r.Context(), chi.URLParam(r, "devoteeID"), chi.URLParam(r, "payeeID"))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// RedeemCredit records loyalty credit usage for a confirmed booking.
func (h *SettlementHandler) RedeemCredit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DevoteeID string `json:"devotee_id"`
		PayeeID   string `json:"payee_id"`
		Amount    int64  `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		utils.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	applied, err := h.loyaltyUC.Redeem(r.Context(), req.DevoteeID, req.PayeeID, req.Amount)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, map[string]int64{"applied": applied})
}
