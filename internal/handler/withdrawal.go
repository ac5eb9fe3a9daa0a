package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"yieldapp/internal/chain"
	"yieldapp/internal/database"
	"yieldapp/internal/middleware"
	"yieldapp/internal/model"
	"yieldapp/internal/yield"
)

// GetUserWithdrawals handles withdrawal history requests. Every record
// carries the computed fee-payable gate and display metadata; the list is
// always an array, never null.
func (h *Handler) GetUserWithdrawals(c *gin.Context) {
	userID := middleware.UserID(c)

	withdrawals, err := h.db.GetUserWithdrawals(userID)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]model.WithdrawalView, 0, len(withdrawals))
	for _, w := range withdrawals {
		views = append(views, model.NewWithdrawalView(w, h.config.Fees.CollectionWallet))
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    views,
	})
}

// SubmitWithdrawal handles withdrawal creation requests. The destination
// address is validated for the named network and the withdrawal PIN must
// match before any balance moves.
func (h *Handler) SubmitWithdrawal(c *gin.Context) {
	var req model.SubmitWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := chain.ValidateAddress(req.Network, req.Address); err != nil {
		badRequest(c, err.Error())
		return
	}

	userID := middleware.UserID(c)
	if err := h.verifyPin(userID, req.Pin); err != nil {
		respondError(c, err)
		return
	}

	feeAmount := yield.NetworkFeeQuote(req.Amount, h.config.Fees)
	withdrawal, err := h.db.CreateWithdrawal(userID, &req, feeAmount, h.config.Fees.CollectionWallet)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.Send("New withdrawal %s: %.2f %s to %s (%s)",
		withdrawal.ID, withdrawal.Amount, withdrawal.Currency, withdrawal.WalletAddress, withdrawal.Network)

	c.JSON(http.StatusCreated, model.Response{
		Success: true,
		Data:    model.NewWithdrawalView(*withdrawal, h.config.Fees.CollectionWallet),
	})
}

// PayWithdrawalNetworkFee handles fee payment claims for a specific
// withdrawal. The transaction ID is required before anything is looked up;
// the state gate itself is enforced inside the database transaction.
func (h *Handler) PayWithdrawalNetworkFee(c *gin.Context) {
	var req model.PayNetworkFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "transaction_id is required")
		return
	}

	h.payNetworkFee(c, c.Param("id"), req.TransactionID)
}

// payNetworkFee is shared by the per-withdrawal route and the generic
// /api/fees/pay-network route.
func (h *Handler) payNetworkFee(c *gin.Context, withdrawalID, transactionID string) {
	userID := middleware.UserID(c)

	withdrawal, err := h.db.PayNetworkFee(withdrawalID, userID, transactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.Send("Network fee payment claimed for withdrawal %s (tx %s)", withdrawalID, transactionID)

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data: gin.H{
			"withdrawal":    model.NewWithdrawalView(*withdrawal, h.config.Fees.CollectionWallet),
			"withdrawal_id": withdrawal.ID,
			"status":        withdrawal.Status,
		},
	})
}

// AdminBulkUpdateStatus handles bulk withdrawal status updates (admin only).
// The ids field accepts a single ID or an array; each transition is validated
// against the status graph and invalid ones are reported, not applied.
func (h *Handler) AdminBulkUpdateStatus(c *gin.Context) {
	var req model.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if !req.Status.Valid() {
		badRequest(c, "invalid status")
		return
	}

	result, err := h.db.BulkUpdateStatus(req.IDs, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    result,
	})
}

// AdminSetNetworkFeeStatus handles fee sub-status overrides (admin only),
// e.g. rejecting a claimed payment so the withdrawal becomes payable again.
func (h *Handler) AdminSetNetworkFeeStatus(c *gin.Context) {
	var req struct {
		Status model.NetworkFeeStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	switch req.Status {
	case model.NetworkFeeUnpaid, model.NetworkFeePaid, model.NetworkFeeRejected:
	default:
		badRequest(c, "invalid fee status")
		return
	}

	withdrawal, err := h.db.SetNetworkFeeStatus(c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    model.NewWithdrawalView(*withdrawal, h.config.Fees.CollectionWallet),
	})
}

// verifyPin compares a submitted PIN against the stored hash.
func (h *Handler) verifyPin(userID int, pin string) error {
	hash, err := h.db.GetPinHash(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		return database.ErrPinMismatch
	}
	return nil
}
