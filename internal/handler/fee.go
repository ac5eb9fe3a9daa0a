package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yieldapp/internal/middleware"
	"yieldapp/internal/model"
)

// feeView decorates a ledger row with its display title and description.
func feeView(f *model.FeeAssessment) gin.H {
	return gin.H{
		"fee":         f,
		"title":       model.FeeTitle(f.Type),
		"description": model.FeeDescription(f.Type),
	}
}

// PayActivationFee handles POST /api/fees/pay-activation.
func (h *Handler) PayActivationFee(c *gin.Context) {
	h.payAssessedFee(c, model.FeeActivation)
}

// PayTaxClearanceFee handles POST /api/fees/pay-tax-clearance.
func (h *Handler) PayTaxClearanceFee(c *gin.Context) {
	h.payAssessedFee(c, model.FeeTaxClearance)
}

func (h *Handler) payAssessedFee(c *gin.Context, feeType model.FeeType) {
	var req model.PayFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "transaction_id is required")
		return
	}

	userID := middleware.UserID(c)
	fee, err := h.db.PayFee(userID, feeType, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.Send("%s payment claimed by user %d (tx %s)", model.FeeTitle(feeType), userID, req.TransactionID)

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    feeView(fee),
	})
}

// PayNetworkFeeGeneric handles POST /api/fees/pay-network. Unlike the
// per-withdrawal route the target withdrawal comes from the body, and a
// missing withdrawal_id fails before anything is looked up.
func (h *Handler) PayNetworkFeeGeneric(c *gin.Context) {
	var req model.PayFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "transaction_id is required")
		return
	}
	if req.WithdrawalID == "" {
		badRequest(c, "withdrawal_id is required for network fee payments")
		return
	}

	h.payNetworkFee(c, req.WithdrawalID, req.TransactionID)
}

// AdminAssessFee handles fee assessments against a user (admin only).
// Network fees are quoted by the system per withdrawal, so only activation
// and tax-clearance assessments can be created here.
func (h *Handler) AdminAssessFee(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid user ID")
		return
	}

	var req model.AssessFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Type != model.FeeActivation && req.Type != model.FeeTaxClearance {
		badRequest(c, "fee type must be activation or taxClearance")
		return
	}

	if _, err := h.db.GetUser(userID); err != nil {
		respondError(c, err)
		return
	}

	fee, err := h.db.AssessFee(userID, req.Type, req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.Response{
		Success: true,
		Data:    feeView(fee),
	})
}
