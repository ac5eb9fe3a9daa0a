package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yieldapp/internal/middleware"
	"yieldapp/internal/model"
)

// NewRouter wires every route of the API. User routes sit behind bearer
// auth, admin routes behind the API key.
func NewRouter(h *Handler, jwtSecret string) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(middleware.Cors())

	rateLimiter := middleware.NewIPRateLimiter(h.GetConfig().RateLimit)
	router.Use(rateLimiter.RateLimit())

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.GET("/api/v1/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, model.Response{Success: true, Data: h.GetConfigPublic()})
	})

	auth := router.Group("/api", middleware.BearerAuth(jwtSecret))
	{
		auth.GET("/user/withdrawals", h.GetUserWithdrawals)
		auth.GET("/user/operations", h.GetUserOperations)

		withdrawal := auth.Group("/withdrawal")
		{
			withdrawal.POST("", h.SubmitWithdrawal)
			withdrawal.POST("/:id/pay-network-fee", h.PayWithdrawalNetworkFee)
			withdrawal.POST("/set-withdrawal-pin", h.SetWithdrawalPin)
			withdrawal.POST("/verify-pin", h.VerifyWithdrawalPin)
			withdrawal.POST("/request-pin-reset", h.RequestPinReset)
			withdrawal.POST("/reset-pin", h.ResetWithdrawalPin)
		}

		fees := auth.Group("/fees")
		{
			fees.POST("/pay-activation", h.PayActivationFee)
			fees.POST("/pay-tax-clearance", h.PayTaxClearanceFee)
			fees.POST("/pay-network", h.PayNetworkFeeGeneric)
		}

		auth.GET("/portfolio/investment/:id", h.GetInvestment)
		auth.POST("/investment", h.CreateInvestment)
		auth.POST("/investment/withdraw-roi/:id", h.WithdrawROI)
	}

	admin := router.Group("/api/admin", h.AdminAuth())
	{
		admin.POST("/users", h.AdminCreateUser)
		admin.PUT("/users/:id/balance", h.AdminUpdateUserBalance)
		admin.POST("/users/:id/fees", h.AdminAssessFee)
		admin.PUT("/withdrawals/status", h.AdminBulkUpdateStatus)
		admin.PUT("/withdrawals/:id/network-fee", h.AdminSetNetworkFeeStatus)
		admin.PUT("/investments/:id/adjustment", h.AdminSetAdjustment)
	}

	return router
}
