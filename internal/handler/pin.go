package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"yieldapp/internal/middleware"
	"yieldapp/internal/model"
)

const pinResetTTL = 15 * time.Minute

func pinValid(pin string) bool {
	if len(pin) < 4 || len(pin) > 6 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SetWithdrawalPin handles PIN creation. The PIN gates withdrawal submission
// and is stored as a bcrypt hash.
func (h *Handler) SetWithdrawalPin(c *gin.Context) {
	var req model.SetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "pin is required")
		return
	}
	if !pinValid(req.Pin) {
		badRequest(c, "pin must be 4 to 6 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.SetPin(middleware.UserID(c), string(hash)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    gin.H{"message": "withdrawal pin set"},
	})
}

// VerifyWithdrawalPin handles PIN verification requests.
func (h *Handler) VerifyWithdrawalPin(c *gin.Context) {
	var req model.VerifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "pin is required")
		return
	}

	if err := h.verifyPin(middleware.UserID(c), req.Pin); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    gin.H{"valid": true},
	})
}

// RequestPinReset issues a one-time reset code. The code is delivered through
// the operator channel, never echoed in the response.
func (h *Handler) RequestPinReset(c *gin.Context) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		respondError(c, err)
		return
	}
	code := hex.EncodeToString(buf)

	userID := middleware.UserID(c)
	if err := h.db.SetPinResetCode(userID, code, time.Now().Add(pinResetTTL)); err != nil {
		respondError(c, err)
		return
	}

	h.notifier.Send("PIN reset requested by user %d, code %s", userID, code)

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    gin.H{"message": "a reset code has been issued"},
	})
}

// ResetWithdrawalPin consumes a reset code and installs a new PIN.
func (h *Handler) ResetWithdrawalPin(c *gin.Context) {
	var req model.ResetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "reset_code and new_pin are required")
		return
	}
	if !pinValid(req.NewPin) {
		badRequest(c, "pin must be 4 to 6 digits")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPin), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.db.ResetPin(middleware.UserID(c), req.ResetCode, string(hash), time.Now()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.Response{
		Success: true,
		Data:    gin.H{"message": "withdrawal pin reset"},
	})
}
