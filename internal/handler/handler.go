package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"yieldapp/internal/database"
	"yieldapp/internal/model"
	"yieldapp/internal/notify"
)

// Handler manages HTTP request handling and business logic
type Handler struct {
	db       *database.Database
	config   model.Config
	notifier *notify.Notifier
}

// NewHandler creates a new Handler instance with the given database and the
// business config read from configPath.
func NewHandler(db *database.Database, configPath string) (*Handler, error) {
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %v", err)
	}

	var config model.Config
	if err := json.Unmarshal(configFile, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %v", err)
	}

	return NewHandlerWithConfig(db, config)
}

// NewHandlerWithConfig builds a Handler from an already-parsed config.
func NewHandlerWithConfig(db *database.Database, config model.Config) (*Handler, error) {
	notifier, err := notify.New(config.Telegram)
	if err != nil {
		// A broken bot token should not keep the API down.
		log.Printf("telegram notifier disabled: %v", err)
		notifier = nil
	}

	return &Handler{
		db:       db,
		config:   config,
		notifier: notifier,
	}, nil
}

// AdminAuth middleware checks if the request has a valid admin API key
func (h *Handler) AdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-API-Key")
		if apiKey == "" || apiKey != h.config.AdminAPIKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, model.Response{
				Success: false,
				Error:   "invalid API key",
			})
			return
		}
		c.Next()
	}
}

// GetConfigPublic returns the business configuration without secrets.
func (h *Handler) GetConfigPublic() model.ConfigPublic {
	return model.ConfigPublic{
		InvestmentPlans: h.config.InvestmentPlans,
		Fees:            h.config.Fees,
	}
}

// GetConfig returns the current configuration
func (h *Handler) GetConfig() model.Config {
	return h.config
}

// respondError maps database sentinel errors to HTTP statuses. Anything
// unrecognized is logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrWithdrawalNotFound),
		errors.Is(err, database.ErrInvestmentNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, database.ErrInsufficientBalance),
		errors.Is(err, database.ErrInsufficientROI),
		errors.Is(err, database.ErrFeeAlreadyPaid),
		errors.Is(err, database.ErrFeeNotPayable),
		errors.Is(err, database.ErrInvalidTransition):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, database.ErrNoOutstandingFee),
		errors.Is(err, database.ErrResetCodeInvalid),
		errors.Is(err, database.ErrInvestmentLocked):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, database.ErrPinNotSet),
		errors.Is(err, database.ErrPinMismatch):
		status = http.StatusForbidden
		message = err.Error()
	default:
		log.Printf("internal error: %v", err)
	}

	c.JSON(status, model.Response{Success: false, Error: message})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, model.Response{Success: false, Error: message})
}
