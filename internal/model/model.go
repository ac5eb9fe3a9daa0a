package model

import (
	"time"
)

// User represents a platform account. Funding is simulated: balances move
// through recorded operations and admin corrections, never chain scans.
type User struct {
	ID        int       `json:"id"`
	PubKey    string    `json:"pub_key"`
	Balance   float64   `json:"balance"`
	HasPin    bool      `json:"has_pin"`
	CreatedAt time.Time `json:"created_at"`
}

// Response is the envelope every endpoint replies with.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// InvestmentPlanConfig describes a fixed-yield plan.
type InvestmentPlanConfig struct {
	WeeklyPercent float64 `json:"weekly_percent"`
	MinAmount     float64 `json:"min_amount"`
	LockPeriod    int     `json:"lock_period_days"` // 0 means can withdraw anytime
}

// FeeScheduleConfig quotes network fees and names the wallet they are paid into.
type FeeScheduleConfig struct {
	NetworkPercent   float64 `json:"network_percent"`
	NetworkMinimum   float64 `json:"network_minimum"`
	CollectionWallet string  `json:"collection_wallet"`
}

type TelegramConfig struct {
	BotToken    string `json:"bot_token"`
	AdminChatID int64  `json:"admin_chat_id"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `json:"requests_per_second"`
	BurstSize         int `json:"burst_size"`
}

// Config is the business configuration loaded from a JSON file at startup.
type Config struct {
	InvestmentPlans map[string]InvestmentPlanConfig `json:"investment_plans"`
	Fees            FeeScheduleConfig               `json:"fees"`
	AdminAPIKey     string                          `json:"admin_api_key"`
	Telegram        TelegramConfig                  `json:"telegram"`
	RateLimit       RateLimitConfig                 `json:"rate_limit"`
}

// ConfigPublic is the slice of Config safe to expose to clients.
type ConfigPublic struct {
	InvestmentPlans map[string]InvestmentPlanConfig `json:"investment_plans"`
	Fees            FeeScheduleConfig               `json:"fees"`
}

// OperationType represents the type of operation
type OperationType string

const (
	OperationTypeInvestmentCreated OperationType = "investment_created"
	OperationTypeWithdrawal        OperationType = "withdrawal"
	OperationTypeROIWithdrawal     OperationType = "roi_withdrawal"
	OperationTypeFeePayment        OperationType = "fee_payment"
	OperationTypeAdminAdjustment   OperationType = "admin_adjustment"
)

// Operation represents an audit record for a balance-affecting event.
type Operation struct {
	ID          int64         `json:"id"`
	UserID      int           `json:"user_id"`
	Type        OperationType `json:"type"`
	Amount      float64       `json:"amount"`
	Description string        `json:"description"`
	CreatedAt   int64         `json:"created_at"`
	Extra       interface{}   `json:"extra,omitempty"`
}

// OperationHistory represents a list of operations with pagination info
type OperationHistory struct {
	Operations []Operation `json:"operations"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
}
