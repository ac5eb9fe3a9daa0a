package model

// Investment is a stake in a fixed-yield plan. Accrued ROI is computed from
// the plan table at read time, never stored; adjusted_gain carries
// admin-applied gains or losses and roi_withdrawn what has already been paid
// out.
type Investment struct {
	ID           int64   `json:"id"`
	UserID       int     `json:"user_id"`
	Plan         string  `json:"plan"`
	Amount       float64 `json:"amount"`
	AdjustedGain float64 `json:"adjusted_gain"`
	ROIWithdrawn float64 `json:"roi_withdrawn"`
	CreatedAt    int64   `json:"created_at"`
}

type CreateInvestmentRequest struct {
	Plan   string  `json:"plan" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type AdjustmentRequest struct {
	AdjustedGain float64 `json:"adjusted_gain"`
}

type UpdateBalanceRequest struct {
	Balance float64 `json:"balance"`
}

// Pin management bodies.

type SetPinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

type VerifyPinRequest struct {
	Pin string `json:"pin" binding:"required"`
}

type ResetPinRequest struct {
	ResetCode string `json:"reset_code" binding:"required"`
	NewPin    string `json:"new_pin" binding:"required"`
}
