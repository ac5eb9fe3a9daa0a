package model

import "time"

// FeeType tags the three fee kinds the platform assesses. Modeled as a closed
// enum so endpoint, title and description selection is exhaustive.
type FeeType string

const (
	FeeActivation   FeeType = "activation"
	FeeTaxClearance FeeType = "taxClearance"
	FeeNetwork      FeeType = "network"
)

func (t FeeType) Valid() bool {
	switch t {
	case FeeActivation, FeeTaxClearance, FeeNetwork:
		return true
	}
	return false
}

// FeeTitle returns the short display title for a fee type. Exactly four
// strings exist: one per known type plus the fallback.
func FeeTitle(t FeeType) string {
	switch t {
	case FeeActivation:
		return "Account Activation Fee"
	case FeeTaxClearance:
		return "Tax Clearance Fee"
	case FeeNetwork:
		return "Network Processing Fee"
	default:
		return "Service Fee"
	}
}

// FeeDescription returns the one-sentence explanation paired with FeeTitle.
func FeeDescription(t FeeType) string {
	switch t {
	case FeeActivation:
		return "A one-time fee required to activate withdrawals on your account."
	case FeeTaxClearance:
		return "A clearance fee on accumulated profits required before funds can be released."
	case FeeNetwork:
		return "A blockchain network fee required to broadcast this withdrawal."
	default:
		return "A fee required to continue processing your request."
	}
}

type FeeStatus string

const (
	FeeRequired       FeeStatus = "required"
	FeePaidStatus     FeeStatus = "paid"
	FeeRejectedStatus FeeStatus = "rejected"
)

// FeeAssessment is a row in the fee ledger: an obligation quoted against a
// user, optionally tied to a withdrawal (network fees only).
type FeeAssessment struct {
	ID            string     `json:"id"`
	UserID        int        `json:"user_id"`
	Type          FeeType    `json:"type"`
	Amount        float64    `json:"amount"`
	Reason        string     `json:"reason"`
	Status        FeeStatus  `json:"status"`
	TransactionID string     `json:"transaction_id,omitempty"`
	WithdrawalID  string     `json:"withdrawal_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
}

// FeeRequirement is the client projection of an outstanding assessment,
// returned by withdraw-roi when a fee blocks the withdrawal.
type FeeRequirement struct {
	Required bool    `json:"required"`
	Amount   float64 `json:"amount,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

type AssessFeeRequest struct {
	Type   FeeType `json:"type" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Reason string  `json:"reason" binding:"required"`
}
