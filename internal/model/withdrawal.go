package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type WithdrawalType string

const (
	WithdrawalTypeStandard WithdrawalType = "standard"
	WithdrawalTypeROI      WithdrawalType = "roi"
)

type WithdrawalStatus string

const (
	WithdrawalPending    WithdrawalStatus = "pending"
	WithdrawalProcessing WithdrawalStatus = "processing"
	WithdrawalConfirmed  WithdrawalStatus = "confirmed"
	WithdrawalCompleted  WithdrawalStatus = "completed"
	WithdrawalFailed     WithdrawalStatus = "failed"
	WithdrawalCancelled  WithdrawalStatus = "cancelled"
	WithdrawalRejected   WithdrawalStatus = "rejected"
)

type NetworkFeeStatus string

const (
	NetworkFeeUnpaid   NetworkFeeStatus = "unpaid"
	NetworkFeePaid     NetworkFeeStatus = "paid"
	NetworkFeeRejected NetworkFeeStatus = "rejected"
)

// NetworkFee is the fee sub-record attached to a withdrawal. A nil NetworkFee
// on a Withdrawal means no fee has been quoted yet; the payment gate treats
// that the same as an unpaid fee.
type NetworkFee struct {
	Status        NetworkFeeStatus `json:"status"`
	Amount        float64          `json:"amount"`
	WalletAddress string           `json:"wallet_address"`
	TransactionID string           `json:"transaction_id,omitempty"`
}

type Withdrawal struct {
	ID            string           `json:"id"`
	UserID        int              `json:"user_id"`
	Amount        float64          `json:"amount"`
	Type          WithdrawalType   `json:"type"`
	Status        WithdrawalStatus `json:"status"`
	Currency      string           `json:"currency"`
	Network       string           `json:"network"`
	WalletAddress string           `json:"wallet_address,omitempty"`
	NetworkFee    *NetworkFee      `json:"network_fee,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// FeePayable reports whether the withdrawal currently accepts a network-fee
// payment: it must be processing and the fee must be absent, unpaid or
// rejected. This is the single gating rule of the withdrawal flow.
func (w *Withdrawal) FeePayable() bool {
	if w.Status != WithdrawalProcessing {
		return false
	}
	if w.NetworkFee == nil {
		return true
	}
	return w.NetworkFee.Status == NetworkFeeUnpaid || w.NetworkFee.Status == NetworkFeeRejected
}

// Label returns the display label for the withdrawal. Standard withdrawals
// name their destination, falling back to the platform collection wallet when
// the record carries no address.
func (w *Withdrawal) Label(fallbackAddress string) string {
	if w.Type == WithdrawalTypeROI {
		return "ROI Withdrawal"
	}
	addr := w.WalletAddress
	if addr == "" {
		addr = fallbackAddress
	}
	return "Withdrawal to " + addr
}

func (s WithdrawalStatus) Valid() bool {
	_, ok := statusTable[s]
	return ok
}

// transitions is the allowed status graph. Paying the network fee moves a
// processing withdrawal back to pending so it re-enters the operator queue.
var transitions = map[WithdrawalStatus][]WithdrawalStatus{
	WithdrawalPending:    {WithdrawalProcessing, WithdrawalCancelled, WithdrawalRejected},
	WithdrawalProcessing: {WithdrawalPending, WithdrawalConfirmed, WithdrawalFailed, WithdrawalRejected},
	WithdrawalConfirmed:  {WithdrawalCompleted, WithdrawalFailed},
	WithdrawalCompleted:  {},
	WithdrawalFailed:     {},
	WithdrawalCancelled:  {},
	WithdrawalRejected:   {},
}

// CanTransition reports whether a withdrawal may move from one status to
// another. Self-transitions are not allowed.
func CanTransition(from, to WithdrawalStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusInfo is the display metadata attached to each listed withdrawal.
type StatusInfo struct {
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var statusTable = map[WithdrawalStatus]StatusInfo{
	WithdrawalPending:    {Icon: "clock", Description: "Awaiting review by the processing desk"},
	WithdrawalProcessing: {Icon: "refresh", Description: "Being processed; a network fee may be required before release"},
	WithdrawalConfirmed:  {Icon: "check", Description: "Confirmed and queued for broadcast"},
	WithdrawalCompleted:  {Icon: "check-double", Description: "Sent to the destination wallet"},
	WithdrawalFailed:     {Icon: "x", Description: "Could not be completed"},
	WithdrawalCancelled:  {Icon: "ban", Description: "Cancelled before processing"},
	WithdrawalRejected:   {Icon: "alert", Description: "Rejected by the operator"},
}

// StatusInfoFor selects display metadata by status. Unknown statuses get a
// neutral entry so a bad row never breaks the list.
func StatusInfoFor(s WithdrawalStatus) StatusInfo {
	if info, ok := statusTable[s]; ok {
		return info
	}
	return StatusInfo{Icon: "question", Description: "Unknown status"}
}

// WithdrawalView is the list projection of a withdrawal: the record plus the
// computed gate, display label and status metadata.
type WithdrawalView struct {
	Withdrawal
	FeePayable bool       `json:"fee_payable"`
	Label      string     `json:"label"`
	StatusInfo StatusInfo `json:"status_info"`
}

func NewWithdrawalView(w Withdrawal, fallbackAddress string) WithdrawalView {
	return WithdrawalView{
		Withdrawal: w,
		FeePayable: w.FeePayable(),
		Label:      w.Label(fallbackAddress),
		StatusInfo: StatusInfoFor(w.Status),
	}
}

// IDList accepts null, a single scalar or an array of scalars and normalizes
// to a slice of ID strings. Numeric IDs are rendered in decimal.
type IDList []string

func (l *IDList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*l = IDList{}
	case []interface{}:
		out := make(IDList, 0, len(v))
		for _, item := range v {
			id, err := idString(item)
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		*l = out
	default:
		id, err := idString(v)
		if err != nil {
			return err
		}
		*l = IDList{id}
	}
	return nil
}

func idString(v interface{}) (string, error) {
	switch id := v.(type) {
	case string:
		return id, nil
	case json.Number:
		return id.String(), nil
	default:
		return "", fmt.Errorf("invalid id: %v", v)
	}
}

// Request bodies.

type SubmitWithdrawalRequest struct {
	Amount   float64 `json:"amount" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required"`
	Network  string  `json:"network" binding:"required"`
	Address  string  `json:"address" binding:"required"`
	Pin      string  `json:"pin" binding:"required"`
}

type PayNetworkFeeRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

// PayFeeRequest covers the generic /api/fees/pay-* routes. WithdrawalID is
// required only for the network fee type.
type PayFeeRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
	WithdrawalID  string `json:"withdrawal_id"`
}

type BulkStatusRequest struct {
	IDs    IDList           `json:"ids"`
	Status WithdrawalStatus `json:"status" binding:"required"`
}

// BulkStatusResult reports the outcome of an admin bulk status update.
type BulkStatusResult struct {
	Updated  []string `json:"updated"`
	Rejected []string `json:"rejected"`
}
