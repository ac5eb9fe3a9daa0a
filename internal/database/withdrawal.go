package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"yieldapp/internal/model"
)

const withdrawalColumns = `id, user_id, amount, type, status, currency, network,
	wallet_address, fee_status, fee_amount, fee_wallet, fee_tx_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanWithdrawal tolerates NULL or missing optional columns: a row with no
// fee sub-record yields NetworkFee == nil, and damaged amounts or timestamps
// degrade to zero values instead of failing the whole list.
func scanWithdrawal(row rowScanner) (*model.Withdrawal, error) {
	var w model.Withdrawal
	var amount sql.NullFloat64
	var walletAddress, feeStatus, feeWallet, feeTxID sql.NullString
	var feeAmount sql.NullFloat64
	var createdAt, updatedAt sql.NullInt64

	err := row.Scan(
		&w.ID, &w.UserID, &amount, &w.Type, &w.Status, &w.Currency, &w.Network,
		&walletAddress, &feeStatus, &feeAmount, &feeWallet, &feeTxID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Amount = amount.Float64
	w.WalletAddress = walletAddress.String
	if createdAt.Valid {
		w.CreatedAt = time.Unix(createdAt.Int64, 0)
	}
	if updatedAt.Valid {
		w.UpdatedAt = time.Unix(updatedAt.Int64, 0)
	}
	if feeStatus.Valid && feeStatus.String != "" {
		w.NetworkFee = &model.NetworkFee{
			Status:        model.NetworkFeeStatus(feeStatus.String),
			Amount:        feeAmount.Float64,
			WalletAddress: feeWallet.String,
			TransactionID: feeTxID.String,
		}
	}
	return &w, nil
}

// CreateWithdrawal debits the user's balance and records a pending standard
// withdrawal with an unpaid network fee, atomically.
func (d *Database) CreateWithdrawal(userID int, req *model.SubmitWithdrawalRequest, feeAmount float64, feeWallet string) (*model.Withdrawal, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var balance float64
	err = tx.QueryRow("SELECT balance FROM users WHERE id = ?", userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if balance < req.Amount {
		return nil, ErrInsufficientBalance
	}

	if _, err := tx.Exec("UPDATE users SET balance = balance - ? WHERE id = ?", req.Amount, userID); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	id := uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO withdrawals (id, user_id, amount, type, status, currency, network,
			wallet_address, fee_status, fee_amount, fee_wallet, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, req.Amount, model.WithdrawalTypeStandard, model.WithdrawalPending,
		req.Currency, req.Network, req.Address, model.NetworkFeeUnpaid, feeAmount, feeWallet,
		now, now,
	)
	if err != nil {
		return nil, err
	}

	op := &model.Operation{
		UserID:      userID,
		Type:        model.OperationTypeWithdrawal,
		Amount:      req.Amount,
		Description: fmt.Sprintf("Withdrawal of %.2f %s to %s", req.Amount, req.Currency, req.Address),
		CreatedAt:   now,
		Extra:       map[string]interface{}{"withdrawal_id": id, "network": req.Network},
	}
	if err := addOperation(tx, op); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d.GetWithdrawal(id)
}

// CreateROIWithdrawal books an ROI payout against an investment: the accrued
// amount moves to roi_withdrawn and a pending roi-type withdrawal is created
// with an unpaid network fee.
func (d *Database) CreateROIWithdrawal(inv *model.Investment, amount float64, currency, network string, feeAmount float64, feeWallet string) (*model.Withdrawal, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"UPDATE investments SET roi_withdrawn = roi_withdrawn + ? WHERE id = ?",
		amount, inv.ID,
	)
	if err != nil {
		return nil, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, ErrInvestmentNotFound
	}

	now := time.Now().Unix()
	id := uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO withdrawals (id, user_id, amount, type, status, currency, network,
			fee_status, fee_amount, fee_wallet, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, inv.UserID, amount, model.WithdrawalTypeROI, model.WithdrawalPending,
		currency, network, model.NetworkFeeUnpaid, feeAmount, feeWallet, now, now,
	)
	if err != nil {
		return nil, err
	}

	op := &model.Operation{
		UserID:      inv.UserID,
		Type:        model.OperationTypeROIWithdrawal,
		Amount:      amount,
		Description: fmt.Sprintf("ROI withdrawal of %.2f %s from investment %d", amount, currency, inv.ID),
		CreatedAt:   now,
		Extra:       map[string]interface{}{"withdrawal_id": id, "investment_id": inv.ID},
	}
	if err := addOperation(tx, op); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d.GetWithdrawal(id)
}

// GetWithdrawal retrieves a withdrawal by ID.
func (d *Database) GetWithdrawal(id string) (*model.Withdrawal, error) {
	row := d.db.QueryRow("SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = ?", id)
	w, err := scanWithdrawal(row)
	if err == sql.ErrNoRows {
		return nil, ErrWithdrawalNotFound
	}
	return w, err
}

// GetUserWithdrawals lists a user's withdrawals, newest first. The result is
// never nil.
func (d *Database) GetUserWithdrawals(userID int) ([]model.Withdrawal, error) {
	rows, err := d.db.Query(
		"SELECT "+withdrawalColumns+" FROM withdrawals WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	withdrawals := make([]model.Withdrawal, 0)
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, err
		}
		withdrawals = append(withdrawals, *w)
	}
	return withdrawals, rows.Err()
}

// PayNetworkFee applies a user's fee payment claim to a withdrawal. The gate
// is enforced by a conditional update, so concurrent claims cannot both
// succeed: the fee must be absent, unpaid or rejected and the withdrawal must
// be processing. On success the fee is marked paid, a ledger row is written
// and the withdrawal returns to pending for the operator queue.
func (d *Database) PayNetworkFee(withdrawalID string, userID int, transactionID string) (*model.Withdrawal, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	res, err := tx.Exec(
		`UPDATE withdrawals
		 SET fee_status = ?, fee_tx_id = ?, status = ?, updated_at = ?
		 WHERE id = ? AND user_id = ? AND status = ?
		   AND (fee_status IS NULL OR fee_status IN (?, ?))`,
		model.NetworkFeePaid, transactionID, model.WithdrawalPending, now,
		withdrawalID, userID, model.WithdrawalProcessing,
		model.NetworkFeeUnpaid, model.NetworkFeeRejected,
	)
	if err != nil {
		return nil, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, d.classifyFeeGateFailure(tx, withdrawalID, userID)
	}

	w, err := scanWithdrawal(tx.QueryRow("SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = ?", withdrawalID))
	if err != nil {
		return nil, err
	}

	feeAmount := 0.0
	if w.NetworkFee != nil {
		feeAmount = w.NetworkFee.Amount
	}
	_, err = tx.Exec(
		`INSERT INTO fees (id, user_id, type, amount, reason, status, transaction_id, withdrawal_id, created_at, paid_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), userID, model.FeeNetwork, feeAmount,
		model.FeeDescription(model.FeeNetwork), model.FeePaidStatus,
		transactionID, withdrawalID, now, now,
	)
	if err != nil {
		return nil, err
	}

	op := &model.Operation{
		UserID:      userID,
		Type:        model.OperationTypeFeePayment,
		Amount:      feeAmount,
		Description: fmt.Sprintf("Network fee payment for withdrawal %s", withdrawalID),
		CreatedAt:   now,
		Extra:       map[string]interface{}{"withdrawal_id": withdrawalID, "transaction_id": transactionID},
	}
	if err := addOperation(tx, op); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return w, nil
}

// classifyFeeGateFailure turns a lost conditional update into the precise
// business error the client should see.
func (d *Database) classifyFeeGateFailure(tx *sql.Tx, withdrawalID string, userID int) error {
	w, err := scanWithdrawal(tx.QueryRow("SELECT "+withdrawalColumns+" FROM withdrawals WHERE id = ?", withdrawalID))
	if err == sql.ErrNoRows {
		return ErrWithdrawalNotFound
	}
	if err != nil {
		return err
	}
	if w.UserID != userID {
		return ErrWithdrawalNotFound
	}
	if w.NetworkFee != nil && w.NetworkFee.Status == model.NetworkFeePaid {
		return ErrFeeAlreadyPaid
	}
	return ErrFeeNotPayable
}

// UpdateWithdrawalStatus moves a withdrawal along the status graph. The
// update is conditional on the current status so a concurrent transition
// cannot be overwritten.
func (d *Database) UpdateWithdrawalStatus(id string, to model.WithdrawalStatus) error {
	w, err := d.GetWithdrawal(id)
	if err != nil {
		return err
	}
	if !model.CanTransition(w.Status, to) {
		return ErrInvalidTransition
	}

	res, err := d.db.Exec(
		"UPDATE withdrawals SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		to, time.Now().Unix(), id, w.Status,
	)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// BulkUpdateStatus applies a status transition to each ID, reporting which
// records were updated and which were rejected.
func (d *Database) BulkUpdateStatus(ids []string, to model.WithdrawalStatus) (*model.BulkStatusResult, error) {
	result := &model.BulkStatusResult{
		Updated:  make([]string, 0, len(ids)),
		Rejected: make([]string, 0),
	}
	for _, id := range ids {
		err := d.UpdateWithdrawalStatus(id, to)
		switch {
		case err == nil:
			result.Updated = append(result.Updated, id)
		case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrWithdrawalNotFound):
			result.Rejected = append(result.Rejected, id)
		default:
			return nil, err
		}
	}
	return result, nil
}

// SetNetworkFeeStatus lets an admin override the fee sub-status, e.g. reject
// a claimed payment so the gate reopens.
func (d *Database) SetNetworkFeeStatus(id string, status model.NetworkFeeStatus) (*model.Withdrawal, error) {
	res, err := d.db.Exec(
		"UPDATE withdrawals SET fee_status = ?, updated_at = ? WHERE id = ? AND fee_status IS NOT NULL",
		status, time.Now().Unix(), id,
	)
	if err != nil {
		return nil, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, ErrWithdrawalNotFound
	}
	return d.GetWithdrawal(id)
}
