package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"yieldapp/internal/model"
)

const feeColumns = `id, user_id, type, amount, reason, status, transaction_id, withdrawal_id, created_at, paid_at`

func scanFee(row rowScanner) (*model.FeeAssessment, error) {
	var f model.FeeAssessment
	var transactionID, withdrawalID sql.NullString
	var createdAt int64
	var paidAt sql.NullInt64

	err := row.Scan(&f.ID, &f.UserID, &f.Type, &f.Amount, &f.Reason, &f.Status,
		&transactionID, &withdrawalID, &createdAt, &paidAt)
	if err != nil {
		return nil, err
	}

	f.TransactionID = transactionID.String
	f.WithdrawalID = withdrawalID.String
	f.CreatedAt = time.Unix(createdAt, 0)
	if paidAt.Valid {
		t := time.Unix(paidAt.Int64, 0)
		f.PaidAt = &t
	}
	return &f, nil
}

// AssessFee quotes a fee obligation against a user (admin action).
func (d *Database) AssessFee(userID int, feeType model.FeeType, amount float64, reason string) (*model.FeeAssessment, error) {
	id := uuid.New().String()
	_, err := d.db.Exec(
		`INSERT INTO fees (id, user_id, type, amount, reason, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, userID, feeType, amount, reason, model.FeeRequired, time.Now().Unix(),
	)
	if err != nil {
		return nil, err
	}
	return d.GetFee(id)
}

func (d *Database) GetFee(id string) (*model.FeeAssessment, error) {
	f, err := scanFee(d.db.QueryRow("SELECT "+feeColumns+" FROM fees WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, ErrNoOutstandingFee
	}
	return f, err
}

// OutstandingFee returns the oldest unpaid assessment of the given type, or
// nil when the user owes nothing.
func (d *Database) OutstandingFee(userID int, feeType model.FeeType) (*model.FeeAssessment, error) {
	f, err := scanFee(d.db.QueryRow(
		"SELECT "+feeColumns+" FROM fees WHERE user_id = ? AND type = ? AND status = ? ORDER BY created_at ASC LIMIT 1",
		userID, feeType, model.FeeRequired,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

// PayFee marks the user's outstanding assessment of the given type paid. The
// update is conditional on the required status, so a duplicate claim loses
// the race and is rejected.
func (d *Database) PayFee(userID int, feeType model.FeeType, transactionID string) (*model.FeeAssessment, error) {
	outstanding, err := d.OutstandingFee(userID, feeType)
	if err != nil {
		return nil, err
	}
	if outstanding == nil {
		return nil, ErrNoOutstandingFee
	}

	tx, err := d.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	res, err := tx.Exec(
		"UPDATE fees SET status = ?, transaction_id = ?, paid_at = ? WHERE id = ? AND status = ?",
		model.FeePaidStatus, transactionID, now, outstanding.ID, model.FeeRequired,
	)
	if err != nil {
		return nil, err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return nil, ErrFeeAlreadyPaid
	}

	op := &model.Operation{
		UserID:      userID,
		Type:        model.OperationTypeFeePayment,
		Amount:      outstanding.Amount,
		Description: fmt.Sprintf("%s payment", model.FeeTitle(feeType)),
		CreatedAt:   now,
		Extra:       map[string]interface{}{"fee_id": outstanding.ID, "transaction_id": transactionID},
	}
	if err := addOperation(tx, op); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d.GetFee(outstanding.ID)
}
