package database

import (
	"database/sql"
	"fmt"
	"time"

	"yieldapp/internal/model"
)

// CreateInvestment stakes part of the user's balance into a plan, atomically.
func (d *Database) CreateInvestment(userID int, plan string, amount float64) (*model.Investment, error) {
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
	if balance < amount {
		return nil, ErrInsufficientBalance
	}

	if _, err := tx.Exec("UPDATE users SET balance = balance - ? WHERE id = ?", amount, userID); err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	res, err := tx.Exec(
		"INSERT INTO investments (user_id, plan, amount, created_at) VALUES (?, ?, ?, ?)",
		userID, plan, amount, now,
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	op := &model.Operation{
		UserID:      userID,
		Type:        model.OperationTypeInvestmentCreated,
		Amount:      amount,
		Description: fmt.Sprintf("Created %s investment", plan),
		CreatedAt:   now,
		Extra:       map[string]interface{}{"plan": plan, "investment_id": id},
	}
	if err := addOperation(tx, op); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return d.GetInvestment(id)
}

// GetInvestment retrieves an investment by ID.
func (d *Database) GetInvestment(id int64) (*model.Investment, error) {
	var inv model.Investment
	err := d.db.QueryRow(
		"SELECT id, user_id, plan, amount, adjusted_gain, roi_withdrawn, created_at FROM investments WHERE id = ?",
		id,
	).Scan(&inv.ID, &inv.UserID, &inv.Plan, &inv.Amount, &inv.AdjustedGain, &inv.ROIWithdrawn, &inv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrInvestmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// GetUserInvestments lists a user's investments, newest first.
func (d *Database) GetUserInvestments(userID int) ([]model.Investment, error) {
	rows, err := d.db.Query(
		"SELECT id, user_id, plan, amount, adjusted_gain, roi_withdrawn, created_at FROM investments WHERE user_id = ? ORDER BY created_at DESC, id DESC",
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	investments := make([]model.Investment, 0)
	for rows.Next() {
		var inv model.Investment
		if err := rows.Scan(&inv.ID, &inv.UserID, &inv.Plan, &inv.Amount, &inv.AdjustedGain, &inv.ROIWithdrawn, &inv.CreatedAt); err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

// SetAdjustedGain applies an admin gain or loss to an investment.
func (d *Database) SetAdjustedGain(id int64, gain float64) error {
	res, err := d.db.Exec("UPDATE investments SET adjusted_gain = ? WHERE id = ?", gain, id)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrInvestmentNotFound
	}
	return nil
}

// AddAdminAdjustmentOperation records an admin balance or gain correction in
// the audit trail.
func (d *Database) AddAdminAdjustmentOperation(userID int, amount float64, description string) error {
	return d.AddOperation(&model.Operation{
		UserID:      userID,
		Type:        model.OperationTypeAdminAdjustment,
		Amount:      amount,
		Description: description,
	})
}
