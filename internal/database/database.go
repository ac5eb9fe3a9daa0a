package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"yieldapp/internal/model"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrWithdrawalNotFound  = errors.New("withdrawal not found")
	ErrInvestmentNotFound  = errors.New("investment not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientROI     = errors.New("insufficient accrued ROI")
	ErrFeeNotPayable       = errors.New("withdrawal does not accept a fee payment")
	ErrFeeAlreadyPaid      = errors.New("fee already paid")
	ErrNoOutstandingFee    = errors.New("no outstanding fee of this type")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrPinNotSet           = errors.New("withdrawal pin not set")
	ErrPinMismatch         = errors.New("invalid withdrawal pin")
	ErrResetCodeInvalid    = errors.New("invalid or expired reset code")
	ErrInvestmentLocked    = errors.New("investment is still locked")
)

// Database represents a connection to the SQLite database
type Database struct {
	db *sql.DB
}

// New creates a new Database instance and initializes the schema
func New(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("error creating tables: %v", err)
	}

	return &Database{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pub_key TEXT UNIQUE NOT NULL,
			balance REAL NOT NULL DEFAULT 0,
			pin_hash TEXT,
			pin_reset_code TEXT,
			pin_reset_expires INTEGER,
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS investments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			plan TEXT NOT NULL,
			amount REAL NOT NULL,
			adjusted_gain REAL NOT NULL DEFAULT 0,
			roi_withdrawn REAL NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS withdrawals (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			amount REAL NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			currency TEXT NOT NULL,
			network TEXT NOT NULL,
			wallet_address TEXT,
			fee_status TEXT,
			fee_amount REAL,
			fee_wallet TEXT,
			fee_tx_id TEXT,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS fees (
			id TEXT PRIMARY KEY,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			amount REAL NOT NULL,
			reason TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'required',
			transaction_id TEXT,
			withdrawal_id TEXT,
			created_at INTEGER NOT NULL,
			paid_at INTEGER,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS operations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			type TEXT NOT NULL,
			amount REAL NOT NULL,
			description TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			extra TEXT,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query: %v\nQuery: %s", err, query)
		}
	}

	return nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

func (d *Database) DB() *sql.DB {
	return d.db
}

// CreateUser creates a new user with the given public key, returning the
// existing account when the key is already registered.
func (d *Database) CreateUser(pubKey string) (*model.User, error) {
	existing, err := d.GetUserByPubKey(pubKey)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	res, err := d.db.Exec(
		"INSERT INTO users (pub_key, balance, created_at) VALUES (?, 0, ?)",
		pubKey, time.Now().Unix(),
	)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return d.GetUser(int(id))
}

func (d *Database) scanUser(row *sql.Row) (*model.User, error) {
	var user model.User
	var pinHash sql.NullString
	var createdAt int64

	err := row.Scan(&user.ID, &user.PubKey, &user.Balance, &pinHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	user.HasPin = pinHash.Valid && pinHash.String != ""
	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

// GetUser retrieves a user by their ID
func (d *Database) GetUser(id int) (*model.User, error) {
	row := d.db.QueryRow("SELECT id, pub_key, balance, pin_hash, created_at FROM users WHERE id = ?", id)
	return d.scanUser(row)
}

// GetUserByPubKey retrieves a user by their public key
func (d *Database) GetUserByPubKey(pubKey string) (*model.User, error) {
	row := d.db.QueryRow("SELECT id, pub_key, balance, pin_hash, created_at FROM users WHERE pub_key = ?", pubKey)
	return d.scanUser(row)
}

// UpdateUserBalance sets a user's balance to the given value (admin only).
func (d *Database) UpdateUserBalance(userID int, balance float64) error {
	res, err := d.db.Exec("UPDATE users SET balance = ? WHERE id = ?", balance, userID)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// SetPin stores a bcrypt hash of the user's withdrawal PIN.
func (d *Database) SetPin(userID int, pinHash string) error {
	res, err := d.db.Exec(
		"UPDATE users SET pin_hash = ?, pin_reset_code = NULL, pin_reset_expires = NULL WHERE id = ?",
		pinHash, userID,
	)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetPinHash returns the stored PIN hash, or ErrPinNotSet when none exists.
func (d *Database) GetPinHash(userID int) (string, error) {
	var hash sql.NullString
	err := d.db.QueryRow("SELECT pin_hash FROM users WHERE id = ?", userID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	if !hash.Valid || hash.String == "" {
		return "", ErrPinNotSet
	}
	return hash.String, nil
}

// SetPinResetCode attaches a one-time reset code with an expiry to the user.
func (d *Database) SetPinResetCode(userID int, code string, expires time.Time) error {
	res, err := d.db.Exec(
		"UPDATE users SET pin_reset_code = ?, pin_reset_expires = ? WHERE id = ?",
		code, expires.Unix(), userID,
	)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ResetPin replaces the PIN hash when the reset code matches and has not
// expired, consuming the code.
func (d *Database) ResetPin(userID int, code, newHash string, now time.Time) error {
	res, err := d.db.Exec(
		`UPDATE users SET pin_hash = ?, pin_reset_code = NULL, pin_reset_expires = NULL
		 WHERE id = ? AND pin_reset_code = ? AND pin_reset_expires >= ?`,
		newHash, userID, code, now.Unix(),
	)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return ErrResetCodeInvalid
	}
	return nil
}

// ClearExpiredPinResets drops reset codes past their expiry. Called by the
// maintenance worker.
func (d *Database) ClearExpiredPinResets(now time.Time) (int64, error) {
	res, err := d.db.Exec(
		"UPDATE users SET pin_reset_code = NULL, pin_reset_expires = NULL WHERE pin_reset_expires IS NOT NULL AND pin_reset_expires < ?",
		now.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AddOperation appends an audit record.
func (d *Database) AddOperation(op *model.Operation) error {
	return addOperation(d.db, op)
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

func addOperation(e execer, op *model.Operation) error {
	var extraJSON []byte
	if op.Extra != nil {
		var err error
		extraJSON, err = json.Marshal(op.Extra)
		if err != nil {
			return err
		}
	}
	createdAt := op.CreatedAt
	if createdAt == 0 {
		createdAt = time.Now().Unix()
	}
	_, err := e.Exec(
		"INSERT INTO operations (user_id, type, amount, description, created_at, extra) VALUES (?, ?, ?, ?, ?, ?)",
		op.UserID, op.Type, op.Amount, op.Description, createdAt, string(extraJSON),
	)
	return err
}

// GetUserOperations returns a page of the user's audit history, newest first.
func (d *Database) GetUserOperations(userID, page, pageSize int) (*model.OperationHistory, error) {
	var total int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM operations WHERE user_id = ?", userID).Scan(&total); err != nil {
		return nil, err
	}

	offset := (page - 1) * pageSize
	rows, err := d.db.Query(
		"SELECT id, user_id, type, amount, description, created_at, extra FROM operations WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		userID, pageSize, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	operations := make([]model.Operation, 0)
	for rows.Next() {
		var op model.Operation
		var extra sql.NullString
		if err := rows.Scan(&op.ID, &op.UserID, &op.Type, &op.Amount, &op.Description, &op.CreatedAt, &extra); err != nil {
			return nil, err
		}
		if extra.Valid && extra.String != "" {
			var decoded interface{}
			if err := json.Unmarshal([]byte(extra.String), &decoded); err == nil {
				op.Extra = decoded
			}
		}
		operations = append(operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &model.OperationHistory{
		Operations: operations,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// OperationCount returns the number of audit rows of a type for a user.
// Used by tests to assert idempotence of fee payments.
func (d *Database) OperationCount(userID int, opType model.OperationType) (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM operations WHERE user_id = ? AND type = ?", userID, opType).Scan(&n)
	return n, err
}
