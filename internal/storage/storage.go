package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrUserMismatch      = errors.New("order user mismatch")
	ErrAlreadyPaid       = errors.New("order already paid")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

const paidPrefix = "paid"

// Storage handles all ledger operations over sqlite.
type Storage struct {
	db *sql.DB
}

// New opens the database and initializes the schema. Transactions take the
// write lock immediately so two concurrent finalize attempts serialize
// instead of deadlocking on lock upgrade.
func New(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, err
	}

	s := &Storage{db: db}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) init() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			username TEXT,
			firstName TEXT,
			walletBalance REAL NOT NULL DEFAULT 0,
			referrerId INTEGER,
			language TEXT NOT NULL DEFAULT 'ru',
			createdAt TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			orderId TEXT PRIMARY KEY,
			userId INTEGER NOT NULL,
			gameType TEXT NOT NULL,
			themeId TEXT NOT NULL,
			configJson TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			amount INTEGER NOT NULL DEFAULT 0,
			discountApplied INTEGER NOT NULL DEFAULT 0,
			createdAt TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(userId)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status)`,

		`CREATE TABLE IF NOT EXISTS logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			userId INTEGER NOT NULL,
			action TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT '',
			createdAt TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_logs_user_action ON logs(userId, action)`,

		`CREATE TABLE IF NOT EXISTS asset_cache (
			key TEXT PRIMARY KEY,
			fileId TEXT NOT NULL,
			updatedAt TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS category_discounts (
			category TEXT PRIMARY KEY,
			percent INTEGER NOT NULL DEFAULT 0,
			updatedAt TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS banned_users (
			userId INTEGER PRIMARY KEY,
			createdAt TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// --- Users ---

// UpsertUser creates the user on first contact or refreshes the profile
// fields on subsequent ones.
func (s *Storage) UpsertUser(userID int64, username, firstName string) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, username, firstName, createdAt)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			firstName = excluded.firstName`,
		userID, username, firstName, now(),
	)
	return err
}

// GetUserLanguage returns the stored interface language, defaulting to ru.
func (s *Storage) GetUserLanguage(userID int64) string {
	var lang string
	err := s.db.QueryRow("SELECT language FROM users WHERE id = ?", userID).Scan(&lang)
	if err != nil {
		return "ru"
	}
	if strings.ToLower(lang) == "en" {
		return "en"
	}
	return "ru"
}

// SetUserLanguage stores the interface language and returns the normalized
// value.
func (s *Storage) SetUserLanguage(userID int64, language string) (string, error) {
	normalized := "ru"
	if strings.ToLower(language) == "en" {
		normalized = "en"
	}
	_, err := s.db.Exec(
		`INSERT INTO users (id, language, createdAt) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET language = excluded.language`,
		userID, normalized, now(),
	)
	return normalized, err
}

// SetReferrer links a user to a referrer. The link is set at most once, only
// to an existing user, never to self. Returns true when the link was made.
func (s *Storage) SetReferrer(userID, referrerID int64) (bool, error) {
	if userID == referrerID {
		return false, nil
	}

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM users WHERE id = ?", referrerID).Scan(&exists)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	result, err := s.db.Exec(
		"UPDATE users SET referrerId = ? WHERE id = ? AND referrerId IS NULL",
		referrerID, userID,
	)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// GetUserStats aggregates the numbers shown in the profile. The paid order
// count also drives the loyalty discount.
func (s *Storage) GetUserStats(userID int64) (UserStats, error) {
	var stats UserStats

	var balance sql.NullFloat64
	err := s.db.QueryRow("SELECT walletBalance FROM users WHERE id = ?", userID).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return stats, err
	}
	if balance.Valid {
		stats.WalletBalance = balance.Float64
	}

	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM orders WHERE userId = ? AND status LIKE 'paid%'",
		userID,
	).Scan(&stats.OrdersPaid)
	if err != nil {
		return stats, err
	}

	err = s.db.QueryRow(
		"SELECT COUNT(*) FROM users WHERE referrerId = ?",
		userID,
	).Scan(&stats.ReferralsCount)
	if err != nil {
		return stats, err
	}

	return stats, nil
}

// IncrementUserBalance credits a user's wallet.
func (s *Storage) IncrementUserBalance(userID int64, amount float64) error {
	result, err := s.db.Exec(
		"UPDATE users SET walletBalance = walletBalance + ? WHERE id = ?",
		amount, userID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ReferralRewardRate is the share of a paid amount credited to the payer's
// referrer.
const ReferralRewardRate = 0.22

// AddReferralReward credits the payer's referrer with their share of a paid
// amount. Best-effort: a missing referrer is silently skipped and never
// fails the order.
func (s *Storage) AddReferralReward(payerID int64, amount int) error {
	var referrerID sql.NullInt64
	err := s.db.QueryRow("SELECT referrerId FROM users WHERE id = ?", payerID).Scan(&referrerID)
	if err == sql.ErrNoRows || (err == nil && !referrerID.Valid) {
		return nil
	}
	if err != nil {
		return err
	}

	reward := float64(amount) * ReferralRewardRate
	result, err := s.db.Exec(
		"UPDATE users SET walletBalance = walletBalance + ? WHERE id = ?",
		reward, referrerID.Int64,
	)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil
	}

	s.LogAction(referrerID.Int64, "referral_reward", fmt.Sprintf("Received $%g from user %d", reward, payerID))
	return nil
}

// ListUserIDs returns every known user id, for broadcasts.
func (s *Storage) ListUserIDs() ([]int64, error) {
	rows, err := s.db.Query("SELECT id FROM users")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Orders ---

// CreateOrder records a new order with status pending.
func (s *Storage) CreateOrder(orderID string, userID int64, gameType, themeID string, config map[string]any) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal order config: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO orders (orderId, userId, gameType, themeId, configJson, status, createdAt)
		 VALUES (?, ?, ?, ?, ?, 'pending', ?)`,
		orderID, userID, gameType, themeID, string(configJSON), now(),
	)
	return err
}

// GetOrder returns an order by id.
func (s *Storage) GetOrder(orderID string) (*Order, error) {
	var o Order
	var configJSON string
	err := s.db.QueryRow(
		`SELECT orderId, userId, gameType, themeId, configJson, status, amount, discountApplied, createdAt
		 FROM orders WHERE orderId = ?`,
		orderID,
	).Scan(&o.OrderID, &o.UserID, &o.GameType, &o.ThemeID, &configJSON, &o.Status, &o.Amount, &o.DiscountApplied, &o.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	o.Config = map[string]any{}
	// Tolerate corrupt config rather than failing the whole read.
	_ = json.Unmarshal([]byte(configJSON), &o.Config)
	if o.Config == nil {
		o.Config = map[string]any{}
	}
	return &o, nil
}

// SetOrderStatus updates an order's status.
func (s *Storage) SetOrderStatus(orderID, status string) error {
	result, err := s.db.Exec("UPDATE orders SET status = ? WHERE orderId = ?", status, orderID)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// UpdateOrderConfig shallow-merges a patch into the order's config document
// and returns the merged config.
func (s *Storage) UpdateOrderConfig(orderID string, patch map[string]any) (map[string]any, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var configJSON string
	err = tx.QueryRow("SELECT configJson FROM orders WHERE orderId = ?", orderID).Scan(&configJSON)
	if err == sql.ErrNoRows {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	config := map[string]any{}
	_ = json.Unmarshal([]byte(configJSON), &config)
	if config == nil {
		// A JSON null (order created without a config) nils the map.
		config = map[string]any{}
	}
	for k, v := range patch {
		config[k] = v
	}

	merged, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal order config: %w", err)
	}
	if _, err := tx.Exec("UPDATE orders SET configJson = ? WHERE orderId = ?", string(merged), orderID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return config, nil
}

// CountOrdersByStatus counts a user's orders with an exact status.
func (s *Storage) CountOrdersByStatus(userID int64, status string) (int, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM orders WHERE userId = ? AND status = ?",
		userID, status,
	).Scan(&count)
	return count, err
}

// FinalizeOrder marks an order paid from the user's wallet balance. The
// status re-check, ownership check, balance check, debit and status write all
// happen in one transaction, so a concurrent duplicate attempt observes the
// already-updated status and gets ErrAlreadyPaid instead of a second debit.
func (s *Storage) FinalizeOrder(orderID string, userID int64, status string, amount, discount int) (float64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	currentStatus, err := orderStatusForUpdate(tx, orderID, userID)
	if err != nil {
		return 0, err
	}
	if strings.HasPrefix(currentStatus, paidPrefix) {
		return 0, ErrAlreadyPaid
	}

	var balance float64
	err = tx.QueryRow("SELECT walletBalance FROM users WHERE id = ?", userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}
	if balance < float64(amount) {
		return 0, ErrInsufficientFunds
	}

	newBalance := balance - float64(amount)
	if _, err := tx.Exec("UPDATE users SET walletBalance = ? WHERE id = ?", newBalance, userID); err != nil {
		return 0, err
	}
	if err := markPaid(tx, orderID, status, amount, discount); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// FinalizeExternalOrder marks an order paid without touching the wallet
// balance (the money moved outside the ledger). Same idempotency guard as
// FinalizeOrder.
func (s *Storage) FinalizeExternalOrder(orderID string, userID int64, status string, amount, discount int) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	currentStatus, err := orderStatusForUpdate(tx, orderID, userID)
	if err != nil {
		return err
	}
	if strings.HasPrefix(currentStatus, paidPrefix) {
		return ErrAlreadyPaid
	}

	if err := markPaid(tx, orderID, status, amount, discount); err != nil {
		return err
	}
	return tx.Commit()
}

func orderStatusForUpdate(tx *sql.Tx, orderID string, userID int64) (string, error) {
	var ownerID int64
	var status string
	err := tx.QueryRow("SELECT userId, status FROM orders WHERE orderId = ?", orderID).Scan(&ownerID, &status)
	if err == sql.ErrNoRows {
		return "", ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	if ownerID != userID {
		return "", ErrUserMismatch
	}
	return status, nil
}

func markPaid(tx *sql.Tx, orderID, status string, amount, discount int) error {
	_, err := tx.Exec(
		"UPDATE orders SET status = ?, amount = ?, discountApplied = ? WHERE orderId = ?",
		status, amount, discount, orderID,
	)
	return err
}

// MarkPaid sets a paid status outside the wallet flow (admin grant). The
// caller is expected to have checked the current status.
func (s *Storage) MarkPaid(orderID, status string, amount, discount int) error {
	result, err := s.db.Exec(
		"UPDATE orders SET status = ?, amount = ?, discountApplied = ? WHERE orderId = ?",
		status, amount, discount, orderID,
	)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// ListOrdersAwaitingInvoice returns pending orders that carry a stored
// Crypto Pay invoice, for the background watcher.
func (s *Storage) ListOrdersAwaitingInvoice() ([]Order, error) {
	rows, err := s.db.Query(
		`SELECT orderId, userId, gameType, themeId, configJson, status, amount, discountApplied, createdAt
		 FROM orders
		 WHERE status = 'pending' AND configJson LIKE '%"provider":"crypto_pay"%'`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		var configJSON string
		err := rows.Scan(&o.OrderID, &o.UserID, &o.GameType, &o.ThemeID, &configJSON, &o.Status, &o.Amount, &o.DiscountApplied, &o.CreatedAt)
		if err != nil {
			return nil, err
		}
		o.Config = map[string]any{}
		_ = json.Unmarshal([]byte(configJSON), &o.Config)
		if o.Config == nil {
			o.Config = map[string]any{}
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// --- Logs ---

// LogAction appends an audit record. Failures are swallowed: logging must
// never break the bot flow.
func (s *Storage) LogAction(userID int64, action, details string) {
	_, _ = s.db.Exec(
		"INSERT INTO logs (userId, action, details, createdAt) VALUES (?, ?, ?, ?)",
		userID, action, details, now(),
	)
}

// GetLastLogByAction returns the most recent log entry of a kind, or nil.
func (s *Storage) GetLastLogByAction(userID int64, action string) (*LogEntry, error) {
	var entry LogEntry
	err := s.db.QueryRow(
		`SELECT id, userId, action, details, createdAt FROM logs
		 WHERE userId = ? AND action = ?
		 ORDER BY id DESC LIMIT 1`,
		userID, action,
	).Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.Details, &entry.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// --- Asset cache ---

// GetAsset returns a cached Telegram file id for a key, or "".
func (s *Storage) GetAsset(key string) string {
	var fileID string
	if err := s.db.QueryRow("SELECT fileId FROM asset_cache WHERE key = ?", key).Scan(&fileID); err != nil {
		return ""
	}
	return fileID
}

// SetAsset stores a Telegram file id for a key.
func (s *Storage) SetAsset(key, fileID string) error {
	_, err := s.db.Exec(
		`INSERT INTO asset_cache (key, fileId, updatedAt) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET fileId = excluded.fileId, updatedAt = excluded.updatedAt`,
		key, fileID, now(),
	)
	return err
}

// --- Category discounts ---

func clampDiscount(value int) int {
	if value < 0 {
		return 0
	}
	if value > 90 {
		return 90
	}
	return value
}

// GetCategoryDiscount returns the admin-configured discount percent for a
// category, clamped to 0..90, default 0.
func (s *Storage) GetCategoryDiscount(category string) int {
	var percent int
	if err := s.db.QueryRow("SELECT percent FROM category_discounts WHERE category = ?", category).Scan(&percent); err != nil {
		return 0
	}
	return clampDiscount(percent)
}

// SetCategoryDiscount stores a category discount percent and returns the
// clamped value.
func (s *Storage) SetCategoryDiscount(category string, percent int) (int, error) {
	normalized := clampDiscount(percent)
	_, err := s.db.Exec(
		`INSERT INTO category_discounts (category, percent, updatedAt) VALUES (?, ?, ?)
		 ON CONFLICT(category) DO UPDATE SET percent = excluded.percent, updatedAt = excluded.updatedAt`,
		category, normalized, now(),
	)
	return normalized, err
}

// --- Bans ---

// BanUser blocks a user from the bot.
func (s *Storage) BanUser(userID int64, reason string) error {
	_, err := s.db.Exec(
		`INSERT INTO banned_users (userId, createdAt, reason) VALUES (?, ?, ?)
		 ON CONFLICT(userId) DO UPDATE SET reason = excluded.reason`,
		userID, now(), reason,
	)
	return err
}

// UnbanUser lifts a ban.
func (s *Storage) UnbanUser(userID int64) error {
	_, err := s.db.Exec("DELETE FROM banned_users WHERE userId = ?", userID)
	return err
}

// IsBanned checks whether a user is blocked.
func (s *Storage) IsBanned(userID int64) bool {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM banned_users WHERE userId = ?", userID).Scan(&one)
	return err == nil
}
