package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hisob/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the ledger store: income, expense, debt and payment
// rows, scoped per user.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the underlying database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ---- users ----

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash, fullName string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, full_name) VALUES (?, ?, ?)`,
		username, passwordHash, fullName)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return 0, core.ErrUsernameTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create user id: %w", err)
	}

	slog.InfoContext(ctx, "User created", "user_id", id, "username", username)
	return id, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, full_name, created_at FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id int64) (core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, full_name, created_at FROM users WHERE id = ?`,
		id).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, core.ErrUserNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUserIDs returns every registered user id, oldest first.
func (r *SQLiteRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user ids: %w", err)
	}
	return ids, nil
}

// ---- income / expenses ----

// The two entry ledgers share a shape, so the insert and list paths are
// parameterized on the table name. Only the two fixed constants ever reach
// the query strings.

const (
	tableIncome   = "income"
	tableExpenses = "expenses"
)

func (r *SQLiteRepository) AddIncome(ctx context.Context, e core.Entry) (int64, error) {
	return r.addEntry(ctx, tableIncome, e)
}

func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Entry) (int64, error) {
	return r.addEntry(ctx, tableExpenses, e)
}

func (r *SQLiteRepository) ListIncome(ctx context.Context, userID int64) ([]core.Entry, error) {
	return r.listEntries(ctx, tableIncome, userID)
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64) ([]core.Entry, error) {
	return r.listEntries(ctx, tableExpenses, userID)
}

func (r *SQLiteRepository) SumIncome(ctx context.Context, userID int64) (int64, error) {
	return r.sumEntries(ctx, tableIncome, userID)
}

func (r *SQLiteRepository) SumExpenses(ctx context.Context, userID int64) (int64, error) {
	return r.sumEntries(ctx, tableExpenses, userID)
}

func (r *SQLiteRepository) addEntry(ctx context.Context, table string, e core.Entry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (user_id, amount_cents, category, description, date) VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.Amount.Cents, e.Category, e.Description, e.Date.String())
	if err != nil {
		return 0, fmt.Errorf("insert %s entry: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s entry id: %w", table, err)
	}

	slog.InfoContext(ctx, "Entry saved",
		"table", table,
		"id", id,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category)
	return id, nil
}

func (r *SQLiteRepository) listEntries(ctx context.Context, table string, userID int64) ([]core.Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, amount_cents, category, description, date, created_at
		 FROM `+table+` WHERE user_id = ? ORDER BY date DESC, id DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list %s entries: %w", table, err)
	}
	defer rows.Close()

	var out []core.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan %s entry: %w", table, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s entries: %w", table, err)
	}
	return out, nil
}

func (r *SQLiteRepository) sumEntries(ctx context.Context, table string, userID int64) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount_cents), 0) FROM `+table+` WHERE user_id = ?`,
		userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum %s entries: %w", table, err)
	}
	return total, nil
}

// ExpenseCategoryTotals sums expenses per category for dates on or after
// since, ordered by total descending.
func (r *SQLiteRepository) ExpenseCategoryTotals(ctx context.Context, userID int64, since core.Date) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT category, SUM(amount_cents) AS total, COUNT(*) AS cnt
		 FROM expenses
		 WHERE user_id = ? AND date >= ?
		 GROUP BY category
		 ORDER BY total DESC`,
		userID, since.String())
	if err != nil {
		return nil, fmt.Errorf("expense category totals: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total.Cents, &ct.Count); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return out, nil
}

// ---- debts ----

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	var dueDate any
	if !d.DueDate.IsEmpty() {
		dueDate = d.DueDate.String()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO debts (user_id, type, person_name, amount_cents, remaining_cents, due_date, description, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.UserID, string(d.Direction), d.PersonName, d.Amount.Cents, d.Amount.Cents, dueDate, d.Description, string(core.DebtActive))
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt id: %w", err)
	}

	slog.InfoContext(ctx, "Debt created",
		"debt_id", id,
		"user_id", d.UserID,
		"direction", string(d.Direction),
		"amount_cents", d.Amount.Cents)

	return r.GetDebt(ctx, id)
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, id int64) (core.Debt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, type, person_name, amount_cents, remaining_cents, due_date, description, status, created_at
		 FROM debts WHERE id = ?`, id)
	d, err := scanDebt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Debt{}, core.ErrDebtNotFound
	}
	if err != nil {
		return core.Debt{}, fmt.Errorf("get debt: %w", err)
	}
	return d, nil
}

// ListDebts returns a user's debts, most recent first. An empty direction
// returns all of them.
func (r *SQLiteRepository) ListDebts(ctx context.Context, userID int64, direction core.DebtDirection) ([]core.Debt, error) {
	query := `SELECT id, user_id, type, person_name, amount_cents, remaining_cents, due_date, description, status, created_at
	          FROM debts WHERE user_id = ?`
	args := []any{userID}
	if direction != "" {
		query += ` AND type = ?`
		args = append(args, string(direction))
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan debt: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate debts: %w", err)
	}
	return out, nil
}

// ListOverdueDebts returns active debts whose due date is strictly before
// today.
func (r *SQLiteRepository) ListOverdueDebts(ctx context.Context, userID int64, today core.Date) ([]core.Debt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, type, person_name, amount_cents, remaining_cents, due_date, description, status, created_at
		 FROM debts
		 WHERE user_id = ? AND status = ? AND due_date IS NOT NULL AND due_date < ?
		 ORDER BY due_date ASC`,
		userID, string(core.DebtActive), today.String())
	if err != nil {
		return nil, fmt.Errorf("list overdue debts: %w", err)
	}
	defer rows.Close()

	var out []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan overdue debt: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overdue debts: %w", err)
	}
	return out, nil
}

// SumActiveDebts totals the remaining amount of a user's active debts in one
// direction.
func (r *SQLiteRepository) SumActiveDebts(ctx context.Context, userID int64, direction core.DebtDirection) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(remaining_cents), 0) FROM debts WHERE user_id = ? AND type = ? AND status = ?`,
		userID, string(direction), string(core.DebtActive)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum active debts: %w", err)
	}
	return total, nil
}

// RecordPayment appends a payment row and decrements the debt's remaining
// amount as one unit of work. Ownership and state are checked inside the
// transaction so a failed check leaves no partial payment behind. When the
// remaining amount drops to zero or below the debt flips to paid; that
// transition is one-way. Overpayments are stored as the raw subtraction, so
// the remaining amount may legitimately go negative.
func (r *SQLiteRepository) RecordPayment(ctx context.Context, userID, debtID, amountCents int64, paymentDate core.Date) (core.PaymentResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.PaymentResult{}, fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback()

	var (
		ownerID   int64
		status    string
		remaining int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT user_id, status, remaining_cents FROM debts WHERE id = ?`,
		debtID).Scan(&ownerID, &status, &remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return core.PaymentResult{}, core.ErrDebtNotFound
	}
	if err != nil {
		return core.PaymentResult{}, fmt.Errorf("load debt for payment: %w", err)
	}
	if ownerID != userID {
		return core.PaymentResult{}, core.ErrForbidden
	}
	if core.DebtStatus(status) != core.DebtActive {
		return core.PaymentResult{}, core.ErrDebtNotActive
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO debt_payments (debt_id, amount_cents, payment_date) VALUES (?, ?, ?)`,
		debtID, amountCents, paymentDate.String()); err != nil {
		return core.PaymentResult{}, fmt.Errorf("insert payment: %w", err)
	}

	// Relative decrement keeps concurrent payments from stomping on each
	// other's read of the remaining amount.
	if _, err := tx.ExecContext(ctx,
		`UPDATE debts SET remaining_cents = remaining_cents - ? WHERE id = ?`,
		amountCents, debtID); err != nil {
		return core.PaymentResult{}, fmt.Errorf("update remaining amount: %w", err)
	}

	newRemaining := remaining - amountCents
	newStatus := core.DebtActive
	if newRemaining <= 0 {
		newStatus = core.DebtPaid
		if _, err := tx.ExecContext(ctx,
			`UPDATE debts SET status = ? WHERE id = ?`,
			string(core.DebtPaid), debtID); err != nil {
			return core.PaymentResult{}, fmt.Errorf("mark debt paid: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.PaymentResult{}, fmt.Errorf("commit payment tx: %w", err)
	}

	slog.InfoContext(ctx, "Payment recorded",
		"debt_id", debtID,
		"user_id", userID,
		"amount_cents", amountCents,
		"remaining_cents", newRemaining,
		"status", string(newStatus))

	return core.PaymentResult{DebtID: debtID, Remaining: core.Money{Cents: newRemaining}, Status: newStatus}, nil
}

// ListPayments returns the append-only payment ledger of one debt, oldest
// first.
func (r *SQLiteRepository) ListPayments(ctx context.Context, debtID int64) ([]core.DebtPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, debt_id, amount_cents, payment_date, created_at
		 FROM debt_payments WHERE debt_id = ? ORDER BY id ASC`,
		debtID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var out []core.DebtPayment
	for rows.Next() {
		var (
			p       core.DebtPayment
			payDate string
		)
		if err := rows.Scan(&p.ID, &p.DebtID, &p.Amount.Cents, &payDate, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		if p.PaymentDate, err = core.ParseDate(payDate); err != nil {
			return nil, fmt.Errorf("parse payment date %q: %w", payDate, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

// ---- scanning ----

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (core.Entry, error) {
	var (
		e    core.Entry
		date string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.Category, &e.Description, &date, &e.CreatedAt); err != nil {
		return core.Entry{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse entry date %q: %w", date, err)
	}
	e.Date = d
	return e, nil
}

func scanDebt(s rowScanner) (core.Debt, error) {
	var (
		d         core.Debt
		direction string
		status    string
		dueDate   sql.NullString
	)
	if err := s.Scan(&d.ID, &d.UserID, &direction, &d.PersonName, &d.Amount.Cents, &d.Remaining.Cents,
		&dueDate, &d.Description, &status, &d.CreatedAt); err != nil {
		return core.Debt{}, err
	}
	d.Direction = core.DebtDirection(direction)
	d.Status = core.DebtStatus(status)
	if dueDate.Valid {
		due, err := core.ParseDate(dueDate.String)
		if err != nil {
			return core.Debt{}, fmt.Errorf("parse due date %q: %w", dueDate.String, err)
		}
		d.DueDate = due
	}
	return d, nil
}
