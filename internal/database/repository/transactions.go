package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TransactionRepo handles consolidated_transactions.
type TransactionRepo struct {
	db DBTX
}

func NewTransactionRepo(db DBTX) *TransactionRepo { return &TransactionRepo{db: db} }

const txColumns = "id, card, transaction_date, description, category, type, amount, memo"

// NextID allocates the next transaction id from the explicit sequence.
// Batches of synthesized rows need ids before commit, so auto-increment is
// not used for this table.
func (r *TransactionRepo) NextID(ctx context.Context) (int64, error) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sequences SET value = value + 1 WHERE name = 'consolidated_transactions_id_seq'`)
	if err != nil {
		return 0, err
	}
	var id int64
	err = r.db.QueryRowContext(ctx,
		`SELECT value FROM sequences WHERE name = 'consolidated_transactions_id_seq'`).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *TransactionRepo) Insert(ctx context.Context, t Transaction) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO consolidated_transactions(`+txColumns+`)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?);
	`, t.ID, t.Card, toDate(t.Date), t.Description, t.Category, t.Type, t.Amount, t.Memo)
	return err
}

func (r *TransactionRepo) Get(ctx context.Context, id int64) (*Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM consolidated_transactions WHERE id = ?`, id)
	t, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *TransactionRepo) UpdateCategory(ctx context.Context, id int64, category *string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE consolidated_transactions SET category = ? WHERE id = ?`, category, id)
	return err
}

// AppendMemo appends suffix to the memo audit trail. Memos are append-only.
func (r *TransactionRepo) AppendMemo(ctx context.Context, id int64, suffix string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE consolidated_transactions SET memo = memo || ? WHERE id = ?`, suffix, id)
	return err
}

func (r *TransactionRepo) UpdateAmount(ctx context.Context, id int64, amount float64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE consolidated_transactions SET amount = ? WHERE id = ?`, amount, id)
	return err
}

// ByVendor returns transactions whose description contains vendor.
func (r *TransactionRepo) ByVendor(ctx context.Context, vendor string) ([]Transaction, error) {
	return r.list(ctx,
		`SELECT `+txColumns+` FROM consolidated_transactions
		 WHERE description LIKE ? ORDER BY transaction_date, id`,
		"%"+vendor+"%")
}

// ForCategoryMonth returns one category's transactions for a calendar month.
func (r *TransactionRepo) ForCategoryMonth(ctx context.Context, category string, year, month int) ([]Transaction, error) {
	start, end := monthRange(year, month)
	return r.list(ctx,
		`SELECT `+txColumns+` FROM consolidated_transactions
		 WHERE category = ? AND transaction_date >= ? AND transaction_date < ?
		 ORDER BY transaction_date, id`,
		category, start, end)
}

// ExpensesForMonth returns categorized expense rows (amount < 0) for a month,
// excluding the given categories.
func (r *TransactionRepo) ExpensesForMonth(ctx context.Context, year, month int, excluded []string) ([]Transaction, error) {
	start, end := monthRange(year, month)
	query := `SELECT ` + txColumns + ` FROM consolidated_transactions
	 WHERE amount < 0 AND category IS NOT NULL
	   AND transaction_date >= ? AND transaction_date < ?`
	args := []any{start, end}
	if len(excluded) > 0 {
		query += ` AND category NOT IN (?` + strings.Repeat(", ?", len(excluded)-1) + `)`
		for _, c := range excluded {
			args = append(args, c)
		}
	}
	query += ` ORDER BY amount ASC`
	return r.list(ctx, query, args...)
}

// MonthlySums returns sign-flipped spending totals per (category, month)
// across all history, for percentile baselines.
func (r *TransactionRepo) MonthlySums(ctx context.Context) ([]CategoryMonthlySum, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT category, substr(transaction_date, 1, 7) AS month, SUM(amount) * -1
	FROM consolidated_transactions
	WHERE category IS NOT NULL
	GROUP BY category, month
	ORDER BY category, month;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CategoryMonthlySum
	for rows.Next() {
		var s CategoryMonthlySum
		if err := rows.Scan(&s.Category, &s.Month, &s.Sum); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// IsRecurring reports whether an identical-description transaction with the
// same absolute amount exists on a different date anywhere in history.
func (r *TransactionRepo) IsRecurring(ctx context.Context, description string, amount float64, date time.Time) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM consolidated_transactions
	WHERE description = ? AND ABS(amount) = ABS(?) AND transaction_date <> ?
	`, description, amount, toDate(date)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LatestDate returns the most recent transaction date, or ok=false for an
// empty store.
func (r *TransactionRepo) LatestDate(ctx context.Context) (time.Time, bool, error) {
	var raw sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT MAX(transaction_date) FROM consolidated_transactions`).Scan(&raw)
	if err != nil {
		return time.Time{}, false, err
	}
	if !raw.Valid {
		return time.Time{}, false, nil
	}
	d, err := parseDate(raw.String)
	if err != nil {
		return time.Time{}, false, err
	}
	return d, true, nil
}

// NetIncomeForMonth is the canonical net income: the signed sum of all
// categorized transactions in the month.
func (r *TransactionRepo) NetIncomeForMonth(ctx context.Context, year, month int) (float64, error) {
	start, end := monthRange(year, month)
	var net sql.NullFloat64
	err := r.db.QueryRowContext(ctx, `
	SELECT SUM(amount) FROM consolidated_transactions
	WHERE category IS NOT NULL AND transaction_date >= ? AND transaction_date < ?
	`, start, end).Scan(&net)
	if err != nil {
		return 0, err
	}
	return net.Float64, nil
}

// GroupSumsForMonth returns signed amount sums keyed by category group for
// the grouped net-income view.
func (r *TransactionRepo) GroupSumsForMonth(ctx context.Context, year, month int) (map[string]float64, error) {
	start, end := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx, `
	SELECT c.category_group, SUM(t.amount)
	FROM consolidated_transactions t
	JOIN categories c ON c.category = t.category
	WHERE t.transaction_date >= ? AND t.transaction_date < ?
	GROUP BY c.category_group;
	`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]float64)
	for rows.Next() {
		var group string
		var sum float64
		if err := rows.Scan(&group, &sum); err != nil {
			return nil, err
		}
		out[group] = sum
	}
	return out, rows.Err()
}

func (r *TransactionRepo) list(ctx context.Context, query string, args ...any) ([]Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// scanner covers both Row and Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (Transaction, error) {
	var t Transaction
	var rawDate string
	var category sql.NullString
	if err := row.Scan(&t.ID, &t.Card, &rawDate, &t.Description, &category,
		&t.Type, &t.Amount, &t.Memo); err != nil {
		return Transaction{}, err
	}
	d, err := parseDate(rawDate)
	if err != nil {
		return Transaction{}, fmt.Errorf("transaction %d date: %w", t.ID, err)
	}
	t.Date = d
	if category.Valid {
		t.Category = &category.String
	}
	return t, nil
}
