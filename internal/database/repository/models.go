package repository

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same repositories can
// be used standalone or inside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Transaction represents a consolidated_transactions row. A nil Category
// means the row is excluded from spending analytics; rows are never deleted.
type Transaction struct {
	ID          int64
	Card        string
	Date        time.Time
	Description string
	Category    *string
	Type        string
	Amount      float64
	Memo        string
}

// Category is a name from the controlled vocabulary plus its group.
type Category struct {
	Name  string
	Group string
}

// VendorMapping is a durable vendor-substring to category assignment.
type VendorMapping struct {
	Vendor   string
	Category string
}

// Budget is one timestamped (category, monthly amount) fact.
type Budget struct {
	ID        int64
	Category  string
	Budget    float64
	Timestamp time.Time
}

// Breakdown is a goal: a percentage allocation of monthly net income.
// Allocations map a category name or free-text description to a fraction.
type Breakdown struct {
	ID            string
	Description   string
	Allocations   map[string]float64
	EffectiveDate time.Time
	TerminalDate  *time.Time
	CreatedAt     time.Time
}

// BreakdownItem is one materialized monthly instance of a goal allocation.
type BreakdownItem struct {
	ID          int64
	BreakdownID string
	Category    *string
	Description string
	Amount      float64
	Date        time.Time
}

// CategoryMonthlySum is one (category, month) spending total, sign-flipped
// so positive values mean outflow.
type CategoryMonthlySum struct {
	Category string
	Month    string // YYYY-MM
	Sum      float64
}

const dateLayout = "2006-01-02"

func toDate(t time.Time) string { return t.Format(dateLayout) }

func parseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// monthRange returns [start, end) ISO date bounds for a calendar month.
func monthRange(year, month int) (string, string) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return toDate(start), toDate(start.AddDate(0, 1, 0))
}
