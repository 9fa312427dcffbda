package repository

import (
	"context"
	"time"
)

// BudgetRepo handles category_budgets. Multiple timestamped rows per
// category are allowed; Current resolves the latest per category.
type BudgetRepo struct{ db DBTX }

func NewBudgetRepo(db DBTX) *BudgetRepo { return &BudgetRepo{db: db} }

func (r *BudgetRepo) Insert(ctx context.Context, category string, amount float64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO category_budgets(category, budget, timestamp) VALUES (?, ?, ?)
	`, category, amount, at.UTC().Format(time.RFC3339))
	return err
}

// Current returns the latest budget per category. Ties on timestamp go to
// the later insert.
func (r *BudgetRepo) Current(ctx context.Context) ([]Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT b.id, b.category, b.budget, b.timestamp
	FROM category_budgets b
	WHERE b.id = (
		SELECT id FROM category_budgets
		WHERE category = b.category
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	)
	ORDER BY b.category;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Budget
	for rows.Next() {
		var b Budget
		var raw string
		if err := rows.Scan(&b.ID, &b.Category, &b.Budget, &raw); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			b.Timestamp = t
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
