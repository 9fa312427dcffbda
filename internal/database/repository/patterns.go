package repository

import (
	"context"
)

// PatternRepo handles category_matching_patterns, the keyword map used for
// automatic classification.
type PatternRepo struct{ db DBTX }

func NewPatternRepo(db DBTX) *PatternRepo { return &PatternRepo{db: db} }

func (r *PatternRepo) Upsert(ctx context.Context, keyword, category string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO category_matching_patterns(keyword, category) VALUES (?, ?)
	ON CONFLICT(keyword) DO UPDATE SET category=excluded.category;
	`, keyword, category)
	return err
}

// Map returns the full keyword to category lookup table.
func (r *PatternRepo) Map(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT keyword, category FROM category_matching_patterns`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var keyword, category string
		if err := rows.Scan(&keyword, &category); err != nil {
			return nil, err
		}
		out[keyword] = category
	}
	return out, rows.Err()
}
