package repository

import (
	"context"
)

// CategoryRepo handles the category vocabulary.
type CategoryRepo struct {
	db DBTX
}

func NewCategoryRepo(db DBTX) *CategoryRepo {
	return &CategoryRepo{db: db}
}

func (r *CategoryRepo) Add(ctx context.Context, name, group string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO categories(category, category_group) VALUES (?, ?)
	ON CONFLICT(category) DO UPDATE SET category_group=excluded.category_group;
	`, name, group)
	return err
}

// List returns category names sorted alphabetically.
func (r *CategoryRepo) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category FROM categories ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) ListWithGroups(ctx context.Context) ([]Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT category, category_group FROM categories ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.Name, &c.Group); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CategoryRepo) Exists(ctx context.Context, name string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE category = ?`, name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
