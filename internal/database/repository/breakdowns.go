package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// BreakdownRepo handles surplus/deficit breakdowns (goals) and their
// materialized monthly items.
type BreakdownRepo struct{ db DBTX }

func NewBreakdownRepo(db DBTX) *BreakdownRepo { return &BreakdownRepo{db: db} }

func (r *BreakdownRepo) Insert(ctx context.Context, b Breakdown) error {
	raw, err := json.Marshal(b.Allocations)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	var terminal *string
	if b.TerminalDate != nil {
		s := toDate(*b.TerminalDate)
		terminal = &s
	}
	_, err = r.db.ExecContext(ctx, `
	INSERT INTO surplus_and_deficit_breakdowns(id, description, breakdown, effective_date, terminal_date, created_at)
	VALUES(?, ?, ?, ?, ?, ?)
	`, b.ID, b.Description, string(raw), toDate(b.EffectiveDate), terminal,
		b.CreatedAt.UTC().Format(time.RFC3339))
	return err
}

func (r *BreakdownRepo) Get(ctx context.Context, id string) (*Breakdown, error) {
	row := r.db.QueryRowContext(ctx, `
	SELECT id, description, breakdown, effective_date, terminal_date, created_at
	FROM surplus_and_deficit_breakdowns WHERE id = ?`, id)
	b, err := scanBreakdown(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// EffectiveBy returns breakdowns effective on or before the first day of
// the given month. Terminated goals are included, so months inside their
// window can still be backfilled; callers bound the walk by terminal date.
func (r *BreakdownRepo) EffectiveBy(ctx context.Context, year, month int) ([]Breakdown, error) {
	start, _ := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, description, breakdown, effective_date, terminal_date, created_at
	FROM surplus_and_deficit_breakdowns
	WHERE effective_date <= ?
	ORDER BY created_at;
	`, start)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Breakdown
	for rows.Next() {
		b, err := scanBreakdown(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BreakdownRepo) InsertItem(ctx context.Context, item BreakdownItem) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO surplus_and_deficit_breakdown_items(breakdown_id, category, description, amount, date, created_at)
	VALUES(?, ?, ?, ?, ?, ?)
	`, item.BreakdownID, item.Category, item.Description, item.Amount,
		toDate(item.Date), time.Now().UTC().Format(time.RFC3339))
	return err
}

// HasItems reports whether a breakdown already has materialized items for
// the given month; materialization must not run twice for one month.
func (r *BreakdownRepo) HasItems(ctx context.Context, breakdownID string, year, month int) (bool, error) {
	start, end := monthRange(year, month)
	var count int
	err := r.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM surplus_and_deficit_breakdown_items
	WHERE breakdown_id = ? AND date >= ? AND date < ?
	`, breakdownID, start, end).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *BreakdownRepo) ItemsForMonth(ctx context.Context, breakdownID string, year, month int) ([]BreakdownItem, error) {
	start, end := monthRange(year, month)
	rows, err := r.db.QueryContext(ctx, `
	SELECT id, breakdown_id, category, description, amount, date
	FROM surplus_and_deficit_breakdown_items
	WHERE breakdown_id = ? AND date >= ? AND date < ?
	ORDER BY description;
	`, breakdownID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []BreakdownItem
	for rows.Next() {
		var item BreakdownItem
		var category sql.NullString
		var rawDate string
		if err := rows.Scan(&item.ID, &item.BreakdownID, &category, &item.Description,
			&item.Amount, &rawDate); err != nil {
			return nil, err
		}
		if category.Valid {
			item.Category = &category.String
		}
		d, err := parseDate(rawDate)
		if err != nil {
			return nil, err
		}
		item.Date = d
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanBreakdown(row scanner) (Breakdown, error) {
	var b Breakdown
	var raw, effective, created string
	var terminal sql.NullString
	if err := row.Scan(&b.ID, &b.Description, &raw, &effective, &terminal, &created); err != nil {
		return Breakdown{}, err
	}
	if err := json.Unmarshal([]byte(raw), &b.Allocations); err != nil {
		return Breakdown{}, fmt.Errorf("decode breakdown %s: %w", b.ID, err)
	}
	d, err := parseDate(effective)
	if err != nil {
		return Breakdown{}, err
	}
	b.EffectiveDate = d
	if terminal.Valid {
		td, err := parseDate(terminal.String)
		if err != nil {
			return Breakdown{}, err
		}
		b.TerminalDate = &td
	}
	if t, err := time.Parse(time.RFC3339, created); err == nil {
		b.CreatedAt = t
	}
	return b, nil
}
