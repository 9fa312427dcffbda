package repository

import (
	"context"
	"database/sql"
)

// VendorMappingRepo handles vendor_category_mapping. One mapping per vendor
// key, last write wins; the foreign key enforces category validity here.
type VendorMappingRepo struct{ db DBTX }

func NewVendorMappingRepo(db DBTX) *VendorMappingRepo { return &VendorMappingRepo{db: db} }

func (r *VendorMappingRepo) Get(ctx context.Context, vendor string) (*VendorMapping, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT vendor, category FROM vendor_category_mapping WHERE vendor = ?`, vendor)
	var m VendorMapping
	if err := row.Scan(&m.Vendor, &m.Category); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *VendorMappingRepo) Upsert(ctx context.Context, vendor, category string) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO vendor_category_mapping(vendor, category) VALUES (?, ?)
	ON CONFLICT(vendor) DO UPDATE SET category=excluded.category;
	`, vendor, category)
	return err
}

func (r *VendorMappingRepo) Delete(ctx context.Context, vendor string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM vendor_category_mapping WHERE vendor = ?`, vendor)
	return err
}

func (r *VendorMappingRepo) List(ctx context.Context) ([]VendorMapping, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT vendor, category FROM vendor_category_mapping ORDER BY vendor`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []VendorMapping
	for rows.Next() {
		var m VendorMapping
		if err := rows.Scan(&m.Vendor, &m.Category); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
