package repository

import (
	"context"
	"database/sql"

	"github.com/iamoda/crm-lead-tracker/internal/model"
)

// CatalogRepo groups access to the three reference tables shown in admin
// screens: products, packages and targets.  None of them carries row-level
// visibility; any authenticated role may read them.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// ListProducts returns all products, newest first.
func (r *CatalogRepo) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, price_cents, created_at FROM products ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreateProduct inserts a product and fills in the stored row.
func (r *CatalogRepo) CreateProduct(ctx context.Context, p *model.Product) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO products (name, description, price_cents) VALUES (?,?,?)",
		p.Name, p.Description, p.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT id, name, description, price_cents, created_at FROM products WHERE id=?", p.ID).
		Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.CreatedAt)
}

// ListPackages returns all packages, newest first.
func (r *CatalogRepo) ListPackages(ctx context.Context) ([]model.Package, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, price_cents, created_at FROM packages ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Package{}
	for rows.Next() {
		var p model.Package
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CreatePackage inserts a package and fills in the stored row.
func (r *CatalogRepo) CreatePackage(ctx context.Context, p *model.Package) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO packages (name, description, price_cents) VALUES (?,?,?)",
		p.Name, p.Description, p.PriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT id, name, description, price_cents, created_at FROM packages WHERE id=?", p.ID).
		Scan(&p.ID, &p.Name, &p.Description, &p.PriceCents, &p.CreatedAt)
}

// ListTargets returns all sales targets, newest first.
func (r *CatalogRepo) ListTargets(ctx context.Context) ([]model.Target, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_id, period, target_count, created_at FROM targets ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Target{}
	for rows.Next() {
		var t model.Target
		if err := rows.Scan(&t.ID, &t.UserID, &t.Period, &t.TargetCount, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CreateTarget inserts a target and fills in the stored row.
func (r *CatalogRepo) CreateTarget(ctx context.Context, t *model.Target) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO targets (user_id, period, target_count) VALUES (?,?,?)",
		t.UserID, t.Period, t.TargetCount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT id, user_id, period, target_count, created_at FROM targets WHERE id=?", t.ID).
		Scan(&t.ID, &t.UserID, &t.Period, &t.TargetCount, &t.CreatedAt)
}
