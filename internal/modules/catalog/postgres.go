package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateCategory(ctx context.Context, c *Category) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO categories (id, name) VALUES ($1,$2) RETURNING created_at`,
		c.ID, c.Name).Scan(&c.CreatedAt)
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("category %q already exists", c.Name)
	}
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *postgresRepo) ListCategories(ctx context.Context) ([]*Category, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, name, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var categories []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *postgresRepo) UpdateCategory(ctx context.Context, c *Category) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE categories SET name=$2 WHERE id=$1 RETURNING created_at`,
		c.ID, c.Name).Scan(&c.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound("category %s not found", c.ID)
	case store.IsUniqueViolation(err):
		return apperr.Conflict("category %q already exists", c.Name)
	case err != nil:
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (r *postgresRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	res, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if store.IsForeignKeyViolation(err) {
		return apperr.ReferentialIntegrityViolation("category %s still has products", id)
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("category %s not found", id)
	}
	return nil
}

func (r *postgresRepo) CreateProduct(ctx context.Context, p *Product) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO products (id, category_id, name, description)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at, updated_at`,
		p.ID, p.CategoryID, p.Name, p.Description).Scan(&p.CreatedAt, &p.UpdatedAt)
	if store.IsForeignKeyViolation(err) {
		return apperr.NotFound("category %s not found", p.CategoryID)
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func scanProduct(scan func(...interface{}) error) (*Product, error) {
	p := &Product{}
	err := scan(&p.ID, &p.CategoryID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresRepo) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT id, category_id, name, description, created_at, updated_at
		FROM products WHERE id=$1`, id)
	p, err := scanProduct(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("product %s not found", id)
	}
	return p, err
}

func (r *postgresRepo) ListProducts(ctx context.Context, categoryID uuid.UUID) ([]*Product, error) {
	query := `SELECT id, category_id, name, description, created_at, updated_at
	          FROM products WHERE 1=1`
	args := []interface{}{}
	if categoryID != uuid.Nil {
		query += ` AND (category_id=$1 OR id IN (SELECT product_id FROM product_categories WHERE category_id=$1))`
		args = append(args, categoryID)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *postgresRepo) AddProductCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO product_categories (product_id, category_id) VALUES ($1,$2)
		ON CONFLICT DO NOTHING`, productID, categoryID)
	if store.IsForeignKeyViolation(err) {
		return apperr.NotFound("product %s or category %s not found", productID, categoryID)
	}
	if err != nil {
		return fmt.Errorf("insert product category: %w", err)
	}
	return nil
}

func (r *postgresRepo) ProductCategories(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT pc.category_id FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id=$1 ORDER BY c.name ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
