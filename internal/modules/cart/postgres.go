package cart

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

func (r *postgresRepo) CreateCart(ctx context.Context, c *ShoppingCart) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO shopping_carts (id, customer_id) VALUES ($1,$2)
		RETURNING date_created`, c.ID, c.CustomerID).Scan(&c.DateCreated)
	switch {
	case store.IsUniqueViolation(err):
		return apperr.Conflict("customer %s already has a cart", c.CustomerID)
	case store.IsForeignKeyViolation(err):
		return apperr.NotFound("customer %s not found", c.CustomerID)
	case err != nil:
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (r *postgresRepo) getCart(ctx context.Context, query string, arg uuid.UUID) (*ShoppingCart, error) {
	c := &ShoppingCart{}
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, query, arg).
		Scan(&c.ID, &c.CustomerID, &c.DateCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("cart not found")
	}
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	return c, nil
}

func (r *postgresRepo) GetCart(ctx context.Context, id uuid.UUID) (*ShoppingCart, error) {
	return r.getCart(ctx, `SELECT id, customer_id, date_created FROM shopping_carts WHERE id=$1`, id)
}

func (r *postgresRepo) GetCartByCustomer(ctx context.Context, customerID uuid.UUID) (*ShoppingCart, error) {
	return r.getCart(ctx, `SELECT id, customer_id, date_created FROM shopping_carts WHERE customer_id=$1`, customerID)
}

func (r *postgresRepo) LockCart(ctx context.Context, id uuid.UUID) (*ShoppingCart, error) {
	return r.getCart(ctx, `SELECT id, customer_id, date_created FROM shopping_carts WHERE id=$1 FOR UPDATE`, id)
}

func (r *postgresRepo) GetLine(ctx context.Context, cartID, vendorProductID uuid.UUID) (*Line, error) {
	l := &Line{}
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT cart_id, vendor_product_id, amount FROM cart_lines
		WHERE cart_id=$1 AND vendor_product_id=$2`, cartID, vendorProductID).
		Scan(&l.CartID, &l.VendorProductID, &l.Amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("cart %s has no line for vendor product %s", cartID, vendorProductID)
	}
	if err != nil {
		return nil, fmt.Errorf("select cart line: %w", err)
	}
	return l, nil
}

func (r *postgresRepo) ListLines(ctx context.Context, cartID uuid.UUID) ([]*Line, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT cart_id, vendor_product_id, amount FROM cart_lines
		WHERE cart_id=$1 ORDER BY vendor_product_id`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lines := []*Line{}
	for rows.Next() {
		l := &Line{}
		if err := rows.Scan(&l.CartID, &l.VendorProductID, &l.Amount); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *postgresRepo) InsertLine(ctx context.Context, l *Line) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO cart_lines (cart_id, vendor_product_id, amount) VALUES ($1,$2,$3)`,
		l.CartID, l.VendorProductID, l.Amount)
	switch {
	case store.IsUniqueViolation(err):
		return apperr.Conflict("cart %s already has a line for vendor product %s", l.CartID, l.VendorProductID)
	case store.IsForeignKeyViolation(err):
		return apperr.NotFound("vendor product %s not found", l.VendorProductID)
	case err != nil:
		return fmt.Errorf("insert cart line: %w", err)
	}
	return nil
}

func (r *postgresRepo) UpdateLineAmount(ctx context.Context, cartID, vendorProductID uuid.UUID, amount int) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE cart_lines SET amount=$3 WHERE cart_id=$1 AND vendor_product_id=$2`,
		cartID, vendorProductID, amount)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	return nil
}

func (r *postgresRepo) DeleteLine(ctx context.Context, cartID, vendorProductID uuid.UUID) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		DELETE FROM cart_lines WHERE cart_id=$1 AND vendor_product_id=$2`, cartID, vendorProductID)
	if err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}
	return nil
}
