package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

type postgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository creates a new PostgreSQL customer repository.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) CreateCustomer(ctx context.Context, c *Customer) error {
	query := `
		INSERT INTO customers (id, username, password_hash, email, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, query,
		c.ID, c.Username, c.PasswordHash, c.Email, c.FirstName, c.LastName,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("username %q is already taken", c.Username)
	}
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *postgresRepository) getOne(ctx context.Context, where string, arg interface{}) (*Customer, error) {
	c := &Customer{}
	query := `
		SELECT id, username, password_hash, email, first_name, last_name, created_at, updated_at
		FROM customers
		WHERE ` + where
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, query, arg).Scan(
		&c.ID,
		&c.Username,
		&c.PasswordHash,
		&c.Email,
		&c.FirstName,
		&c.LastName,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("customer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("select customer: %w", err)
	}
	return c, nil
}

func (r *postgresRepository) GetCustomerByUsername(ctx context.Context, username string) (*Customer, error) {
	return r.getOne(ctx, "username = $1", username)
}

func (r *postgresRepository) GetCustomerByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresRepository) UpdateCustomer(ctx context.Context, c *Customer) error {
	query := `
		UPDATE customers
		SET password_hash = $2, email = $3, first_name = $4, last_name = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, query,
		c.ID, c.PasswordHash, c.Email, c.FirstName, c.LastName,
	).Scan(&c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("customer not found")
	}
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

func (r *postgresRepository) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	conn := store.Conn(ctx, r.db)
	if _, err := conn.ExecContext(ctx, `
		DELETE FROM cart_lines
		WHERE cart_id IN (SELECT id FROM shopping_carts WHERE customer_id = $1)`, id); err != nil {
		return fmt.Errorf("delete cart lines: %w", err)
	}
	if _, err := conn.ExecContext(ctx, `DELETE FROM shopping_carts WHERE customer_id = $1`, id); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	res, err := conn.ExecContext(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if store.IsForeignKeyViolation(err) {
		return apperr.ReferentialIntegrityViolation("customer %s has orders", id)
	}
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("customer not found")
	}
	return nil
}
