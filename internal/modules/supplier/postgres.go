package supplier

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

func (r *postgresRepo) Create(ctx context.Context, s *Supplier) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO suppliers (id, company_name) VALUES ($1,$2) RETURNING created_at`,
		s.ID, s.CompanyName).Scan(&s.CreatedAt)
	if store.IsUniqueViolation(err) {
		return apperr.Conflict("supplier %q already exists", s.CompanyName)
	}
	if err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Supplier, error) {
	s := &Supplier{}
	err := store.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, company_name, created_at FROM suppliers WHERE id=$1`, id).
		Scan(&s.ID, &s.CompanyName, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("supplier %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select supplier: %w", err)
	}
	return s, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]*Supplier, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx,
		`SELECT id, company_name, created_at FROM suppliers ORDER BY company_name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var suppliers []*Supplier
	for rows.Next() {
		s := &Supplier{}
		if err := rows.Scan(&s.ID, &s.CompanyName, &s.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, s)
	}
	return suppliers, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, s *Supplier) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE suppliers SET company_name=$2 WHERE id=$1 RETURNING created_at`,
		s.ID, s.CompanyName).Scan(&s.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return apperr.NotFound("supplier %s not found", s.ID)
	case store.IsUniqueViolation(err):
		return apperr.Conflict("supplier %q already exists", s.CompanyName)
	case err != nil:
		return fmt.Errorf("update supplier: %w", err)
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM suppliers WHERE id=$1`, id)
	if store.IsForeignKeyViolation(err) {
		return apperr.ReferentialIntegrityViolation("supplier %s is assigned to order positions", id)
	}
	if err != nil {
		return fmt.Errorf("delete supplier: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("supplier %s not found", id)
	}
	return nil
}
