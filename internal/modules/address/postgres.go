package address

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

// NewPostgresRepository creates a new PostgreSQL address repository.
func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectAddress = `SELECT id, street, city, postal_code, country, created_at FROM addresses`

func scanAddress(scan func(...interface{}) error) (*Address, error) {
	a := &Address{}
	if err := scan(&a.ID, &a.Street, &a.City, &a.PostalCode, &a.Country, &a.CreatedAt); err != nil {
		return nil, err
	}
	return a, nil
}

func (r *postgresRepo) getOne(ctx context.Context, query string, args ...interface{}) (*Address, error) {
	a, err := scanAddress(store.Conn(ctx, r.db).QueryRowContext(ctx, query, args...).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("address not found")
	}
	if err != nil {
		return nil, fmt.Errorf("select address: %w", err)
	}
	return a, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*Address, error) {
	return r.getOne(ctx, selectAddress+` WHERE id=$1`, id)
}

func (r *postgresRepo) LockByID(ctx context.Context, id uuid.UUID) (*Address, error) {
	return r.getOne(ctx, selectAddress+` WHERE id=$1 FOR UPDATE`, id)
}

func (r *postgresRepo) LockByContent(ctx context.Context, c Content) (*Address, error) {
	return r.getOne(ctx, selectAddress+`
		WHERE street=$1 AND city=$2 AND postal_code=$3 AND country=$4 FOR UPDATE`,
		c.Street, c.City, c.PostalCode, c.Country)
}

// InsertIfAbsent relies on the unique constraint over
// (street, city, postal_code, country). ON CONFLICT DO NOTHING keeps the
// surrounding transaction usable when a concurrent insert wins.
func (r *postgresRepo) InsertIfAbsent(ctx context.Context, a *Address) (bool, error) {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO addresses (id, street, city, postal_code, country)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT DO NOTHING
		RETURNING created_at`,
		a.ID, a.Street, a.City, a.PostalCode, a.Country).Scan(&a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert address: %w", err)
	}
	return true, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM addresses WHERE id=$1`, id)
	if store.IsForeignKeyViolation(err) {
		return apperr.ReferentialIntegrityViolation("address %s is still referenced", id)
	}
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return nil
}

func (r *postgresRepo) AddAffiliation(ctx context.Context, owner Owner, addressID uuid.UUID) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO address_affiliations (owner_kind, owner_id, address_id)
		VALUES ($1,$2,$3)
		ON CONFLICT (owner_kind, owner_id, address_id) DO NOTHING`,
		owner.Kind, owner.ID, addressID)
	if store.IsForeignKeyViolation(err) {
		return apperr.NotFound("address %s not found", addressID)
	}
	if err != nil {
		return fmt.Errorf("insert address affiliation: %w", err)
	}
	return nil
}

func (r *postgresRepo) RemoveAffiliation(ctx context.Context, owner Owner, addressID uuid.UUID) (bool, error) {
	res, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		DELETE FROM address_affiliations
		WHERE owner_kind=$1 AND owner_id=$2 AND address_id=$3`,
		owner.Kind, owner.ID, addressID)
	if err != nil {
		return false, fmt.Errorf("delete address affiliation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *postgresRepo) CountReferences(ctx context.Context, addressID uuid.UUID) (References, error) {
	var refs References
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM address_affiliations WHERE address_id=$1),
		  (SELECT COUNT(*) FROM customer_orders WHERE billing_address_id=$1),
		  (SELECT COUNT(*) FROM order_positions WHERE delivery_address_id=$1)`,
		addressID).Scan(&refs.Affiliations, &refs.BillingOrders, &refs.DeliveryPositions)
	if err != nil {
		return References{}, fmt.Errorf("count address references: %w", err)
	}
	return refs, nil
}

func (r *postgresRepo) ListByOwner(ctx context.Context, owner Owner) ([]*Address, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT a.id, a.street, a.city, a.postal_code, a.country, a.created_at
		FROM addresses a
		JOIN address_affiliations af ON af.address_id = a.id
		WHERE af.owner_kind=$1 AND af.owner_id=$2
		ORDER BY a.created_at ASC, a.id`, owner.Kind, owner.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addresses []*Address
	for rows.Next() {
		a, err := scanAddress(rows.Scan)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, a)
	}
	return addresses, rows.Err()
}

var ownerTables = map[OwnerKind]string{
	OwnerCustomer: "customers",
	OwnerVendor:   "vendors",
	OwnerSupplier: "suppliers",
}

func (r *postgresRepo) OwnerExists(ctx context.Context, owner Owner) (bool, error) {
	table, ok := ownerTables[owner.Kind]
	if !ok {
		return false, fmt.Errorf("unknown owner kind %q", owner.Kind)
	}
	var exists bool
	err := store.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id=$1)`, owner.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return exists, nil
}
