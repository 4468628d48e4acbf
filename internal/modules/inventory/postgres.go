package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const selectListing = `
	SELECT id, vendor_id, product_id, unit_price, inventory_level, created_at, updated_at
	FROM vendor_products`

func scanListing(scan func(...interface{}) error) (*VendorProduct, error) {
	vp := &VendorProduct{}
	if err := scan(&vp.ID, &vp.VendorID, &vp.ProductID, &vp.UnitPrice,
		&vp.InventoryLevel, &vp.CreatedAt, &vp.UpdatedAt); err != nil {
		return nil, err
	}
	return vp, nil
}

func (r *postgresRepo) Create(ctx context.Context, vp *VendorProduct) error {
	err := store.Conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO vendor_products (id, vendor_id, product_id, unit_price, inventory_level)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		vp.ID, vp.VendorID, vp.ProductID, vp.UnitPrice, vp.InventoryLevel).
		Scan(&vp.CreatedAt, &vp.UpdatedAt)
	switch {
	case store.IsUniqueViolation(err):
		return apperr.Conflict("vendor %s already lists product %s", vp.VendorID, vp.ProductID)
	case store.IsForeignKeyViolation(err):
		return apperr.NotFound("vendor %s or product %s not found", vp.VendorID, vp.ProductID)
	case err != nil:
		return fmt.Errorf("insert vendor product: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*VendorProduct, error) {
	vp, err := scanListing(store.Conn(ctx, r.db).QueryRowContext(ctx, selectListing+` WHERE id=$1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("vendor product %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select vendor product: %w", err)
	}
	return vp, nil
}

func (r *postgresRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*VendorProduct, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx,
		selectListing+` WHERE vendor_id=$1 ORDER BY created_at DESC`, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var listings []*VendorProduct
	for rows.Next() {
		vp, err := scanListing(rows.Scan)
		if err != nil {
			return nil, err
		}
		listings = append(listings, vp)
	}
	return listings, rows.Err()
}

// DecrementIfAvailable is the only statement that writes inventory_level
// after a listing is created.
func (r *postgresRepo) DecrementIfAvailable(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	res, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE vendor_products
		SET inventory_level = inventory_level - $2, updated_at = NOW()
		WHERE id=$1 AND inventory_level >= $2`, id, amount)
	if err != nil {
		return false, fmt.Errorf("decrement inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *postgresRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*VendorProduct, error) {
	vp, err := scanListing(store.Conn(ctx, r.db).QueryRowContext(ctx, `
		UPDATE vendor_products SET unit_price=$2, updated_at=NOW()
		WHERE id=$1
		RETURNING id, vendor_id, product_id, unit_price, inventory_level, created_at, updated_at`,
		id, price).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("vendor product %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update vendor product price: %w", err)
	}
	return vp, nil
}

func (r *postgresRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := store.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM vendor_products WHERE id=$1`, id)
	if store.IsForeignKeyViolation(err) {
		return apperr.ReferentialIntegrityViolation("vendor product %s is referenced by carts or orders", id)
	}
	if err != nil {
		return fmt.Errorf("delete vendor product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("vendor product %s not found", id)
	}
	return nil
}
