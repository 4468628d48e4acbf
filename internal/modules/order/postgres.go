package order

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

func (r *postgresRepo) CreateOrder(ctx context.Context, o *CustomerOrder) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO customer_orders
		  (id, order_number, customer_id, billing_address_id, order_date, is_paid, total)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		o.ID, o.OrderNumber, o.CustomerID, o.BillingAddressID, o.OrderDate, o.IsPaid, o.Total)
	if store.IsForeignKeyViolation(err) {
		return apperr.NotFound("customer %s or billing address %s not found", o.CustomerID, o.BillingAddressID)
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *postgresRepo) CreatePosition(ctx context.Context, p *Position) error {
	_, err := store.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO order_positions
		  (id, order_id, vendor_product_id, amount, unit_price,
		   supplier_company_id, delivery_address_id, delivery_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		p.ID, p.OrderID, p.VendorProductID, p.Amount, p.UnitPrice,
		p.SupplierCompanyID, p.DeliveryAddressID, p.DeliveryDate)
	if store.IsForeignKeyViolation(err) {
		return apperr.NotFound("order position %s references a missing row", p.ID)
	}
	if err != nil {
		return fmt.Errorf("insert order_position: %w", err)
	}
	return nil
}

const selectOrder = `
	SELECT id, order_number, customer_id, billing_address_id, order_date, is_paid, total
	FROM customer_orders`

func scanOrder(scan func(...interface{}) error) (*CustomerOrder, error) {
	o := &CustomerOrder{}
	err := scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.BillingAddressID,
		&o.OrderDate, &o.IsPaid, &o.Total)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *postgresRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (*CustomerOrder, error) {
	o, err := scanOrder(store.Conn(ctx, r.db).QueryRowContext(ctx, selectOrder+` WHERE id=$1`, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("order %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}
	o.Positions, err = r.listPositions(ctx, o.ID)
	return o, err
}

func (r *postgresRepo) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*CustomerOrder, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx,
		selectOrder+` WHERE customer_id=$1 ORDER BY order_date DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var orders []*CustomerOrder
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *postgresRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	res, err := store.Conn(ctx, r.db).ExecContext(ctx,
		`UPDATE customer_orders SET is_paid=TRUE WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("mark order paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order %s not found", id)
	}
	return nil
}

func (r *postgresRepo) listPositions(ctx context.Context, orderID uuid.UUID) ([]*Position, error) {
	rows, err := store.Conn(ctx, r.db).QueryContext(ctx, `
		SELECT id, order_id, vendor_product_id, amount, unit_price,
		       supplier_company_id, delivery_address_id, delivery_date
		FROM order_positions WHERE order_id=$1 ORDER BY vendor_product_id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var positions []*Position
	for rows.Next() {
		p := &Position{}
		if err := rows.Scan(&p.ID, &p.OrderID, &p.VendorProductID, &p.Amount, &p.UnitPrice,
			&p.SupplierCompanyID, &p.DeliveryAddressID, &p.DeliveryDate); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
