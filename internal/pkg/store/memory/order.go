package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/order"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

type orderRepo struct{ s *Store }

func (r orderRepo) CreateOrder(ctx context.Context, o *order.CustomerOrder) error {
	defer r.s.enter(ctx)()
	_, customerOK := r.s.data.customers[o.CustomerID]
	_, addressOK := r.s.data.addresses[o.BillingAddressID]
	if !customerOK || !addressOK {
		return apperr.NotFound("customer %s or billing address %s not found", o.CustomerID, o.BillingAddressID)
	}
	row := *o
	row.Positions = nil
	r.s.data.orders[o.ID] = row
	return nil
}

func (r orderRepo) CreatePosition(ctx context.Context, p *order.Position) error {
	defer r.s.enter(ctx)()
	_, orderOK := r.s.data.orders[p.OrderID]
	_, listingOK := r.s.data.listings[p.VendorProductID]
	_, supplierOK := r.s.data.suppliers[p.SupplierCompanyID]
	_, addressOK := r.s.data.addresses[p.DeliveryAddressID]
	if !orderOK || !listingOK || !supplierOK || !addressOK {
		return apperr.NotFound("order position %s references a missing row", p.ID)
	}
	r.s.data.positions[p.ID] = *p
	return nil
}

func (r orderRepo) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.CustomerOrder, error) {
	defer r.s.enter(ctx)()
	o, ok := r.s.data.orders[id]
	if !ok {
		return nil, apperr.NotFound("order %s not found", id)
	}
	for _, p := range r.s.data.positions {
		p := p
		if p.OrderID == id {
			o.Positions = append(o.Positions, &p)
		}
	}
	sort.Slice(o.Positions, func(i, j int) bool {
		return o.Positions[i].VendorProductID.String() < o.Positions[j].VendorProductID.String()
	})
	return &o, nil
}

func (r orderRepo) ListOrdersByCustomer(ctx context.Context, customerID uuid.UUID) ([]*order.CustomerOrder, error) {
	defer r.s.enter(ctx)()
	var out []*order.CustomerOrder
	for _, o := range r.s.data.orders {
		o := o
		if o.CustomerID == customerID {
			out = append(out, &o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (r orderRepo) MarkPaid(ctx context.Context, id uuid.UUID) error {
	defer r.s.enter(ctx)()
	o, ok := r.s.data.orders[id]
	if !ok {
		return apperr.NotFound("order %s not found", id)
	}
	o.IsPaid = true
	r.s.data.orders[id] = o
	return nil
}
