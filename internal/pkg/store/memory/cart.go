package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

type cartRepo struct{ s *Store }

func (r cartRepo) CreateCart(ctx context.Context, c *cart.ShoppingCart) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.customers[c.CustomerID]; !ok {
		return apperr.NotFound("customer %s not found", c.CustomerID)
	}
	for _, existing := range r.s.data.carts {
		if existing.CustomerID == c.CustomerID {
			return apperr.Conflict("customer %s already has a cart", c.CustomerID)
		}
	}
	c.DateCreated = r.s.now()
	row := *c
	row.Lines = nil
	r.s.data.carts[c.ID] = row
	return nil
}

func (r cartRepo) GetCart(ctx context.Context, id uuid.UUID) (*cart.ShoppingCart, error) {
	defer r.s.enter(ctx)()
	c, ok := r.s.data.carts[id]
	if !ok {
		return nil, apperr.NotFound("cart not found")
	}
	return &c, nil
}

func (r cartRepo) GetCartByCustomer(ctx context.Context, customerID uuid.UUID) (*cart.ShoppingCart, error) {
	defer r.s.enter(ctx)()
	for _, c := range r.s.data.carts {
		if c.CustomerID == customerID {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("cart not found")
}

func (r cartRepo) LockCart(ctx context.Context, id uuid.UUID) (*cart.ShoppingCart, error) {
	return r.GetCart(ctx, id)
}

func (r cartRepo) GetLine(ctx context.Context, cartID, vendorProductID uuid.UUID) (*cart.Line, error) {
	defer r.s.enter(ctx)()
	l, ok := r.s.data.lines[lineKey{cartID, vendorProductID}]
	if !ok {
		return nil, apperr.NotFound("cart %s has no line for vendor product %s", cartID, vendorProductID)
	}
	return &l, nil
}

func (r cartRepo) ListLines(ctx context.Context, cartID uuid.UUID) ([]*cart.Line, error) {
	defer r.s.enter(ctx)()
	out := []*cart.Line{}
	for key, l := range r.s.data.lines {
		l := l
		if key.cartID == cartID {
			out = append(out, &l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].VendorProductID.String() < out[j].VendorProductID.String()
	})
	return out, nil
}

func (r cartRepo) InsertLine(ctx context.Context, l *cart.Line) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.carts[l.CartID]; !ok {
		return apperr.NotFound("cart %s not found", l.CartID)
	}
	if _, ok := r.s.data.listings[l.VendorProductID]; !ok {
		return apperr.NotFound("vendor product %s not found", l.VendorProductID)
	}
	key := lineKey{l.CartID, l.VendorProductID}
	if _, ok := r.s.data.lines[key]; ok {
		return apperr.Conflict("cart %s already has a line for vendor product %s", l.CartID, l.VendorProductID)
	}
	r.s.data.lines[key] = *l
	return nil
}

func (r cartRepo) UpdateLineAmount(ctx context.Context, cartID, vendorProductID uuid.UUID, amount int) error {
	defer r.s.enter(ctx)()
	key := lineKey{cartID, vendorProductID}
	l, ok := r.s.data.lines[key]
	if !ok {
		return nil
	}
	l.Amount = amount
	r.s.data.lines[key] = l
	return nil
}

func (r cartRepo) DeleteLine(ctx context.Context, cartID, vendorProductID uuid.UUID) error {
	defer r.s.enter(ctx)()
	delete(r.s.data.lines, lineKey{cartID, vendorProductID})
	return nil
}
