package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/modules/cart"
	"github.com/georgemunganga/marketplace-backend/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-backend/internal/modules/supplier"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/metrics"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

var tracer = otel.Tracer("github.com/georgemunganga/marketplace-backend/internal/modules/order")

// Service defines the order management business logic.
type Service interface {
	// PlaceOrder converts the caller's cart into an order in one transaction:
	// every line becomes a position, the cart is emptied and stock is
	// decremented, or nothing changes at all.
	PlaceOrder(ctx context.Context, p auth.Principal, req PlaceOrderRequest) (*CustomerOrder, error)

	// GetOrder retrieves a full order with its positions.
	GetOrder(ctx context.Context, p auth.Principal, id uuid.UUID) (*CustomerOrder, error)

	// ListCustomerOrders returns all orders placed by a customer.
	ListCustomerOrders(ctx context.Context, p auth.Principal, customerID uuid.UUID) ([]*CustomerOrder, error)

	// MarkPaid flags an order as paid. Admin only.
	MarkPaid(ctx context.Context, p auth.Principal, id uuid.UUID) (*CustomerOrder, error)
}

// Carts is the cart storage the pipeline consumes lines from.
type Carts interface {
	LockCart(ctx context.Context, id uuid.UUID) (*cart.ShoppingCart, error)
	ListLines(ctx context.Context, cartID uuid.UUID) ([]*cart.Line, error)
	DeleteLine(ctx context.Context, cartID, vendorProductID uuid.UUID) error
}

// Suppliers looks up the delivery company of a placement.
type Suppliers interface {
	GetByID(ctx context.Context, id uuid.UUID) (*supplier.Supplier, error)
}

// Addresses pins the billing address for the duration of a placement.
type Addresses interface {
	Pin(ctx context.Context, id uuid.UUID) (*address.Address, error)
}

// Deps are the collaborators of the order service.
type Deps struct {
	Repo      Repository
	Carts     Carts
	Inventory inventory.Ledger
	Addresses Addresses
	Suppliers Suppliers
	Tx        store.Transactor
	Authz     auth.Authorizer
	Metrics   *metrics.Recorder
}

type service struct {
	Deps
	now func() time.Time
}

// NewService creates a new order service.
func NewService(deps Deps) Service {
	return &service{Deps: deps, now: time.Now}
}

func (s *service) PlaceOrder(ctx context.Context, p auth.Principal, req PlaceOrderRequest) (_ *CustomerOrder, err error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "order.PlaceOrder")
	span.SetAttributes(
		attribute.String("cart.id", req.CartID.String()),
		attribute.String("customer.id", p.ID.String()),
	)
	defer func() {
		outcome := "committed"
		if err != nil {
			outcome = strings.ToLower(string(apperr.KindOf(err)))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		s.Metrics.OrderPlaced(outcome, time.Since(start))
		span.End()
	}()

	if err := auth.RequireRole(ctx, s.Authz, p, auth.RoleCustomer); err != nil {
		return nil, err
	}

	pl := newPlacement(ctx, req.CartID)
	var o *CustomerOrder
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		lines, prices, err := s.validate(ctx, pl, p, req)
		if err != nil {
			return err
		}
		o, err = s.reserve(ctx, pl, p, req, lines, prices)
		return err
	})
	if err != nil {
		pl.fail(err)
		return nil, err
	}
	if err := pl.advance(StateCommitted); err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", o.ID.String()))
	pl.logger.Info("order placed",
		zap.Stringer("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int("positions", len(o.Positions)),
		zap.String("total", o.Total.StringFixed(2)),
	)
	return o, nil
}

// validate checks the referenced rows and the stock of every line without
// writing anything.
func (s *service) validate(ctx context.Context, pl *placement, p auth.Principal, req PlaceOrderRequest) ([]*cart.Line, map[uuid.UUID]decimal.Decimal, error) {
	if err := pl.advance(StateValidating); err != nil {
		return nil, nil, err
	}
	if _, err := s.Addresses.Pin(ctx, req.BillingAddressID); err != nil {
		return nil, nil, err
	}
	if _, err := s.Suppliers.GetByID(ctx, req.SupplierCompanyID); err != nil {
		return nil, nil, err
	}
	c, err := s.Carts.LockCart(ctx, req.CartID)
	if err != nil {
		return nil, nil, err
	}
	if c.CustomerID != p.ID {
		return nil, nil, apperr.Unauthorized("cart %s does not belong to customer %s", c.ID, p.ID)
	}

	lines, err := s.Carts.ListLines(ctx, c.ID)
	if err != nil {
		return nil, nil, err
	}
	if len(lines) == 0 {
		return nil, nil, apperr.NotFound("cart %s has no lines", c.ID)
	}

	prices := make(map[uuid.UUID]decimal.Decimal, len(lines))
	for _, l := range lines {
		ok, err := s.Inventory.CheckAvailable(ctx, l.VendorProductID, l.Amount)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, apperr.InsufficientInventory("vendor product %s cannot cover an amount of %d",
				l.VendorProductID, l.Amount)
		}
		vp, err := s.Inventory.GetListing(ctx, l.VendorProductID)
		if err != nil {
			return nil, nil, err
		}
		prices[l.VendorProductID] = vp.UnitPrice
	}
	return lines, prices, nil
}

// reserve writes the order, one position per line, empties the cart and
// takes the stock. Any error rolls the whole transaction back.
func (s *service) reserve(ctx context.Context, pl *placement, p auth.Principal, req PlaceOrderRequest,
	lines []*cart.Line, prices map[uuid.UUID]decimal.Decimal) (*CustomerOrder, error) {
	if err := pl.advance(StateReserving); err != nil {
		return nil, err
	}

	orderDate := s.now().UTC().Truncate(time.Microsecond)
	o := &CustomerOrder{
		ID:               uuid.New(),
		OrderNumber:      generateOrderNumber(orderDate),
		CustomerID:       p.ID,
		BillingAddressID: req.BillingAddressID,
		OrderDate:        orderDate,
		Total:            decimal.Zero,
	}
	for _, l := range lines {
		pos := &Position{
			ID:                uuid.New(),
			OrderID:           o.ID,
			VendorProductID:   l.VendorProductID,
			Amount:            l.Amount,
			UnitPrice:         prices[l.VendorProductID],
			SupplierCompanyID: req.SupplierCompanyID,
			DeliveryAddressID: req.BillingAddressID,
			DeliveryDate:      orderDate.Add(DeliveryLeadTime),
		}
		o.Positions = append(o.Positions, pos)
		o.Total = o.Total.Add(pos.LineTotal())
	}

	if err := s.Repo.CreateOrder(ctx, o); err != nil {
		return nil, err
	}
	for _, pos := range o.Positions {
		if err := s.Repo.CreatePosition(ctx, pos); err != nil {
			return nil, err
		}
		if err := s.Carts.DeleteLine(ctx, req.CartID, pos.VendorProductID); err != nil {
			return nil, err
		}
		if err := s.Inventory.Decrement(ctx, pos.VendorProductID, pos.Amount); err != nil {
			return nil, fmt.Errorf("reserve vendor product %s: %w", pos.VendorProductID, err)
		}
	}
	return o, nil
}

func (s *service) GetOrder(ctx context.Context, p auth.Principal, id uuid.UUID) (*CustomerOrder, error) {
	if err := auth.Require(ctx, s.Authz, p); err != nil {
		return nil, err
	}
	o, err := s.Repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireParty(ctx, s.Authz, p, auth.RoleCustomer, o.CustomerID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) ListCustomerOrders(ctx context.Context, p auth.Principal, customerID uuid.UUID) ([]*CustomerOrder, error) {
	if err := auth.RequireParty(ctx, s.Authz, p, auth.RoleCustomer, customerID); err != nil {
		return nil, err
	}
	return s.Repo.ListOrdersByCustomer(ctx, customerID)
}

func (s *service) MarkPaid(ctx context.Context, p auth.Principal, id uuid.UUID) (*CustomerOrder, error) {
	if err := auth.RequireRole(ctx, s.Authz, p, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.Repo.MarkPaid(ctx, id); err != nil {
		return nil, err
	}
	return s.Repo.GetOrderByID(ctx, id)
}

// generateOrderNumber creates a human-readable order number: ORD-YYYYMMDD-XXXXXXXX
func generateOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(uuid.New().String()[:8])
	return fmt.Sprintf("ORD-%s-%s", at.Format("20060102"), suffix)
}
