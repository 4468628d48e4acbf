package cart

import (
	"context"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

// MaxLineAmount bounds a line amount to the INTEGER column that stores it.
const MaxLineAmount = math.MaxInt32

// Availability is the stock check the cart bounds line amounts with. The
// bound is advisory; order placement re-checks it.
type Availability interface {
	CheckAvailable(ctx context.Context, vendorProductID uuid.UUID, amount int) (bool, error)
}

// Service defines the cart business logic.
type Service interface {
	// OpenCart returns the customer's cart, creating it on first use.
	OpenCart(ctx context.Context, p auth.Principal, customerID uuid.UUID) (*ShoppingCart, error)
	GetCart(ctx context.Context, p auth.Principal, cartID uuid.UUID) (*ShoppingCart, error)
	AddItem(ctx context.Context, p auth.Principal, cartID uuid.UUID, req ItemRequest) (*Line, error)
	// RemoveItem returns the remaining line; Amount 0 means the line is gone.
	RemoveItem(ctx context.Context, p auth.Principal, cartID uuid.UUID, req ItemRequest) (*Line, error)

	// Ensure is OpenCart without the session gate, for callers that already
	// authorized the customer.
	Ensure(ctx context.Context, customerID uuid.UUID) (*ShoppingCart, error)
	// Find returns the customer's cart without creating one.
	Find(ctx context.Context, customerID uuid.UUID) (*ShoppingCart, error)
}

type service struct {
	repo  Repository
	stock Availability
	tx    store.Transactor
	authz auth.Authorizer
}

// NewService creates a new cart service.
func NewService(repo Repository, stock Availability, tx store.Transactor, authz auth.Authorizer) Service {
	return &service{repo: repo, stock: stock, tx: tx, authz: authz}
}

func (s *service) OpenCart(ctx context.Context, p auth.Principal, customerID uuid.UUID) (*ShoppingCart, error) {
	if err := auth.RequireParty(ctx, s.authz, p, auth.RoleCustomer, customerID); err != nil {
		return nil, err
	}
	c, err := s.Ensure(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c.Lines, err = s.repo.ListLines(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Ensure(ctx context.Context, customerID uuid.UUID) (*ShoppingCart, error) {
	c, err := s.repo.GetCartByCustomer(ctx, customerID)
	if err == nil {
		return c, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	c = &ShoppingCart{ID: uuid.New(), CustomerID: customerID, Lines: []*Line{}}
	err = s.repo.CreateCart(ctx, c)
	if apperr.KindOf(err) == apperr.KindConflict {
		// Lost the race to a concurrent OpenCart for the same customer.
		return s.repo.GetCartByCustomer(ctx, customerID)
	}
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("cart opened",
		zap.Stringer("cart_id", c.ID),
		zap.Stringer("customer_id", customerID),
	)
	return c, nil
}

func (s *service) Find(ctx context.Context, customerID uuid.UUID) (*ShoppingCart, error) {
	return s.repo.GetCartByCustomer(ctx, customerID)
}

func (s *service) authorizeCart(ctx context.Context, p auth.Principal, c *ShoppingCart) error {
	return auth.RequireParty(ctx, s.authz, p, auth.RoleCustomer, c.CustomerID)
}

func (s *service) GetCart(ctx context.Context, p auth.Principal, cartID uuid.UUID) (*ShoppingCart, error) {
	if err := auth.Require(ctx, s.authz, p); err != nil {
		return nil, err
	}
	c, err := s.repo.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCart(ctx, p, c); err != nil {
		return nil, err
	}
	if c.Lines, err = s.repo.ListLines(ctx, c.ID); err != nil {
		return nil, err
	}
	return c, nil
}

func validAmount(n int) error {
	if n <= 0 {
		return apperr.InvalidAmount("amount must be > 0, got %d", n)
	}
	if n > MaxLineAmount {
		return apperr.InvalidAmount("amount must be <= %d, got %d", MaxLineAmount, n)
	}
	return nil
}

func (s *service) AddItem(ctx context.Context, p auth.Principal, cartID uuid.UUID, req ItemRequest) (*Line, error) {
	if err := validAmount(req.Amount); err != nil {
		return nil, err
	}
	var line *Line
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.LockCart(ctx, cartID)
		if err != nil {
			return err
		}
		if err := s.authorizeCart(ctx, p, c); err != nil {
			return err
		}

		existing, err := s.repo.GetLine(ctx, cartID, req.VendorProductID)
		if err != nil && apperr.KindOf(err) != apperr.KindNotFound {
			return err
		}
		want := req.Amount
		if existing != nil {
			if existing.Amount > MaxLineAmount-req.Amount {
				return apperr.InsufficientInventory("vendor product %s cannot cover %d more on a line holding %d",
					req.VendorProductID, req.Amount, existing.Amount)
			}
			want += existing.Amount
		}

		ok, err := s.stock.CheckAvailable(ctx, req.VendorProductID, want)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.InsufficientInventory("vendor product %s cannot cover an amount of %d", req.VendorProductID, want)
		}

		line = &Line{CartID: cartID, VendorProductID: req.VendorProductID, Amount: want}
		if existing == nil {
			return s.repo.InsertLine(ctx, line)
		}
		return s.repo.UpdateLineAmount(ctx, cartID, req.VendorProductID, want)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *service) RemoveItem(ctx context.Context, p auth.Principal, cartID uuid.UUID, req ItemRequest) (*Line, error) {
	if err := validAmount(req.Amount); err != nil {
		return nil, err
	}
	var line *Line
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		c, err := s.repo.LockCart(ctx, cartID)
		if err != nil {
			return err
		}
		if err := s.authorizeCart(ctx, p, c); err != nil {
			return err
		}

		existing, err := s.repo.GetLine(ctx, cartID, req.VendorProductID)
		if err != nil {
			return err
		}
		if req.Amount > existing.Amount {
			return apperr.InvalidAmount("cannot remove %d from a line holding %d", req.Amount, existing.Amount)
		}

		line = &Line{CartID: cartID, VendorProductID: req.VendorProductID, Amount: existing.Amount - req.Amount}
		if line.Amount == 0 {
			return s.repo.DeleteLine(ctx, cartID, req.VendorProductID)
		}
		return s.repo.UpdateLineAmount(ctx, cartID, req.VendorProductID, line.Amount)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}
