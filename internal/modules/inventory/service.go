package inventory

import (
	"context"
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/metrics"
)

// MaxLevel is the largest inventory level or amount the INTEGER columns hold.
const MaxLevel = math.MaxInt32

// Ledger guards per-listing stock. Decrement is the only way stock goes down.
type Ledger interface {
	// CheckAvailable reports whether amount <= the listing's inventory level.
	CheckAvailable(ctx context.Context, vendorProductID uuid.UUID, amount int) (bool, error)

	// Decrement atomically lowers the level by amount, failing with
	// InsufficientInventory instead of going negative.
	Decrement(ctx context.Context, vendorProductID uuid.UUID, amount int) error

	GetListing(ctx context.Context, id uuid.UUID) (*VendorProduct, error)
}

// Service defines the inventory business logic for vendor listings.
type Service interface {
	Ledger

	CreateListing(ctx context.Context, p auth.Principal, req CreateListingRequest) (*VendorProduct, error)
	ListVendorListings(ctx context.Context, vendorID uuid.UUID) ([]*VendorProduct, error)
	// UpdatePrice changes the unit price only; stock moves through Decrement.
	UpdatePrice(ctx context.Context, p auth.Principal, id uuid.UUID, price decimal.Decimal) (*VendorProduct, error)
	// RemoveListing deletes a listing no cart line or order position refers to.
	RemoveListing(ctx context.Context, p auth.Principal, id uuid.UUID) error
}

type service struct {
	repo    Repository
	authz   auth.Authorizer
	metrics *metrics.Recorder
}

// NewService creates a new inventory service.
func NewService(repo Repository, authz auth.Authorizer, rec *metrics.Recorder) Service {
	return &service{repo: repo, authz: authz, metrics: rec}
}

func (s *service) CheckAvailable(ctx context.Context, vendorProductID uuid.UUID, amount int) (bool, error) {
	vp, err := s.repo.GetByID(ctx, vendorProductID)
	if err != nil {
		return false, err
	}
	return amount <= MaxLevel && amount <= vp.InventoryLevel, nil
}

func (s *service) Decrement(ctx context.Context, vendorProductID uuid.UUID, amount int) error {
	if amount <= 0 {
		return apperr.InvalidAmount("amount must be > 0, got %d", amount)
	}
	if amount <= MaxLevel {
		ok, err := s.repo.DecrementIfAvailable(ctx, vendorProductID, amount)
		if err != nil {
			s.metrics.InventoryDecremented("error")
			return err
		}
		if ok {
			s.metrics.InventoryDecremented("ok")
			return nil
		}
	}

	// Nothing changed: tell a missing listing apart from short stock.
	vp, err := s.repo.GetByID(ctx, vendorProductID)
	if err != nil {
		return err
	}
	s.metrics.InventoryDecremented("insufficient")
	logging.FromContext(ctx).Warn("inventory decrement refused",
		zap.Stringer("vendor_product_id", vendorProductID),
		zap.Int("requested", amount),
		zap.Int("level", vp.InventoryLevel),
	)
	return apperr.InsufficientInventory("vendor product %s has %d in stock, %d requested",
		vendorProductID, vp.InventoryLevel, amount)
}

func (s *service) GetListing(ctx context.Context, id uuid.UUID) (*VendorProduct, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) CreateListing(ctx context.Context, p auth.Principal, req CreateListingRequest) (*VendorProduct, error) {
	if err := auth.RequireParty(ctx, s.authz, p, auth.RoleVendor, req.VendorID); err != nil {
		return nil, err
	}
	if req.InventoryLevel < 0 || req.InventoryLevel > MaxLevel {
		return nil, apperr.InvalidAmount("inventory_level must be in [0, %d], got %d", MaxLevel, req.InventoryLevel)
	}
	if req.UnitPrice.IsNegative() {
		return nil, apperr.InvalidAmount("unit_price must be >= 0, got %s", req.UnitPrice)
	}
	vp := &VendorProduct{
		ID:             uuid.New(),
		VendorID:       req.VendorID,
		ProductID:      req.ProductID,
		UnitPrice:      req.UnitPrice,
		InventoryLevel: req.InventoryLevel,
	}
	if err := s.repo.Create(ctx, vp); err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("listing created",
		zap.Stringer("vendor_product_id", vp.ID),
		zap.Stringer("vendor_id", vp.VendorID),
		zap.Int("inventory_level", vp.InventoryLevel),
	)
	return vp, nil
}

func (s *service) ListVendorListings(ctx context.Context, vendorID uuid.UUID) ([]*VendorProduct, error) {
	return s.repo.ListByVendor(ctx, vendorID)
}

// ownListing loads a listing and checks p may manage it.
func (s *service) ownListing(ctx context.Context, p auth.Principal, id uuid.UUID) (*VendorProduct, error) {
	if err := auth.RequireRole(ctx, s.authz, p, auth.RoleVendor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	vp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireParty(ctx, s.authz, p, auth.RoleVendor, vp.VendorID); err != nil {
		return nil, err
	}
	return vp, nil
}

func (s *service) UpdatePrice(ctx context.Context, p auth.Principal, id uuid.UUID, price decimal.Decimal) (*VendorProduct, error) {
	if price.IsNegative() {
		return nil, apperr.InvalidAmount("unit_price must be >= 0, got %s", price)
	}
	if _, err := s.ownListing(ctx, p, id); err != nil {
		return nil, err
	}
	vp, err := s.repo.UpdatePrice(ctx, id, price)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("listing repriced",
		zap.Stringer("vendor_product_id", id),
		zap.String("unit_price", price.String()),
	)
	return vp, nil
}

func (s *service) RemoveListing(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	if _, err := s.ownListing(ctx, p, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("listing removed", zap.Stringer("vendor_product_id", id))
	return nil
}
