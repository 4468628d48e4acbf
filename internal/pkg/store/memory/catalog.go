package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/marketplace-backend/internal/modules/catalog"
	"github.com/georgemunganga/marketplace-backend/internal/modules/inventory"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

type catalogRepo struct{ s *Store }

func (r catalogRepo) CreateCategory(ctx context.Context, c *catalog.Category) error {
	defer r.s.enter(ctx)()
	for _, existing := range r.s.data.categories {
		if existing.Name == c.Name {
			return apperr.Conflict("category %q already exists", c.Name)
		}
	}
	c.CreatedAt = r.s.now()
	r.s.data.categories[c.ID] = *c
	return nil
}

func (r catalogRepo) ListCategories(ctx context.Context) ([]*catalog.Category, error) {
	defer r.s.enter(ctx)()
	var out []*catalog.Category
	for _, c := range r.s.data.categories {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r catalogRepo) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	defer r.s.enter(ctx)()
	row, ok := r.s.data.categories[c.ID]
	if !ok {
		return apperr.NotFound("category %s not found", c.ID)
	}
	for id, existing := range r.s.data.categories {
		if id != c.ID && existing.Name == c.Name {
			return apperr.Conflict("category %q already exists", c.Name)
		}
	}
	row.Name = c.Name
	r.s.data.categories[c.ID] = row
	c.CreatedAt = row.CreatedAt
	return nil
}

func (r catalogRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.categories[id]; !ok {
		return apperr.NotFound("category %s not found", id)
	}
	for _, p := range r.s.data.products {
		if p.CategoryID == id {
			return apperr.ReferentialIntegrityViolation("category %s still has products", id)
		}
	}
	for k := range r.s.data.productCats {
		if k.categoryID == id {
			return apperr.ReferentialIntegrityViolation("category %s still has products", id)
		}
	}
	delete(r.s.data.categories, id)
	return nil
}

func (r catalogRepo) CreateProduct(ctx context.Context, p *catalog.Product) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.categories[p.CategoryID]; !ok {
		return apperr.NotFound("category %s not found", p.CategoryID)
	}
	p.CreatedAt = r.s.now()
	p.UpdatedAt = p.CreatedAt
	r.s.data.products[p.ID] = *p
	return nil
}

func (r catalogRepo) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	defer r.s.enter(ctx)()
	p, ok := r.s.data.products[id]
	if !ok {
		return nil, apperr.NotFound("product %s not found", id)
	}
	return &p, nil
}

func (r catalogRepo) ListProducts(ctx context.Context, categoryID uuid.UUID) ([]*catalog.Product, error) {
	defer r.s.enter(ctx)()
	var out []*catalog.Product
	for _, p := range r.s.data.products {
		p := p
		_, referenced := r.s.data.productCats[productCategoryKey{p.ID, categoryID}]
		if categoryID == uuid.Nil || p.CategoryID == categoryID || referenced {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r catalogRepo) AddProductCategory(ctx context.Context, productID, categoryID uuid.UUID) error {
	defer r.s.enter(ctx)()
	_, productOK := r.s.data.products[productID]
	_, categoryOK := r.s.data.categories[categoryID]
	if !productOK || !categoryOK {
		return apperr.NotFound("product %s or category %s not found", productID, categoryID)
	}
	r.s.data.productCats[productCategoryKey{productID, categoryID}] = struct{}{}
	return nil
}

func (r catalogRepo) ProductCategories(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	defer r.s.enter(ctx)()
	var ids []uuid.UUID
	for k := range r.s.data.productCats {
		if k.productID == productID {
			ids = append(ids, k.categoryID)
		}
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.s.data.categories[ids[i]].Name < r.s.data.categories[ids[j]].Name
	})
	return ids, nil
}

type listingRepo struct{ s *Store }

func (r listingRepo) Create(ctx context.Context, vp *inventory.VendorProduct) error {
	defer r.s.enter(ctx)()
	_, vendorOK := r.s.data.vendors[vp.VendorID]
	_, productOK := r.s.data.products[vp.ProductID]
	if !vendorOK || !productOK {
		return apperr.NotFound("vendor %s or product %s not found", vp.VendorID, vp.ProductID)
	}
	for _, existing := range r.s.data.listings {
		if existing.VendorID == vp.VendorID && existing.ProductID == vp.ProductID {
			return apperr.Conflict("vendor %s already lists product %s", vp.VendorID, vp.ProductID)
		}
	}
	vp.CreatedAt = r.s.now()
	vp.UpdatedAt = vp.CreatedAt
	r.s.data.listings[vp.ID] = *vp
	return nil
}

func (r listingRepo) GetByID(ctx context.Context, id uuid.UUID) (*inventory.VendorProduct, error) {
	defer r.s.enter(ctx)()
	vp, ok := r.s.data.listings[id]
	if !ok {
		return nil, apperr.NotFound("vendor product %s not found", id)
	}
	return &vp, nil
}

func (r listingRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]*inventory.VendorProduct, error) {
	defer r.s.enter(ctx)()
	var out []*inventory.VendorProduct
	for _, vp := range r.s.data.listings {
		vp := vp
		if vp.VendorID == vendorID {
			out = append(out, &vp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r listingRepo) DecrementIfAvailable(ctx context.Context, id uuid.UUID, amount int) (bool, error) {
	defer r.s.enter(ctx)()
	vp, ok := r.s.data.listings[id]
	if !ok || vp.InventoryLevel < amount {
		return false, nil
	}
	vp.InventoryLevel -= amount
	vp.UpdatedAt = r.s.now()
	r.s.data.listings[id] = vp
	return true, nil
}

func (r listingRepo) UpdatePrice(ctx context.Context, id uuid.UUID, price decimal.Decimal) (*inventory.VendorProduct, error) {
	defer r.s.enter(ctx)()
	vp, ok := r.s.data.listings[id]
	if !ok {
		return nil, apperr.NotFound("vendor product %s not found", id)
	}
	vp.UnitPrice = price
	vp.UpdatedAt = r.s.now()
	r.s.data.listings[id] = vp
	return &vp, nil
}

func (r listingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.listings[id]; !ok {
		return apperr.NotFound("vendor product %s not found", id)
	}
	for k := range r.s.data.lines {
		if k.vendorProductID == id {
			return apperr.ReferentialIntegrityViolation("vendor product %s is referenced by carts or orders", id)
		}
	}
	for _, p := range r.s.data.positions {
		if p.VendorProductID == id {
			return apperr.ReferentialIntegrityViolation("vendor product %s is referenced by carts or orders", id)
		}
	}
	delete(r.s.data.listings, id)
	return nil
}
