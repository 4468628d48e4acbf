package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/customer"
	"github.com/georgemunganga/marketplace-backend/internal/modules/supplier"
	"github.com/georgemunganga/marketplace-backend/internal/modules/vendor"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

type customerRepo struct{ s *Store }

func (r customerRepo) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	defer r.s.enter(ctx)()
	for _, existing := range r.s.data.customers {
		if existing.Username == c.Username {
			return apperr.Conflict("username %q is already taken", c.Username)
		}
	}
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	row := *c
	row.Addresses = nil
	r.s.data.customers[c.ID] = row
	return nil
}

func (r customerRepo) GetCustomerByUsername(ctx context.Context, username string) (*customer.Customer, error) {
	defer r.s.enter(ctx)()
	for _, c := range r.s.data.customers {
		if c.Username == username {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("customer not found")
}

func (r customerRepo) GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	defer r.s.enter(ctx)()
	c, ok := r.s.data.customers[id]
	if !ok {
		return nil, apperr.NotFound("customer not found")
	}
	return &c, nil
}

func (r customerRepo) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.customers[c.ID]; !ok {
		return apperr.NotFound("customer not found")
	}
	c.UpdatedAt = r.s.now()
	row := *c
	row.Addresses = nil
	row.CartID = uuid.Nil
	r.s.data.customers[c.ID] = row
	return nil
}

func (r customerRepo) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.customers[id]; !ok {
		return apperr.NotFound("customer not found")
	}
	for _, o := range r.s.data.orders {
		if o.CustomerID == id {
			return apperr.ReferentialIntegrityViolation("customer %s has orders", id)
		}
	}
	for cartID, c := range r.s.data.carts {
		if c.CustomerID != id {
			continue
		}
		for k := range r.s.data.lines {
			if k.cartID == cartID {
				delete(r.s.data.lines, k)
			}
		}
		delete(r.s.data.carts, cartID)
	}
	delete(r.s.data.customers, id)
	return nil
}

type vendorRepo struct{ s *Store }

func (r vendorRepo) CreateVendor(ctx context.Context, v *vendor.Vendor) error {
	defer r.s.enter(ctx)()
	for _, existing := range r.s.data.vendors {
		if existing.Username == v.Username {
			return apperr.Conflict("username %q is already taken", v.Username)
		}
	}
	v.CreatedAt = r.s.now()
	v.UpdatedAt = v.CreatedAt
	row := *v
	row.Addresses = nil
	r.s.data.vendors[v.ID] = row
	return nil
}

func (r vendorRepo) GetVendorByUsername(ctx context.Context, username string) (*vendor.Vendor, error) {
	defer r.s.enter(ctx)()
	for _, v := range r.s.data.vendors {
		if v.Username == username {
			return &v, nil
		}
	}
	return nil, apperr.NotFound("vendor not found")
}

func (r vendorRepo) GetVendorByID(ctx context.Context, id uuid.UUID) (*vendor.Vendor, error) {
	defer r.s.enter(ctx)()
	v, ok := r.s.data.vendors[id]
	if !ok {
		return nil, apperr.NotFound("vendor not found")
	}
	return &v, nil
}

func (r vendorRepo) UpdateVendor(ctx context.Context, v *vendor.Vendor) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.vendors[v.ID]; !ok {
		return apperr.NotFound("vendor not found")
	}
	v.UpdatedAt = r.s.now()
	row := *v
	row.Addresses = nil
	r.s.data.vendors[v.ID] = row
	return nil
}

func (r vendorRepo) DeleteVendor(ctx context.Context, id uuid.UUID) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.vendors[id]; !ok {
		return apperr.NotFound("vendor not found")
	}
	for _, vp := range r.s.data.listings {
		if vp.VendorID == id {
			return apperr.ReferentialIntegrityViolation("vendor %s still has listings", id)
		}
	}
	delete(r.s.data.vendors, id)
	return nil
}

type supplierRepo struct{ s *Store }

func (r supplierRepo) Create(ctx context.Context, sup *supplier.Supplier) error {
	defer r.s.enter(ctx)()
	for _, existing := range r.s.data.suppliers {
		if existing.CompanyName == sup.CompanyName {
			return apperr.Conflict("supplier %q already exists", sup.CompanyName)
		}
	}
	sup.CreatedAt = r.s.now()
	row := *sup
	row.Addresses = nil
	r.s.data.suppliers[sup.ID] = row
	return nil
}

func (r supplierRepo) GetByID(ctx context.Context, id uuid.UUID) (*supplier.Supplier, error) {
	defer r.s.enter(ctx)()
	sup, ok := r.s.data.suppliers[id]
	if !ok {
		return nil, apperr.NotFound("supplier %s not found", id)
	}
	return &sup, nil
}

func (r supplierRepo) List(ctx context.Context) ([]*supplier.Supplier, error) {
	defer r.s.enter(ctx)()
	var out []*supplier.Supplier
	for _, sup := range r.s.data.suppliers {
		sup := sup
		out = append(out, &sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompanyName < out[j].CompanyName })
	return out, nil
}

func (r supplierRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.suppliers[id]; !ok {
		return apperr.NotFound("supplier %s not found", id)
	}
	for _, p := range r.s.data.positions {
		if p.SupplierCompanyID == id {
			return apperr.ReferentialIntegrityViolation("supplier %s is assigned to order positions", id)
		}
	}
	delete(r.s.data.suppliers, id)
	return nil
}

func (r supplierRepo) Update(ctx context.Context, sup *supplier.Supplier) error {
	defer r.s.enter(ctx)()
	row, ok := r.s.data.suppliers[sup.ID]
	if !ok {
		return apperr.NotFound("supplier %s not found", sup.ID)
	}
	for id, existing := range r.s.data.suppliers {
		if id != sup.ID && existing.CompanyName == sup.CompanyName {
			return apperr.Conflict("supplier %q already exists", sup.CompanyName)
		}
	}
	row.CompanyName = sup.CompanyName
	r.s.data.suppliers[sup.ID] = row
	sup.CreatedAt = row.CreatedAt
	return nil
}
