package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/address"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

type addressRepo struct{ s *Store }

func (r addressRepo) GetByID(ctx context.Context, id uuid.UUID) (*address.Address, error) {
	defer r.s.enter(ctx)()
	a, ok := r.s.data.addresses[id]
	if !ok {
		return nil, apperr.NotFound("address not found")
	}
	return &a, nil
}

// LockByID needs no row lock here: the caller's transaction already holds
// the store mutex.
func (r addressRepo) LockByID(ctx context.Context, id uuid.UUID) (*address.Address, error) {
	return r.GetByID(ctx, id)
}

func (r addressRepo) LockByContent(ctx context.Context, c address.Content) (*address.Address, error) {
	defer r.s.enter(ctx)()
	for _, a := range r.s.data.addresses {
		if a.Content == c {
			return &a, nil
		}
	}
	return nil, apperr.NotFound("address not found")
}

func (r addressRepo) InsertIfAbsent(ctx context.Context, a *address.Address) (bool, error) {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.addresses[a.ID]; ok {
		return false, nil
	}
	for _, existing := range r.s.data.addresses {
		if existing.Content == a.Content {
			return false, nil
		}
	}
	a.CreatedAt = r.s.now()
	r.s.data.addresses[a.ID] = *a
	return true, nil
}

func (r addressRepo) Delete(ctx context.Context, id uuid.UUID) error {
	defer r.s.enter(ctx)()
	if refs := r.s.countReferences(id); refs.Total() > 0 {
		return apperr.ReferentialIntegrityViolation("address %s is still referenced", id)
	}
	delete(r.s.data.addresses, id)
	return nil
}

func (r addressRepo) AddAffiliation(ctx context.Context, owner address.Owner, addressID uuid.UUID) error {
	defer r.s.enter(ctx)()
	if _, ok := r.s.data.addresses[addressID]; !ok {
		return apperr.NotFound("address %s not found", addressID)
	}
	key := affiliationKey{kind: owner.Kind, ownerID: owner.ID, address: addressID}
	if _, ok := r.s.data.affiliations[key]; !ok {
		r.s.data.affiliations[key] = r.s.now()
	}
	return nil
}

func (r addressRepo) RemoveAffiliation(ctx context.Context, owner address.Owner, addressID uuid.UUID) (bool, error) {
	defer r.s.enter(ctx)()
	key := affiliationKey{kind: owner.Kind, ownerID: owner.ID, address: addressID}
	if _, ok := r.s.data.affiliations[key]; !ok {
		return false, nil
	}
	delete(r.s.data.affiliations, key)
	return true, nil
}

func (r addressRepo) CountReferences(ctx context.Context, addressID uuid.UUID) (address.References, error) {
	defer r.s.enter(ctx)()
	return r.s.countReferences(addressID), nil
}

func (s *Store) countReferences(addressID uuid.UUID) address.References {
	var refs address.References
	for key := range s.data.affiliations {
		if key.address == addressID {
			refs.Affiliations++
		}
	}
	for _, o := range s.data.orders {
		if o.BillingAddressID == addressID {
			refs.BillingOrders++
		}
	}
	for _, p := range s.data.positions {
		if p.DeliveryAddressID == addressID {
			refs.DeliveryPositions++
		}
	}
	return refs
}

func (r addressRepo) ListByOwner(ctx context.Context, owner address.Owner) ([]*address.Address, error) {
	defer r.s.enter(ctx)()
	var out []*address.Address
	for key := range r.s.data.affiliations {
		if key.kind != owner.Kind || key.ownerID != owner.ID {
			continue
		}
		a := r.s.data.addresses[key.address]
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r addressRepo) OwnerExists(ctx context.Context, owner address.Owner) (bool, error) {
	defer r.s.enter(ctx)()
	var ok bool
	switch owner.Kind {
	case address.OwnerCustomer:
		_, ok = r.s.data.customers[owner.ID]
	case address.OwnerVendor:
		_, ok = r.s.data.vendors[owner.ID]
	case address.OwnerSupplier:
		_, ok = r.s.data.suppliers[owner.ID]
	}
	return ok, nil
}
