package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/logging"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/metrics"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/store"
)

// maxResolveAttempts bounds the insert/refetch loop when concurrent callers
// race on the same address content.
const maxResolveAttempts = 3

var tracer = otel.Tracer("github.com/georgemunganga/marketplace-backend/internal/modules/address")

// Registry is the single authority that creates and deletes Address rows.
//
// The gated operations (ResolveOrCreate, Release, Replace, ListByOwner)
// verify the caller's session and run in their own transaction. Attach,
// Detach, DetachAll, Affiliated and Pin are for other services that have
// already authorized the caller; they join the transaction on ctx.
type Registry interface {
	ResolveOrCreate(ctx context.Context, p auth.Principal, owner Owner, in Input) (*Address, error)
	Release(ctx context.Context, p auth.Principal, owner Owner, addressID uuid.UUID) error
	Replace(ctx context.Context, p auth.Principal, owner Owner, oldID uuid.UUID, in Input) (*Address, error)
	ListByOwner(ctx context.Context, p auth.Principal, owner Owner) ([]*Address, error)

	Attach(ctx context.Context, owner Owner, in Input) (*Address, error)
	Detach(ctx context.Context, owner Owner, addressID uuid.UUID) error
	DetachAll(ctx context.Context, owner Owner) error
	Affiliated(ctx context.Context, owner Owner) ([]*Address, error)

	// Pin locks an existing address until the transaction on ctx ends, so a
	// concurrent Release cannot collect it.
	Pin(ctx context.Context, id uuid.UUID) (*Address, error)
}

type registry struct {
	repo    Repository
	tx      store.Transactor
	authz   auth.Authorizer
	metrics *metrics.Recorder
}

// NewRegistry creates the address registry.
func NewRegistry(repo Repository, tx store.Transactor, authz auth.Authorizer, rec *metrics.Recorder) Registry {
	return &registry{repo: repo, tx: tx, authz: authz, metrics: rec}
}

func (s *registry) authorize(ctx context.Context, p auth.Principal, owner Owner) error {
	switch owner.Kind {
	case OwnerCustomer:
		return auth.RequireParty(ctx, s.authz, p, auth.RoleCustomer, owner.ID)
	case OwnerVendor:
		return auth.RequireParty(ctx, s.authz, p, auth.RoleVendor, owner.ID)
	case OwnerSupplier:
		return auth.RequireRole(ctx, s.authz, p, auth.RoleAdmin)
	default:
		return fmt.Errorf("unknown owner kind %q", owner.Kind)
	}
}

func (s *registry) ResolveOrCreate(ctx context.Context, p auth.Principal, owner Owner, in Input) (_ *Address, err error) {
	ctx, span := tracer.Start(ctx, "address.ResolveOrCreate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("owner.kind", string(owner.Kind)),
		attribute.String("owner.id", owner.ID.String()),
	)

	if err := s.authorize(ctx, p, owner); err != nil {
		return nil, err
	}
	var a *Address
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		a, err = s.Attach(ctx, owner, in)
		return err
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("address.id", a.ID.String()))
	return a, nil
}

func (s *registry) Release(ctx context.Context, p auth.Principal, owner Owner, addressID uuid.UUID) error {
	if err := s.authorize(ctx, p, owner); err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.Detach(ctx, owner, addressID)
	})
}

func (s *registry) Replace(ctx context.Context, p auth.Principal, owner Owner, oldID uuid.UUID, in Input) (*Address, error) {
	if err := s.authorize(ctx, p, owner); err != nil {
		return nil, err
	}
	var a *Address
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.unlink(ctx, owner, oldID); err != nil {
			return err
		}
		var err error
		if a, err = s.Attach(ctx, owner, in); err != nil {
			return err
		}
		if a.ID == oldID {
			return nil
		}
		return s.collect(ctx, oldID)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *registry) ListByOwner(ctx context.Context, p auth.Principal, owner Owner) ([]*Address, error) {
	if err := s.authorize(ctx, p, owner); err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, owner)
}

func (s *registry) Attach(ctx context.Context, owner Owner, in Input) (*Address, error) {
	if !owner.Kind.Valid() {
		return nil, fmt.Errorf("unknown owner kind %q", owner.Kind)
	}
	exists, err := s.repo.OwnerExists(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperr.NotFound("%s %s not found", strings.ToLower(string(owner.Kind)), owner.ID)
	}
	content := in.Content.Canonical()

	if in.ID != uuid.Nil {
		existing, err := s.repo.LockByID(ctx, in.ID)
		switch {
		case err == nil:
			if existing.Content != content {
				return nil, apperr.Conflict("address %s already holds different data", in.ID)
			}
			return existing, s.affiliate(ctx, owner, existing, "merged")
		case apperr.KindOf(err) != apperr.KindNotFound:
			return nil, err
		}
	}

	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		existing, err := s.repo.LockByContent(ctx, content)
		if err == nil {
			return existing, s.affiliate(ctx, owner, existing, "merged")
		}
		if apperr.KindOf(err) != apperr.KindNotFound {
			return nil, err
		}

		a := &Address{ID: in.ID, Content: content}
		if a.ID == uuid.Nil {
			a.ID = uuid.New()
		}
		created, err := s.repo.InsertIfAbsent(ctx, a)
		if err != nil {
			return nil, err
		}
		if created {
			return a, s.affiliate(ctx, owner, a, "created")
		}
		// A concurrent caller inserted the same content first; fetch the winner.
	}
	return nil, apperr.Conflict("address could not be resolved after %d attempts", maxResolveAttempts)
}

func (s *registry) affiliate(ctx context.Context, owner Owner, a *Address, event string) error {
	if err := s.repo.AddAffiliation(ctx, owner, a.ID); err != nil {
		return err
	}
	s.metrics.AddressEvent(event)
	logging.FromContext(ctx).Debug("address affiliated",
		zap.String("event", event),
		zap.Stringer("address_id", a.ID),
		zap.String("owner_kind", string(owner.Kind)),
		zap.Stringer("owner_id", owner.ID),
	)
	return nil
}

func (s *registry) Detach(ctx context.Context, owner Owner, addressID uuid.UUID) error {
	if err := s.unlink(ctx, owner, addressID); err != nil {
		return err
	}
	return s.collect(ctx, addressID)
}

// unlink locks the address row, serializing against other resolves and
// releases of the same address, then removes owner's affiliation.
func (s *registry) unlink(ctx context.Context, owner Owner, addressID uuid.UUID) error {
	if _, err := s.repo.LockByID(ctx, addressID); err != nil {
		return err
	}
	removed, err := s.repo.RemoveAffiliation(ctx, owner, addressID)
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("address %s is not affiliated with %s %s", addressID, owner.Kind, owner.ID)
	}
	return nil
}

// collect deletes the address once nothing references it. The caller must
// hold the row lock taken by unlink.
func (s *registry) collect(ctx context.Context, addressID uuid.UUID) error {
	refs, err := s.repo.CountReferences(ctx, addressID)
	if err != nil {
		return err
	}
	if refs.Total() > 0 {
		return nil
	}
	if err := s.repo.Delete(ctx, addressID); err != nil {
		return err
	}
	s.metrics.AddressEvent("collected")
	logging.FromContext(ctx).Info("address collected", zap.Stringer("address_id", addressID))
	return nil
}

func (s *registry) DetachAll(ctx context.Context, owner Owner) error {
	addresses, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return err
	}
	for _, a := range addresses {
		if err := s.Detach(ctx, owner, a.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *registry) Affiliated(ctx context.Context, owner Owner) ([]*Address, error) {
	return s.repo.ListByOwner(ctx, owner)
}

func (s *registry) Pin(ctx context.Context, id uuid.UUID) (*Address, error) {
	a, err := s.repo.LockByID(ctx, id)
	if apperr.KindOf(err) == apperr.KindNotFound {
		return nil, apperr.NotFound("no address under the given ID %s exists", id)
	}
	return a, err
}
