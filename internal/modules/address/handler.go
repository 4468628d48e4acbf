package address

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

// Handler exposes the address registry over HTTP.
type Handler struct{ registry Registry }

func NewHandler(registry Registry) *Handler { return &Handler{registry: registry} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/addresses/{kind}/{party_id}", func(r chi.Router) {
		r.Get("/", h.list)                   // GET    /api/v1/addresses/customers/{party_id}
		r.Post("/", h.resolve)               // POST   /api/v1/addresses/customers/{party_id}
		r.Put("/{address_id}", h.replace)    // PUT    /api/v1/addresses/customers/{party_id}/{address_id}
		r.Delete("/{address_id}", h.release) // DELETE /api/v1/addresses/customers/{party_id}/{address_id}
	})
}

var ownerKinds = map[string]OwnerKind{
	"customers": OwnerCustomer,
	"vendors":   OwnerVendor,
	"suppliers": OwnerSupplier,
}

func ownerFrom(r *http.Request) (Owner, error) {
	kind, ok := ownerKinds[chi.URLParam(r, "kind")]
	if !ok {
		return Owner{}, fmt.Errorf("unknown party kind %q", chi.URLParam(r, "kind"))
	}
	id, err := uuid.Parse(chi.URLParam(r, "party_id"))
	if err != nil {
		return Owner{}, fmt.Errorf("invalid party_id: %w", err)
	}
	return Owner{Kind: kind, ID: id}, nil
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	addresses, err := h.registry.ListByOwner(r.Context(), auth.PrincipalFrom(r.Context()), owner)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, addresses)
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	a, err := h.registry.ResolveOrCreate(r.Context(), auth.PrincipalFrom(r.Context()), owner, in)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, a)
}

func (h *Handler) replace(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	oldID, err := uuid.Parse(chi.URLParam(r, "address_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid address_id"})
		return
	}
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	a, err := h.registry.Replace(r.Context(), auth.PrincipalFrom(r.Context()), owner, oldID, in)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, a)
}

func (h *Handler) release(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerFrom(r)
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "address_id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid address_id"})
		return
	}
	if err := h.registry.Release(r.Context(), auth.PrincipalFrom(r.Context()), owner, id); err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
