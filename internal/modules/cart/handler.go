package cart

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/georgemunganga/marketplace-backend/internal/modules/auth"
	"github.com/georgemunganga/marketplace-backend/internal/pkg/apperr"
)

// Handler exposes cart HTTP endpoints.
type Handler struct{ service Service }

func NewHandler(service Service) *Handler { return &Handler{service: service} }

func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/carts", func(r chi.Router) {
		r.Post("/", h.openCart)                    // POST /api/v1/carts {"customer_id": ...}
		r.Get("/{id}", h.getCart)                  // GET  /api/v1/carts/{id}
		r.Post("/{id}/items", h.addItem)           // POST /api/v1/carts/{id}/items
		r.Post("/{id}/items/remove", h.removeItem) // POST /api/v1/carts/{id}/items/remove
	})
}

func (h *Handler) openCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CustomerID uuid.UUID `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	c, err := h.service.OpenCart(r.Context(), auth.PrincipalFrom(r.Context()), req.CustomerID)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	c, err := h.service.GetCart(r.Context(), auth.PrincipalFrom(r.Context()), id)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, c)
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.AddItem)
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, h.service.RemoveItem)
}

type lineMutation func(ctx context.Context, p auth.Principal, cartID uuid.UUID, req ItemRequest) (*Line, error)

func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op lineMutation) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}
	var req ItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	line, err := op(r.Context(), auth.PrincipalFrom(r.Context()), id, req)
	if err != nil {
		respond(w, apperr.HTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	respond(w, http.StatusOK, line)
}

func respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
