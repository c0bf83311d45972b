package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/coral-backend/internal/domain"
	"github.com/heartmarshall/coral-backend/internal/service/identity"
)

type identityService interface {
	CreateIdentity(ctx context.Context, in identity.CreateIdentityInput) (*domain.Identity, error)
	GetIdentity(ctx context.Context, id uuid.UUID) (*domain.Identity, error)
	UpdateIdentity(ctx context.Context, in identity.UpdateIdentityInput) (*domain.Identity, error)
	DeleteIdentity(ctx context.Context, id uuid.UUID) error
	LinkAccount(ctx context.Context, in identity.LinkAccountInput) (*domain.Account, error)
	ListAccounts(ctx context.Context, identityID uuid.UUID) ([]domain.Account, error)
	UpdateAccount(ctx context.Context, in identity.UpdateAccountInput) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type summaryLister interface {
	ListIdentitySummaries(ctx context.Context) ([]domain.IdentitySummary, error)
}

// IdentityHandler serves identity and account endpoints.
type IdentityHandler struct {
	svc       identityService
	summaries summaryLister
	log       *slog.Logger
}

// NewIdentityHandler creates an IdentityHandler.
func NewIdentityHandler(svc identityService, summaries summaryLister, logger *slog.Logger) *IdentityHandler {
	return &IdentityHandler{svc: svc, summaries: summaries, log: logger.With("handler", "identity")}
}

type identityRequest struct {
	Name  *string `json:"name"`
	Notes *string `json:"notes"`
}

type linkAccountRequest struct {
	Platform string          `json:"platform"`
	Username string          `json:"username"`
	Config   json.RawMessage `json:"config"`
}

type updateAccountRequest struct {
	Enabled *bool           `json:"enabled"`
	Config  json.RawMessage `json:"config"`
}

// List handles GET /identities. Each identity carries its account count and
// latest event.
func (h *IdentityHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.summaries.ListIdentitySummaries(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"identities": toIdentitySummaries(out)})
}

// Create handles POST /identities.
func (h *IdentityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req identityRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	in := identity.CreateIdentityInput{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Notes != nil {
		in.Notes = *req.Notes
	}

	created, err := h.svc.CreateIdentity(r.Context(), in)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIdentityResponse(created))
}

// Get handles GET /identities/{id}. The response includes linked accounts.
func (h *IdentityHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	ident, err := h.svc.GetIdentity(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	accounts, err := h.svc.ListAccounts(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		identityResponse
		Accounts []accountResponse `json:"accounts"`
	}{toIdentityResponse(ident), toAccountResponses(accounts)})
}

// Update handles PATCH /identities/{id}.
func (h *IdentityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req identityRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	updated, err := h.svc.UpdateIdentity(r.Context(), identity.UpdateIdentityInput{
		ID:    id,
		Name:  req.Name,
		Notes: req.Notes,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(updated))
}

// Delete handles DELETE /identities/{id}. Linked accounts are removed with it.
func (h *IdentityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeleteIdentity(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListAccounts handles GET /identities/{id}/accounts.
func (h *IdentityHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	accounts, err := h.svc.ListAccounts(r.Context(), id)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": toAccountResponses(accounts)})
}

// LinkAccount handles POST /identities/{id}/accounts.
func (h *IdentityHandler) LinkAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req linkAccountRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	acc, err := h.svc.LinkAccount(r.Context(), identity.LinkAccountInput{
		IdentityID: id,
		Platform:   domain.Platform(req.Platform),
		Username:   req.Username,
		Config:     req.Config,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAccountResponse(acc))
}

// UpdateAccount handles PATCH /accounts/{id}.
func (h *IdentityHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	var req updateAccountRequest
	if err := decodeJSON(w, r, &req, 0); err != nil {
		handleError(h.log, w, r, err)
		return
	}

	acc, err := h.svc.UpdateAccount(r.Context(), identity.UpdateAccountInput{
		ID:      id,
		Enabled: req.Enabled,
		Config:  req.Config,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAccountResponse(acc))
}

// DeleteAccount handles DELETE /accounts/{id}.
func (h *IdentityHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), id); err != nil {
		handleError(h.log, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "must be a valid UUID")
	}
	return id, nil
}
