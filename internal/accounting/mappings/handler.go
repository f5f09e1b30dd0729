package mappings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kitabu-erp/kitabu/internal/platform/httpx"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// Handler exposes posting mapping configuration endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers mapping routes on an org-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/posting-mappings", h.List)
	r.Put("/posting-mappings/{documentType}", h.Set)
	r.Delete("/posting-mappings/{documentType}", h.Delete)
}

type setMappingRequest struct {
	DebitAccountID  uuid.UUID `json:"debit_account_id" validate:"required"`
	CreditAccountID uuid.UUID `json:"credit_account_id" validate:"required"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID, ok := shared.OrgFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing organization scope")
		return
	}
	result, err := h.service.List(r.Context(), orgID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	orgID, ok := shared.OrgFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing organization scope")
		return
	}
	var req setMappingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	mapping, err := h.service.Set(r.Context(), orgID, chi.URLParam(r, "documentType"), req.DebitAccountID, req.CreditAccountID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, mapping)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := shared.OrgFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing organization scope")
		return
	}
	if err := h.service.Delete(r.Context(), orgID, chi.URLParam(r, "documentType")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
