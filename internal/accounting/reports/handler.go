package reports

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kitabu-erp/kitabu/internal/platform/httpx"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// Handler exposes report endpoints, each with a JSON and a CSV variant.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes on an org-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/balance-sheet", h.BalanceSheet)
	r.Get("/reports/balance-sheet.csv", h.BalanceSheetCSV)
	r.Get("/reports/profit-loss", h.ProfitAndLoss)
	r.Get("/reports/profit-loss.csv", h.ProfitAndLossCSV)
	r.Get("/reports/cash-flow", h.CashFlow)
	r.Get("/reports/cash-flow.csv", h.CashFlowCSV)
}

func (h *Handler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	orgID, params, ok := h.scope(w, r)
	if !ok {
		return
	}
	report, err := h.service.BalanceSheet(r.Context(), orgID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) BalanceSheetCSV(w http.ResponseWriter, r *http.Request) {
	orgID, params, ok := h.scope(w, r)
	if !ok {
		return
	}
	report, err := h.service.BalanceSheet(r.Context(), orgID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.streamCSV(w, "balance-sheet.csv", func() error { return WriteBalanceSheetCSV(w, report) })
}

func (h *Handler) ProfitAndLoss(w http.ResponseWriter, r *http.Request) {
	orgID, params, ok := h.scope(w, r)
	if !ok {
		return
	}
	report, err := h.service.ProfitAndLoss(r.Context(), orgID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) ProfitAndLossCSV(w http.ResponseWriter, r *http.Request) {
	orgID, params, ok := h.scope(w, r)
	if !ok {
		return
	}
	report, err := h.service.ProfitAndLoss(r.Context(), orgID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.streamCSV(w, "profit-loss.csv", func() error { return WriteProfitAndLossCSV(w, report) })
}

func (h *Handler) CashFlow(w http.ResponseWriter, r *http.Request) {
	orgID, params, ok := h.scope(w, r)
	if !ok {
		return
	}
	report, err := h.service.CashFlow(r.Context(), orgID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, report)
}

func (h *Handler) CashFlowCSV(w http.ResponseWriter, r *http.Request) {
	orgID, params, ok := h.scope(w, r)
	if !ok {
		return
	}
	report, err := h.service.CashFlow(r.Context(), orgID, params)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	h.streamCSV(w, "cash-flow.csv", func() error { return WriteCashFlowCSV(w, report) })
}

func (h *Handler) streamCSV(w http.ResponseWriter, filename string, write func() error) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if err := write(); err != nil {
		// Headers are already on the wire; logging is all that is left.
		h.logger.Error("csv export failed", "error", err)
	}
}

func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (orgID uuid.UUID, params Params, ok bool) {
	org, found := shared.OrgFromContext(r.Context())
	if !found {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "missing organization scope")
		return org, params, false
	}
	q := r.URL.Query()
	if raw := q.Get("date_from"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date_from")
			return org, params, false
		}
		params.DateFrom = &t
	}
	if raw := q.Get("date_to"); raw != "" {
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid date_to")
			return org, params, false
		}
		params.DateTo = &t
	}
	params.IncludeInactive = q.Get("include_inactive") == "true"
	return org, params, true
}
