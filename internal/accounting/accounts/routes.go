package accounts

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers chart of accounts routes on an org-scoped router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.List)
	r.Post("/accounts", h.Create)
	r.Get("/accounts/{accountID}", h.Show)
	r.Patch("/accounts/{accountID}", h.Update)
	r.Delete("/accounts/{accountID}", h.Delete)
}

func pathValue(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}
