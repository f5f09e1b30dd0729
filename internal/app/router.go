package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
	"github.com/kitabu-erp/kitabu/internal/accounting/mappings"
	"github.com/kitabu-erp/kitabu/internal/accounting/reports"
	"github.com/kitabu-erp/kitabu/internal/documents"
	"github.com/kitabu-erp/kitabu/internal/observability"
	"github.com/kitabu-erp/kitabu/internal/platform/httpx"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AccountsHandler  *accounts.Handler
	LedgerHandler    *ledger.Handler
	MappingsHandler  *mappings.Handler
	DocumentsHandler *documents.Handler
	ReportsHandler   *reports.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi router. All business routes are scoped under
// /orgs/{orgID}; authentication happens upstream, so the resolved scope is
// trusted here.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/orgs/{orgID}", func(r chi.Router) {
		r.Use(orgScope)
		params.AccountsHandler.MountRoutes(r)
		params.LedgerHandler.MountRoutes(r)
		params.MappingsHandler.MountRoutes(r)
		params.DocumentsHandler.MountRoutes(r)
		params.ReportsHandler.MountRoutes(r)
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

// orgScope resolves the organization id from the URL into the request
// context.
func orgScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID, err := uuid.Parse(chi.URLParam(r, "orgID"))
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid organization id")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithOrg(r.Context(), orgID)))
	})
}
