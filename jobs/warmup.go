package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitabu-erp/kitabu/internal/accounting/reports"
)

// OrgSource lists the organizations known to the ledger.
type OrgSource interface {
	ListOrganizations(ctx context.Context) ([]uuid.UUID, error)
}

type orgSource struct {
	db *pgxpool.Pool
}

func NewOrgSource(db *pgxpool.Pool) OrgSource {
	return &orgSource{db: db}
}

func (s *orgSource) ListOrganizations(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT DISTINCT organization_id FROM accounts ORDER BY organization_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// HandleReportsWarmup returns the handler for TaskReportsWarmup. It builds
// the previous month's balance sheet, which lands in the report cache as a
// side effect.
func HandleReportsWarmup(logger *slog.Logger, orgs OrgSource, service *reports.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload WarmupPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return asynq.SkipRetry
			}
		}

		var ids []uuid.UUID
		if payload.OrganizationID != nil {
			ids = []uuid.UUID{*payload.OrganizationID}
		} else {
			var err error
			ids, err = orgs.ListOrganizations(ctx)
			if err != nil {
				return err
			}
		}

		from, to := previousMonth(time.Now().UTC())
		for _, orgID := range ids {
			if _, err := service.BalanceSheet(ctx, orgID, reports.Params{DateFrom: &from, DateTo: &to}); err != nil {
				logger.Warn("report warmup failed",
					slog.String("organization_id", orgID.String()),
					slog.Any("error", err))
				continue
			}
		}
		logger.Info("report warmup finished", slog.Int("organizations", len(ids)))
		return nil
	}
}

// previousMonth returns the first and last day of the month before t.
func previousMonth(t time.Time) (time.Time, time.Time) {
	firstOfCurrent := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := firstOfCurrent.AddDate(0, 0, -1)
	first := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first, last
}
