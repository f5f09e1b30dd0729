package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// IntegrityFinding is one class of violated ledger invariant with the number
// of offending rows.
type IntegrityFinding struct {
	Check string
	Count int64
}

// OrgTotals carries an organization's aggregate debit and credit turnover.
// The two sums are equal by construction; a mismatch means corrupted rows.
type OrgTotals struct {
	OrganizationID uuid.UUID
	Debit          decimal.Decimal
	Credit         decimal.Decimal
}

// IntegrityStore reads ledger health data.
type IntegrityStore interface {
	ScanViolations(ctx context.Context) ([]IntegrityFinding, error)
	DebitCreditTotals(ctx context.Context) ([]OrgTotals, error)
}

// FindingsObserver receives the number of violations found per run.
type FindingsObserver interface {
	AddIntegrityFindings(n int)
}

type integrityStore struct {
	db *pgxpool.Pool
}

func NewIntegrityStore(db *pgxpool.Pool) IntegrityStore {
	return &integrityStore{db: db}
}

func (s *integrityStore) ScanViolations(ctx context.Context) ([]IntegrityFinding, error) {
	checks := []struct {
		name  string
		query string
	}{
		{"non_positive_amount", `SELECT COUNT(*) FROM transactions WHERE amount <= 0`},
		{"debit_equals_credit", `SELECT COUNT(*) FROM transactions WHERE debit_account_id = credit_account_id`},
		{"cross_org_account", `SELECT COUNT(*) FROM transactions t
JOIN accounts d ON d.id = t.debit_account_id
JOIN accounts c ON c.id = t.credit_account_id
WHERE d.organization_id <> t.organization_id OR c.organization_id <> t.organization_id`},
	}
	findings := make([]IntegrityFinding, 0, len(checks))
	for _, check := range checks {
		var count int64
		if err := s.db.QueryRow(ctx, check.query).Scan(&count); err != nil {
			return nil, err
		}
		findings = append(findings, IntegrityFinding{Check: check.name, Count: count})
	}
	return findings, nil
}

func (s *integrityStore) DebitCreditTotals(ctx context.Context) ([]OrgTotals, error) {
	rows, err := s.db.Query(ctx, `SELECT organization_id, COALESCE(SUM(amount), 0), COALESCE(SUM(amount), 0)
FROM transactions GROUP BY organization_id ORDER BY organization_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []OrgTotals
	for rows.Next() {
		var t OrgTotals
		if err := rows.Scan(&t.OrganizationID, &t.Debit, &t.Credit); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// HandleLedgerIntegrity returns the handler for TaskLedgerIntegrity. It logs
// per-organization turnover and counts invariant violations into the metrics
// observer.
func HandleLedgerIntegrity(logger *slog.Logger, store IntegrityStore, observer FindingsObserver) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		findings, err := store.ScanViolations(ctx)
		if err != nil {
			return err
		}
		var violations int
		for _, finding := range findings {
			if finding.Count == 0 {
				continue
			}
			violations += int(finding.Count)
			logger.Warn("ledger integrity violation",
				slog.String("check", finding.Check),
				slog.Int64("count", finding.Count))
		}
		if observer != nil {
			observer.AddIntegrityFindings(violations)
		}

		totals, err := store.DebitCreditTotals(ctx)
		if err != nil {
			return err
		}
		for _, total := range totals {
			logger.Info("ledger turnover",
				slog.String("organization_id", total.OrganizationID.String()),
				slog.String("debit", total.Debit.String()),
				slog.String("credit", total.Credit.String()))
		}
		logger.Info("ledger integrity scan finished", slog.Int("violations", violations))
		return nil
	}
}
