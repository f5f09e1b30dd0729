package reports

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// AccountSource provides the chart of accounts for reporting.
type AccountSource interface {
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]accounts.Account, error)
}

// TransactionSource provides the ledger history for reporting.
type TransactionSource interface {
	ListUntil(ctx context.Context, orgID uuid.UUID, until *time.Time) ([]ledger.Transaction, error)
}

// Params bound a report request.
type Params struct {
	DateFrom        *time.Time
	DateTo          *time.Time
	IncludeInactive bool
}

// Service builds reports from the ledger. Reports are read-only; the service
// never writes through its sources. Balance sheets are cached in Redis with a
// short TTL and concurrent identical builds are collapsed through
// singleflight.
type Service struct {
	logger       *slog.Logger
	accounts     AccountSource
	transactions TransactionSource
	cache        *redis.Client
	cacheTTL     time.Duration
	group        singleflight.Group
}

func NewService(logger *slog.Logger, accountSrc AccountSource, txSrc TransactionSource) *Service {
	return &Service{logger: logger, accounts: accountSrc, transactions: txSrc}
}

// WithCache enables balance sheet caching. A nil client leaves caching off.
func (s *Service) WithCache(client *redis.Client, ttl time.Duration) *Service {
	s.cache = client
	s.cacheTTL = ttl
	return s
}

// load fetches accounts and transactions concurrently.
func (s *Service) load(ctx context.Context, orgID uuid.UUID, params Params) ([]accounts.Account, []ledger.Transaction, error) {
	var (
		accs []accounts.Account
		txs  []ledger.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accs, err = s.accounts.List(gctx, orgID, params.IncludeInactive)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.transactions.ListUntil(gctx, orgID, params.DateTo)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return accs, txs, nil
}

// BalanceSheet builds the balance sheet for the period, serving from cache
// when a fresh copy exists.
func (s *Service) BalanceSheet(ctx context.Context, orgID uuid.UUID, params Params) (BalanceSheet, error) {
	key := balanceSheetKey(orgID, params)
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
			var cached BalanceSheet
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		accs, txs, err := s.load(ctx, orgID, params)
		if err != nil {
			return nil, err
		}
		report := BuildBalanceSheet(accs, txs, params.DateFrom, params.DateTo)
		if s.cache != nil {
			if raw, err := json.Marshal(report); err == nil {
				if err := s.cache.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
					s.logger.Warn("balance sheet cache write failed", "error", err)
				}
			}
		}
		return report, nil
	})
	if err != nil {
		return BalanceSheet{}, err
	}
	return result.(BalanceSheet), nil
}

// ProfitAndLoss builds the profit and loss statement. Both period bounds are
// required.
func (s *Service) ProfitAndLoss(ctx context.Context, orgID uuid.UUID, params Params) (ProfitAndLoss, error) {
	if params.DateFrom == nil || params.DateTo == nil {
		return ProfitAndLoss{}, fmt.Errorf("%w: date_from and date_to are required", shared.ErrInvalidEntry)
	}
	accs, txs, err := s.load(ctx, orgID, params)
	if err != nil {
		return ProfitAndLoss{}, err
	}
	return BuildProfitAndLoss(accs, txs, *params.DateFrom, *params.DateTo), nil
}

// CashFlow builds the cash flow statement. Both period bounds are required.
func (s *Service) CashFlow(ctx context.Context, orgID uuid.UUID, params Params) (CashFlow, error) {
	if params.DateFrom == nil || params.DateTo == nil {
		return CashFlow{}, fmt.Errorf("%w: date_from and date_to are required", shared.ErrInvalidEntry)
	}
	accs, txs, err := s.load(ctx, orgID, params)
	if err != nil {
		return CashFlow{}, err
	}
	return BuildCashFlow(accs, txs, *params.DateFrom, *params.DateTo), nil
}

func balanceSheetKey(orgID uuid.UUID, params Params) string {
	from, to := "open", "open"
	if params.DateFrom != nil {
		from = params.DateFrom.Format(time.DateOnly)
	}
	if params.DateTo != nil {
		to = params.DateTo.Format(time.DateOnly)
	}
	return fmt.Sprintf("reports:balance-sheet:%s:%s:%s:%t", orgID, from, to, params.IncludeInactive)
}
