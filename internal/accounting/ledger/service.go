package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kitabu-erp/kitabu/internal/shared"
)

// Service enforces the double-entry invariants at write time. Every write
// path runs inside one database transaction so multi-entry postings commit as
// a unit.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Record appends one balanced transaction.
func (s *Service) Record(ctx context.Context, orgID uuid.UUID, req RecordRequest) (Transaction, error) {
	var recorded Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		recorded, err = s.record(ctx, tx, orgID, req)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	return recorded, nil
}

// RecordSet appends a set of transactions atomically; none persist when any
// entry fails validation or insertion. Document posting uses it to guarantee
// all-or-nothing ledger side effects.
func (s *Service) RecordSet(ctx context.Context, orgID uuid.UUID, reqs []RecordRequest) ([]Transaction, error) {
	if len(reqs) == 0 {
		return nil, fmt.Errorf("%w: no entries to record", shared.ErrInvalidEntry)
	}
	var recorded []Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, req := range reqs {
			entry, err := s.record(ctx, tx, orgID, req)
			if err != nil {
				return err
			}
			recorded = append(recorded, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// Reverse deletes every transaction tagged with the document reference.
// Deleting zero rows is not an error, so a repeated reversal is a no-op.
func (s *Service) Reverse(ctx context.Context, orgID, documentID uuid.UUID) (int64, error) {
	var removed int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		removed, err = tx.DeleteByDocument(ctx, orgID, documentID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// Get fetches a single transaction scoped to the organization.
func (s *Service) Get(ctx context.Context, orgID, txID uuid.UUID) (Transaction, error) {
	return s.repo.Get(ctx, orgID, txID)
}

// Query lists transactions ordered by date descending then creation time
// descending, the same tie-break reporting uses.
func (s *Service) Query(ctx context.Context, orgID uuid.UUID, filter Filter) ([]Transaction, shared.Pagination, error) {
	transactions, total, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return transactions, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update mutates a manual entry, re-validating the double-entry rules.
// Entries generated by document posting only change through cancel and
// repost.
func (s *Service) Update(ctx context.Context, orgID, txID uuid.UUID, req UpdateRequest) (Transaction, error) {
	current, err := s.repo.Get(ctx, orgID, txID)
	if err != nil {
		return Transaction{}, err
	}
	if current.DocumentID != nil {
		return Transaction{}, fmt.Errorf("%w: transaction belongs to a posted document", shared.ErrConflict)
	}

	if req.DebitAccountID != nil {
		current.DebitAccountID = *req.DebitAccountID
	}
	if req.CreditAccountID != nil {
		current.CreditAccountID = *req.CreditAccountID
	}
	if req.Amount != nil {
		current.Amount = *req.Amount
	}
	if req.Description != nil {
		current.Description = req.Description
	}
	if req.Date != nil {
		current.Date = *req.Date
	}
	if current.DebitAccountID == current.CreditAccountID {
		return Transaction{}, fmt.Errorf("%w: debit and credit accounts cannot be the same", shared.ErrInvalidEntry)
	}
	if current.Amount.LessThan(MinAmount) {
		return Transaction{}, fmt.Errorf("%w: amount must be at least %s", shared.ErrInvalidAmount, MinAmount)
	}

	var updated Transaction
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if req.DebitAccountID != nil || req.CreditAccountID != nil {
			if err := checkAccounts(ctx, tx, orgID, current.DebitAccountID, current.CreditAccountID); err != nil {
				return err
			}
		}
		var err error
		updated, err = tx.Update(ctx, current)
		return err
	})
	if err != nil {
		return Transaction{}, err
	}
	return updated, nil
}

// Delete removes a manual entry. Document-generated rows are only removed by
// reversal.
func (s *Service) Delete(ctx context.Context, orgID, txID uuid.UUID) error {
	current, err := s.repo.Get(ctx, orgID, txID)
	if err != nil {
		return err
	}
	if current.DocumentID != nil {
		return fmt.Errorf("%w: transaction belongs to a posted document", shared.ErrConflict)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.Delete(ctx, orgID, txID)
	})
}

func (s *Service) record(ctx context.Context, tx TxRepository, orgID uuid.UUID, req RecordRequest) (Transaction, error) {
	if err := req.Validate(); err != nil {
		return Transaction{}, err
	}
	if err := checkAccounts(ctx, tx, orgID, req.DebitAccountID, req.CreditAccountID); err != nil {
		return Transaction{}, err
	}
	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	return tx.Insert(ctx, Transaction{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		DebitAccountID:  req.DebitAccountID,
		CreditAccountID: req.CreditAccountID,
		Amount:          req.Amount,
		Description:     req.Description,
		Date:            date,
		DocumentID:      req.DocumentID,
	})
}

func checkAccounts(ctx context.Context, tx TxRepository, orgID, debitID, creditID uuid.UUID) error {
	debit, err := tx.GetAccount(ctx, orgID, debitID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: debit account", shared.ErrNotFound)
		}
		return err
	}
	credit, err := tx.GetAccount(ctx, orgID, creditID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: credit account", shared.ErrNotFound)
		}
		return err
	}
	if !debit.IsActive {
		return fmt.Errorf("%w: debit account", shared.ErrInactiveAccount)
	}
	if !credit.IsActive {
		return fmt.Errorf("%w: credit account", shared.ErrInactiveAccount)
	}
	return nil
}
