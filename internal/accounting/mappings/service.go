package mappings

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// AccountSource verifies that mapped accounts exist in the organization.
type AccountSource interface {
	Get(ctx context.Context, orgID, accountID uuid.UUID) (accounts.Account, error)
}

type Service struct {
	repo     Repository
	accounts AccountSource
}

func NewService(repo Repository, accountSource AccountSource) *Service {
	return &Service{repo: repo, accounts: accountSource}
}

func (s *Service) Get(ctx context.Context, orgID uuid.UUID, documentType string) (PostingMapping, error) {
	return s.repo.Get(ctx, orgID, documentType)
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID) ([]PostingMapping, error) {
	return s.repo.List(ctx, orgID)
}

// Set creates or replaces the mapping for a document type after checking both
// accounts live in the organization.
func (s *Service) Set(ctx context.Context, orgID uuid.UUID, documentType string, debitAccountID, creditAccountID uuid.UUID) (PostingMapping, error) {
	if debitAccountID == creditAccountID {
		return PostingMapping{}, fmt.Errorf("%w: debit and credit accounts cannot be the same", shared.ErrInvalidEntry)
	}
	if _, err := s.accounts.Get(ctx, orgID, debitAccountID); err != nil {
		return PostingMapping{}, fmt.Errorf("debit account: %w", err)
	}
	if _, err := s.accounts.Get(ctx, orgID, creditAccountID); err != nil {
		return PostingMapping{}, fmt.Errorf("credit account: %w", err)
	}
	return s.repo.Upsert(ctx, PostingMapping{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		DocumentType:    documentType,
		DebitAccountID:  debitAccountID,
		CreditAccountID: creditAccountID,
	})
}

func (s *Service) Delete(ctx context.Context, orgID uuid.UUID, documentType string) error {
	return s.repo.Delete(ctx, orgID, documentType)
}
