package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kitabu-erp/kitabu/internal/shared"
)

// Service implements chart of accounts business rules: code uniqueness,
// hierarchy integrity, and the guards that keep the ledger consistent.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds an account to the organization's chart.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req CreateAccountRequest) (Account, error) {
	if !req.Type.Valid() {
		return Account{}, fmt.Errorf("%w: unknown account type %q", shared.ErrInvalidEntry, req.Type)
	}
	if req.ParentID != nil {
		if err := s.checkParent(ctx, orgID, *req.ParentID); err != nil {
			return Account{}, err
		}
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}
	account := Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Code:           req.Code,
		Name:           req.Name,
		Type:           req.Type,
		ParentID:       req.ParentID,
		IsActive:       isActive,
	}
	return s.repo.Create(ctx, account)
}

// Get fetches one account scoped to the organization.
func (s *Service) Get(ctx context.Context, orgID, accountID uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, orgID, accountID)
}

// List returns the organization's accounts ordered by code ascending.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]Account, error) {
	return s.repo.List(ctx, orgID, includeInactive)
}

// Update applies a partial mutation: rename, recode, reparent, type change,
// activate or deactivate. Type changes are blocked once the ledger references
// the account on either side.
func (s *Service) Update(ctx context.Context, orgID, accountID uuid.UUID, req UpdateAccountRequest) (Account, error) {
	account, err := s.repo.Get(ctx, orgID, accountID)
	if err != nil {
		return Account{}, err
	}

	if req.Code != nil {
		account.Code = *req.Code
	}
	if req.Name != nil {
		account.Name = *req.Name
	}
	if req.Type != nil && *req.Type != account.Type {
		count, err := s.repo.TransactionCount(ctx, orgID, accountID)
		if err != nil {
			return Account{}, err
		}
		if count > 0 {
			return Account{}, fmt.Errorf("%w: account has associated transactions", shared.ErrConflict)
		}
		account.Type = *req.Type
	}
	switch {
	case req.DetachParent:
		account.ParentID = nil
	case req.ParentID != nil:
		if *req.ParentID == accountID {
			return Account{}, fmt.Errorf("%w: account cannot be its own parent", shared.ErrInvalidRelationship)
		}
		if err := s.checkParent(ctx, orgID, *req.ParentID); err != nil {
			return Account{}, err
		}
		if err := s.checkCycle(ctx, accountID, *req.ParentID); err != nil {
			return Account{}, err
		}
		account.ParentID = req.ParentID
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	return s.repo.Update(ctx, account)
}

// Delete removes an account; only leaf accounts with no ledger references can
// be deleted.
func (s *Service) Delete(ctx context.Context, orgID, accountID uuid.UUID) error {
	if _, err := s.repo.Get(ctx, orgID, accountID); err != nil {
		return err
	}
	hasChildren, err := s.repo.HasChildren(ctx, orgID, accountID)
	if err != nil {
		return err
	}
	if hasChildren {
		return fmt.Errorf("%w: cannot delete account with child accounts", shared.ErrConflict)
	}
	count, err := s.repo.TransactionCount(ctx, orgID, accountID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: cannot delete account with transactions", shared.ErrConflict)
	}
	return s.repo.Delete(ctx, orgID, accountID)
}

func (s *Service) checkParent(ctx context.Context, orgID, parentID uuid.UUID) error {
	parent, err := s.repo.Find(ctx, parentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: parent account", shared.ErrNotFound)
		}
		return err
	}
	if parent.OrganizationID != orgID {
		return fmt.Errorf("%w: parent account belongs to different organization", shared.ErrInvalidRelationship)
	}
	return nil
}

// checkCycle walks the ancestor chain from the proposed parent. Reaching the
// account itself would close a loop in the hierarchy.
func (s *Service) checkCycle(ctx context.Context, accountID, parentID uuid.UUID) error {
	current := parentID
	for {
		ancestor, err := s.repo.Find(ctx, current)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil
			}
			return err
		}
		if ancestor.ID == accountID {
			return fmt.Errorf("%w: reparenting would create a cycle", shared.ErrInvalidRelationship)
		}
		if ancestor.ParentID == nil {
			return nil
		}
		current = *ancestor.ParentID
	}
}
