package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// PostingObserver receives the outcome of every posting attempt. The metrics
// registry satisfies it; tests plug in a recorder.
type PostingObserver interface {
	ObservePosting(docType string, outcome string)
}

type nopObserver struct{}

func (nopObserver) ObservePosting(string, string) {}

// Service drives the document lifecycle: DRAFT documents are editable,
// posting turns them into ledger transactions atomically, cancellation
// reverses those transactions. POSTED and CANCELLED documents never mutate.
type Service struct {
	repo     Repository
	observer PostingObserver
	now      func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, observer: nopObserver{}, now: time.Now}
}

// WithObserver attaches a posting outcome observer.
func (s *Service) WithObserver(obs PostingObserver) *Service {
	if obs != nil {
		s.observer = obs
	}
	return s
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create stores a new document in DRAFT. The document number must be unique
// per organization and type.
func (s *Service) Create(ctx context.Context, orgID uuid.UUID, req CreateDocumentRequest) (Document, error) {
	if !req.Type.Valid() {
		return Document{}, fmt.Errorf("%w: unknown document type %q", shared.ErrInvalidEntry, req.Type)
	}
	docID := uuid.New()
	lines := linesFromRequests(docID, req.Lines)
	total, err := deriveTotal(req.Type, req.Amount, lines)
	if err != nil {
		return Document{}, err
	}
	date := req.Date
	if date.IsZero() {
		date = s.now()
	}
	return s.repo.Create(ctx, Document{
		ID:                docID,
		OrganizationID:    orgID,
		Type:              req.Type,
		Number:            req.Number,
		Date:              date,
		Status:            StatusDraft,
		CounterpartyID:    req.CounterpartyID,
		WarehouseID:       req.WarehouseID,
		TargetWarehouseID: req.TargetWarehouseID,
		ContractID:        req.ContractID,
		EmployeeID:        req.EmployeeID,
		CostItemID:        req.CostItemID,
		Description:       req.Description,
		TotalAmount:       total,
		Lines:             lines,
	})
}

// Get fetches a document with its lines.
func (s *Service) Get(ctx context.Context, orgID, docID uuid.UUID) (Document, error) {
	return s.repo.Get(ctx, orgID, docID)
}

// List returns documents matching the filter, newest first.
func (s *Service) List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]Document, shared.Pagination, error) {
	docs, total, err := s.repo.List(ctx, orgID, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return docs, shared.NewPagination(filter.Page, filter.PerPage, total), nil
}

// Update edits a DRAFT document. A non-nil Lines slice replaces the whole
// line set and the total is re-derived.
func (s *Service) Update(ctx context.Context, orgID, docID uuid.UUID, req UpdateDocumentRequest) (Document, error) {
	current, err := s.repo.Get(ctx, orgID, docID)
	if err != nil {
		return Document{}, err
	}
	switch current.Status {
	case StatusPosted:
		return Document{}, fmt.Errorf("%w: cannot update posted document, cancel it first", shared.ErrInvalidState)
	case StatusCancelled:
		return Document{}, fmt.Errorf("%w: cannot update cancelled document", shared.ErrInvalidState)
	}

	if req.Number != nil {
		current.Number = *req.Number
	}
	if req.Date != nil {
		current.Date = *req.Date
	}
	if req.CounterpartyID != nil {
		current.CounterpartyID = req.CounterpartyID
	}
	if req.WarehouseID != nil {
		current.WarehouseID = req.WarehouseID
	}
	if req.TargetWarehouseID != nil {
		current.TargetWarehouseID = req.TargetWarehouseID
	}
	if req.ContractID != nil {
		current.ContractID = req.ContractID
	}
	if req.EmployeeID != nil {
		current.EmployeeID = req.EmployeeID
	}
	if req.CostItemID != nil {
		current.CostItemID = req.CostItemID
	}
	if req.Description != nil {
		current.Description = req.Description
	}
	if req.Lines != nil {
		current.Lines = linesFromRequests(current.ID, *req.Lines)
	}

	amount := req.Amount
	if amount == nil && !current.Type.HasLines() {
		amount = current.TotalAmount
	}
	total, err := deriveTotal(current.Type, amount, current.Lines)
	if err != nil {
		return Document{}, err
	}
	current.TotalAmount = total

	return s.repo.Update(ctx, current)
}

// Post transitions DRAFT to POSTED, writing the document's ledger entries in
// the same transaction that flips the status. Nothing persists when any entry
// fails validation or insertion.
func (s *Service) Post(ctx context.Context, orgID, docID uuid.UUID) (Document, error) {
	var posted Document
	var docType DocumentType
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetForUpdate(ctx, orgID, docID)
		if err != nil {
			return err
		}
		docType = doc.Type
		switch doc.Status {
		case StatusPosted:
			return fmt.Errorf("%w: document already posted", shared.ErrInvalidState)
		case StatusCancelled:
			return fmt.Errorf("%w: cannot post cancelled document", shared.ErrInvalidState)
		}

		mapping, err := tx.GetMapping(ctx, orgID, string(doc.Type))
		if err != nil {
			return err
		}
		entries, err := BuildEntries(doc, mapping)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			if err := s.checkPostingAccounts(ctx, tx, orgID, mapping.DebitAccountID, mapping.CreditAccountID); err != nil {
				return err
			}
		}
		for _, entry := range entries {
			if err := tx.InsertTransaction(ctx, ledger.Transaction{
				ID:              uuid.New(),
				OrganizationID:  orgID,
				DebitAccountID:  entry.DebitAccountID,
				CreditAccountID: entry.CreditAccountID,
				Amount:          entry.Amount,
				Description:     doc.Description,
				Date:            doc.Date,
				DocumentID:      &doc.ID,
			}); err != nil {
				return err
			}
		}
		if err := tx.SetStatus(ctx, orgID, docID, StatusPosted, nil, nil); err != nil {
			return err
		}
		doc.Status = StatusPosted
		posted = doc
		return nil
	})
	if err != nil {
		if docType != "" {
			s.observer.ObservePosting(string(docType), "error")
		}
		return Document{}, err
	}
	s.observer.ObservePosting(string(docType), "posted")
	return posted, nil
}

// Cancel reverses a document. From POSTED it deletes every ledger transaction
// tagged with the document in the same transaction that flips the status;
// from DRAFT there is nothing to reverse. Cancelling twice fails.
func (s *Service) Cancel(ctx context.Context, orgID, docID, actorID uuid.UUID) (Document, error) {
	var cancelled Document
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		doc, err := tx.GetForUpdate(ctx, orgID, docID)
		if err != nil {
			return err
		}
		if doc.Status == StatusCancelled {
			return fmt.Errorf("%w: document already cancelled", shared.ErrInvalidState)
		}
		if doc.Status == StatusPosted {
			if _, err := tx.DeleteTransactionsByDocument(ctx, orgID, docID); err != nil {
				return err
			}
		}
		now := s.now()
		var by *uuid.UUID
		if actorID != uuid.Nil {
			by = &actorID
		}
		if err := tx.SetStatus(ctx, orgID, docID, StatusCancelled, &now, by); err != nil {
			return err
		}
		doc.Status = StatusCancelled
		doc.CancelledAt = &now
		doc.CancelledBy = by
		cancelled = doc
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	s.observer.ObservePosting(string(cancelled.Type), "cancelled")
	return cancelled, nil
}

// Delete removes a document that never touched the ledger. POSTED documents
// must be cancelled first.
func (s *Service) Delete(ctx context.Context, orgID, docID uuid.UUID) error {
	current, err := s.repo.Get(ctx, orgID, docID)
	if err != nil {
		return err
	}
	if current.Status == StatusPosted {
		return fmt.Errorf("%w: cannot delete posted document, cancel it first", shared.ErrInvalidState)
	}
	return s.repo.Delete(ctx, orgID, docID)
}

func (s *Service) checkPostingAccounts(ctx context.Context, tx TxRepository, orgID, debitID, creditID uuid.UUID) error {
	debit, err := tx.GetAccount(ctx, orgID, debitID)
	if err != nil {
		return err
	}
	credit, err := tx.GetAccount(ctx, orgID, creditID)
	if err != nil {
		return err
	}
	if !debit.IsActive {
		return fmt.Errorf("%w: debit account %s", shared.ErrInactiveAccount, debit.Code)
	}
	if !credit.IsActive {
		return fmt.Errorf("%w: credit account %s", shared.ErrInactiveAccount, credit.Code)
	}
	return nil
}
