package documents

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
	"github.com/kitabu-erp/kitabu/internal/accounting/mappings"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

type memoryDocRepo struct {
	documents    map[uuid.UUID]Document
	transactions map[uuid.UUID]ledger.Transaction
	accounts     map[uuid.UUID]accounts.Account
	mappings     map[string]mappings.PostingMapping
	failAfter    int
	inserts      int
}

type memoryDocTx struct {
	repo      *memoryDocRepo
	staged    map[uuid.UUID]ledger.Transaction
	deleted   map[uuid.UUID]bool
	statusDoc *Document
}

func newMemoryDocRepo() *memoryDocRepo {
	return &memoryDocRepo{
		documents:    make(map[uuid.UUID]Document),
		transactions: make(map[uuid.UUID]ledger.Transaction),
		accounts:     make(map[uuid.UUID]accounts.Account),
		mappings:     make(map[string]mappings.PostingMapping),
		failAfter:    -1,
	}
}

func (r *memoryDocRepo) addAccount(orgID uuid.UUID, code string, active bool) accounts.Account {
	account := accounts.Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Code:           code,
		Name:           "Account " + code,
		Type:           accounts.AccountTypeAsset,
		IsActive:       active,
	}
	r.accounts[account.ID] = account
	return account
}

func (r *memoryDocRepo) addMapping(orgID uuid.UUID, docType DocumentType, debitID, creditID uuid.UUID) {
	r.mappings[string(docType)] = mappings.PostingMapping{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		DocumentType:    string(docType),
		DebitAccountID:  debitID,
		CreditAccountID: creditID,
	}
}

func (r *memoryDocRepo) Create(ctx context.Context, doc Document) (Document, error) {
	for _, existing := range r.documents {
		if existing.OrganizationID == doc.OrganizationID && existing.Type == doc.Type && existing.Number == doc.Number {
			return Document{}, fmt.Errorf("%w: document with this number already exists", shared.ErrConflict)
		}
	}
	doc.CreatedAt = time.Now()
	r.documents[doc.ID] = doc
	return doc, nil
}

func (r *memoryDocRepo) Get(ctx context.Context, orgID, docID uuid.UUID) (Document, error) {
	doc, ok := r.documents[docID]
	if !ok || doc.OrganizationID != orgID {
		return Document{}, fmt.Errorf("%w: document", shared.ErrNotFound)
	}
	return doc, nil
}

func (r *memoryDocRepo) List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]Document, int, error) {
	var out []Document
	for _, doc := range r.documents {
		if doc.OrganizationID != orgID {
			continue
		}
		if filter.Type != nil && doc.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		out = append(out, doc)
	}
	return out, len(out), nil
}

func (r *memoryDocRepo) Update(ctx context.Context, doc Document) (Document, error) {
	existing, ok := r.documents[doc.ID]
	if !ok || existing.OrganizationID != doc.OrganizationID {
		return Document{}, fmt.Errorf("%w: document", shared.ErrNotFound)
	}
	for _, other := range r.documents {
		if other.ID != doc.ID && other.OrganizationID == doc.OrganizationID && other.Type == doc.Type && other.Number == doc.Number {
			return Document{}, fmt.Errorf("%w: document with this number already exists", shared.ErrConflict)
		}
	}
	r.documents[doc.ID] = doc
	return doc, nil
}

func (r *memoryDocRepo) Delete(ctx context.Context, orgID, docID uuid.UUID) error {
	doc, ok := r.documents[docID]
	if !ok || doc.OrganizationID != orgID {
		return fmt.Errorf("%w: document", shared.ErrNotFound)
	}
	delete(r.documents, docID)
	return nil
}

// WithTx stages ledger writes and the status flip, committing only when fn
// succeeds, so posting atomicity is observable in tests.
func (r *memoryDocRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryDocTx{
		repo:    r,
		staged:  make(map[uuid.UUID]ledger.Transaction),
		deleted: make(map[uuid.UUID]bool),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, t := range tx.staged {
		r.transactions[id] = t
	}
	for id := range tx.deleted {
		delete(r.transactions, id)
	}
	if tx.statusDoc != nil {
		r.documents[tx.statusDoc.ID] = *tx.statusDoc
	}
	return nil
}

func (t *memoryDocTx) GetForUpdate(ctx context.Context, orgID, docID uuid.UUID) (Document, error) {
	return t.repo.Get(ctx, orgID, docID)
}

func (t *memoryDocTx) SetStatus(ctx context.Context, orgID, docID uuid.UUID, status DocumentStatus, cancelledAt *time.Time, cancelledBy *uuid.UUID) error {
	doc, ok := t.repo.documents[docID]
	if !ok || doc.OrganizationID != orgID {
		return fmt.Errorf("%w: document", shared.ErrNotFound)
	}
	doc.Status = status
	doc.CancelledAt = cancelledAt
	doc.CancelledBy = cancelledBy
	t.statusDoc = &doc
	return nil
}

func (t *memoryDocTx) InsertTransaction(ctx context.Context, tx ledger.Transaction) error {
	t.repo.inserts++
	if t.repo.failAfter >= 0 && t.repo.inserts > t.repo.failAfter {
		return errors.New("insert failed")
	}
	t.staged[tx.ID] = tx
	return nil
}

func (t *memoryDocTx) DeleteTransactionsByDocument(ctx context.Context, orgID, docID uuid.UUID) (int64, error) {
	var removed int64
	for id, tx := range t.repo.transactions {
		if tx.OrganizationID == orgID && tx.DocumentID != nil && *tx.DocumentID == docID {
			t.deleted[id] = true
			removed++
		}
	}
	return removed, nil
}

func (t *memoryDocTx) GetMapping(ctx context.Context, orgID uuid.UUID, documentType string) (mappings.PostingMapping, error) {
	m, ok := t.repo.mappings[documentType]
	if !ok || m.OrganizationID != orgID {
		return mappings.PostingMapping{}, fmt.Errorf("%w: posting mapping for %s", shared.ErrNotFound, documentType)
	}
	return m, nil
}

func (t *memoryDocTx) GetAccount(ctx context.Context, orgID, accountID uuid.UUID) (accounts.Account, error) {
	account, ok := t.repo.accounts[accountID]
	if !ok || account.OrganizationID != orgID {
		return accounts.Account{}, fmt.Errorf("%w: account", shared.ErrNotFound)
	}
	return account, nil
}

type recordingObserver struct {
	outcomes map[string]int
}

func (o *recordingObserver) ObservePosting(docType, outcome string) {
	if o.outcomes == nil {
		o.outcomes = make(map[string]int)
	}
	o.outcomes[docType+"/"+outcome]++
}

func dec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func saleRequest(number string, lines ...DocumentLineRequest) CreateDocumentRequest {
	return CreateDocumentRequest{
		Type:   TypeGoodsSale,
		Number: number,
		Date:   time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		Lines:  lines,
	}
}

func TestCreateDocumentNumberConflict(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()

	_, err := service.Create(context.Background(), orgID, saleRequest("S-001",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(2), Price: dec("10")}))
	require.NoError(t, err)

	_, err = service.Create(context.Background(), orgID, saleRequest("S-001",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("5")}))
	require.ErrorIs(t, err, shared.ErrConflict)

	// Same number on a different type stays legal.
	_, err = service.Create(context.Background(), orgID, CreateDocumentRequest{
		Type: TypeCashReceiptOrder, Number: "S-001", Amount: dec("100"),
	})
	require.NoError(t, err)
}

func TestCreateDocumentAmountDerivation(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()

	// Explicit line amount wins over quantity times price.
	doc, err := service.Create(context.Background(), orgID, saleRequest("S-010",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(3), Price: dec("10"), Amount: dec("25")}))
	require.NoError(t, err)
	require.NotNil(t, doc.TotalAmount)
	require.True(t, doc.TotalAmount.Equal(decimal.NewFromInt(25)))

	// Unpriced write-off normalizes to no amount.
	doc, err = service.Create(context.Background(), orgID, CreateDocumentRequest{
		Type: TypeGoodsWriteOff, Number: "W-001",
		Lines: []DocumentLineRequest{{ProductID: uuid.New(), Quantity: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)
	require.Nil(t, doc.TotalAmount)

	// A value-bearing sale must carry a positive total.
	_, err = service.Create(context.Background(), orgID, saleRequest("S-011",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(5)}))
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	// Cash orders take the direct amount and reject non-positive values.
	_, err = service.Create(context.Background(), orgID, CreateDocumentRequest{
		Type: TypeCashReceiptOrder, Number: "C-001", Amount: dec("0"),
	})
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestCreateDocumentUnknownType(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)

	_, err := service.Create(context.Background(), uuid.New(), CreateDocumentRequest{Type: "INVOICE", Number: "X-1"})
	require.ErrorIs(t, err, shared.ErrInvalidEntry)
}

func TestPostGoodsDocumentWritesOneEntryPerLine(t *testing.T) {
	repo := newMemoryDocRepo()
	observer := &recordingObserver{}
	service := NewService(repo).WithObserver(observer)
	orgID := uuid.New()
	debit := repo.addAccount(orgID, "1000", true)
	credit := repo.addAccount(orgID, "4000", true)
	repo.addMapping(orgID, TypeGoodsSale, debit.ID, credit.ID)

	doc, err := service.Create(context.Background(), orgID, saleRequest("S-020",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(2), Price: dec("10")},
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("7.50")}))
	require.NoError(t, err)

	posted, err := service.Post(context.Background(), orgID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
	require.Len(t, repo.transactions, 2)
	for _, tx := range repo.transactions {
		require.Equal(t, debit.ID, tx.DebitAccountID)
		require.Equal(t, credit.ID, tx.CreditAccountID)
		require.NotNil(t, tx.DocumentID)
		require.Equal(t, doc.ID, *tx.DocumentID)
	}
	require.Equal(t, 1, observer.outcomes["GOODS_SALE/posted"])
}

func TestPostTransitionGuards(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()
	debit := repo.addAccount(orgID, "1000", true)
	credit := repo.addAccount(orgID, "4000", true)
	repo.addMapping(orgID, TypeGoodsSale, debit.ID, credit.ID)

	doc, err := service.Create(context.Background(), orgID, saleRequest("S-030",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("10")}))
	require.NoError(t, err)

	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.NoError(t, err)

	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = service.Cancel(context.Background(), orgID, doc.ID, uuid.New())
	require.NoError(t, err)

	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = service.Cancel(context.Background(), orgID, doc.ID, uuid.New())
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestPostIsAtomic(t *testing.T) {
	repo := newMemoryDocRepo()
	observer := &recordingObserver{}
	service := NewService(repo).WithObserver(observer)
	orgID := uuid.New()
	debit := repo.addAccount(orgID, "1000", true)
	credit := repo.addAccount(orgID, "4000", true)
	repo.addMapping(orgID, TypeGoodsSale, debit.ID, credit.ID)

	lines := make([]DocumentLineRequest, 4)
	for i := range lines {
		lines[i] = DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("10")}
	}
	doc, err := service.Create(context.Background(), orgID, saleRequest("S-040", lines...))
	require.NoError(t, err)

	repo.failAfter = 2
	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.Error(t, err)
	require.Empty(t, repo.transactions)

	current, err := service.Get(context.Background(), orgID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusDraft, current.Status)
	require.Equal(t, 1, observer.outcomes["GOODS_SALE/error"])

	repo.failAfter = -1
	posted, err := service.Post(context.Background(), orgID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
	require.Len(t, repo.transactions, 4)
}

func TestPostRequiresMappingAndActiveAccounts(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()

	doc, err := service.Create(context.Background(), orgID, saleRequest("S-050",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("10")}))
	require.NoError(t, err)

	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	debit := repo.addAccount(orgID, "1000", true)
	inactive := repo.addAccount(orgID, "4000", false)
	repo.addMapping(orgID, TypeGoodsSale, debit.ID, inactive.ID)

	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.ErrorIs(t, err, shared.ErrInactiveAccount)
	require.Empty(t, repo.transactions)
}

func TestPostUnvaluedWriteOffFlipsStatusWithoutEntries(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()
	debit := repo.addAccount(orgID, "5000", true)
	credit := repo.addAccount(orgID, "1000", true)
	repo.addMapping(orgID, TypeGoodsWriteOff, debit.ID, credit.ID)

	doc, err := service.Create(context.Background(), orgID, CreateDocumentRequest{
		Type: TypeGoodsWriteOff, Number: "W-010",
		Lines: []DocumentLineRequest{{ProductID: uuid.New(), Quantity: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)

	posted, err := service.Post(context.Background(), orgID, doc.ID)
	require.NoError(t, err)
	require.Equal(t, StatusPosted, posted.Status)
	require.Empty(t, repo.transactions)
}

func TestCancelReversesPostedDocument(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()
	debit := repo.addAccount(orgID, "1000", true)
	credit := repo.addAccount(orgID, "4000", true)
	repo.addMapping(orgID, TypeGoodsSale, debit.ID, credit.ID)

	doc, err := service.Create(context.Background(), orgID, saleRequest("S-060",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(2), Price: dec("10")}))
	require.NoError(t, err)

	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, repo.transactions)

	actor := uuid.New()
	cancelled, err := service.Cancel(context.Background(), orgID, doc.ID, actor)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	require.NotNil(t, cancelled.CancelledBy)
	require.Equal(t, actor, *cancelled.CancelledBy)
	require.Empty(t, repo.transactions)
}

func TestCancelDraftSkipsLedger(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()

	doc, err := service.Create(context.Background(), orgID, saleRequest("S-070",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("10")}))
	require.NoError(t, err)

	cancelled, err := service.Cancel(context.Background(), orgID, doc.ID, uuid.Nil)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Nil(t, cancelled.CancelledBy)
}

func TestUpdateOnlyDraft(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()
	debit := repo.addAccount(orgID, "1000", true)
	credit := repo.addAccount(orgID, "4000", true)
	repo.addMapping(orgID, TypeGoodsSale, debit.ID, credit.ID)

	doc, err := service.Create(context.Background(), orgID, saleRequest("S-080",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("10")}))
	require.NoError(t, err)

	number := "S-081"
	updated, err := service.Update(context.Background(), orgID, doc.ID, UpdateDocumentRequest{Number: &number})
	require.NoError(t, err)
	require.Equal(t, "S-081", updated.Number)

	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.NoError(t, err)

	_, err = service.Update(context.Background(), orgID, doc.ID, UpdateDocumentRequest{Number: &number})
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = service.Cancel(context.Background(), orgID, doc.ID, uuid.Nil)
	require.NoError(t, err)

	_, err = service.Update(context.Background(), orgID, doc.ID, UpdateDocumentRequest{Number: &number})
	require.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestUpdateReplacesLinesAndRederivesTotal(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()

	doc, err := service.Create(context.Background(), orgID, saleRequest("S-090",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(2), Price: dec("10")}))
	require.NoError(t, err)
	require.True(t, doc.TotalAmount.Equal(decimal.NewFromInt(20)))

	newLines := []DocumentLineRequest{
		{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("4")},
		{ProductID: uuid.New(), Quantity: decimal.NewFromInt(3), Price: dec("2")},
	}
	updated, err := service.Update(context.Background(), orgID, doc.ID, UpdateDocumentRequest{Lines: &newLines})
	require.NoError(t, err)
	require.Len(t, updated.Lines, 2)
	require.True(t, updated.TotalAmount.Equal(decimal.NewFromInt(10)))
}

func TestDeleteOnlyDraftOrCancelled(t *testing.T) {
	repo := newMemoryDocRepo()
	service := NewService(repo)
	orgID := uuid.New()
	debit := repo.addAccount(orgID, "1000", true)
	credit := repo.addAccount(orgID, "4000", true)
	repo.addMapping(orgID, TypeGoodsSale, debit.ID, credit.ID)

	doc, err := service.Create(context.Background(), orgID, saleRequest("S-100",
		DocumentLineRequest{ProductID: uuid.New(), Quantity: decimal.NewFromInt(1), Price: dec("10")}))
	require.NoError(t, err)

	_, err = service.Post(context.Background(), orgID, doc.ID)
	require.NoError(t, err)

	err = service.Delete(context.Background(), orgID, doc.ID)
	require.ErrorIs(t, err, shared.ErrInvalidState)

	_, err = service.Cancel(context.Background(), orgID, doc.ID, uuid.Nil)
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), orgID, doc.ID))
}
