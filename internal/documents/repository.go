package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
	"github.com/kitabu-erp/kitabu/internal/accounting/mappings"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// Repository encapsulates DB operations for documents.
type Repository interface {
	Create(ctx context.Context, doc Document) (Document, error)
	Get(ctx context.Context, orgID, docID uuid.UUID) (Document, error)
	List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]Document, int, error)
	Update(ctx context.Context, doc Document) (Document, error)
	Delete(ctx context.Context, orgID, docID uuid.UUID) error
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations a post/cancel transition performs
// atomically. Ledger and mapping queries are duplicated here so the whole
// transition shares one database transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, orgID, docID uuid.UUID) (Document, error)
	SetStatus(ctx context.Context, orgID, docID uuid.UUID, status DocumentStatus, cancelledAt *time.Time, cancelledBy *uuid.UUID) error
	InsertTransaction(ctx context.Context, tx ledger.Transaction) error
	DeleteTransactionsByDocument(ctx context.Context, orgID, docID uuid.UUID) (int64, error)
	GetMapping(ctx context.Context, orgID uuid.UUID, documentType string) (mappings.PostingMapping, error)
	GetAccount(ctx context.Context, orgID, accountID uuid.UUID) (accounts.Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const docColumns = `id, organization_id, type, number, date, status, counterparty_id, warehouse_id, target_warehouse_id, contract_id, employee_id, cost_item_id, description, total_amount, cancelled_at, cancelled_by, created_at, updated_at`

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	err := row.Scan(&d.ID, &d.OrganizationID, &d.Type, &d.Number, &d.Date, &d.Status,
		&d.CounterpartyID, &d.WarehouseID, &d.TargetWarehouseID, &d.ContractID, &d.EmployeeID, &d.CostItemID,
		&d.Description, &d.TotalAmount, &d.CancelledAt, &d.CancelledBy, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *repository) Create(ctx context.Context, doc Document) (Document, error) {
	var created Document
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		w := tx.(*txRepository)
		var err error
		created, err = w.insertDocument(ctx, doc)
		if err != nil {
			return err
		}
		if err := w.insertLines(ctx, created.ID, doc.Lines); err != nil {
			return err
		}
		created.Lines = doc.Lines
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, orgID, docID uuid.UUID) (Document, error) {
	row := r.db.QueryRow(ctx, `SELECT `+docColumns+` FROM documents WHERE id=$1 AND organization_id=$2`, docID, orgID)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: document", shared.ErrNotFound)
		}
		return Document{}, err
	}
	doc.Lines, err = r.loadLines(ctx, r.db, doc.ID)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]Document, int, error) {
	where := `WHERE organization_id=$1`
	args := []any{orgID}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		where += fmt.Sprintf(` AND type=$%d`, len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where += fmt.Sprintf(` AND status=$%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM documents `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := shared.Pagination{Page: filter.Page, PerPage: filter.PerPage}.LimitOffset()
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+docColumns+` FROM documents %s ORDER BY date DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, doc Document) (Document, error) {
	var updated Document
	err := r.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		w := tx.(*txRepository)
		row := w.tx.QueryRow(ctx, `UPDATE documents SET number=$3, date=$4, counterparty_id=$5, warehouse_id=$6, target_warehouse_id=$7,
contract_id=$8, employee_id=$9, cost_item_id=$10, description=$11, total_amount=$12, updated_at=NOW()
WHERE id=$1 AND organization_id=$2 RETURNING `+docColumns,
			doc.ID, doc.OrganizationID, doc.Number, doc.Date, doc.CounterpartyID, doc.WarehouseID, doc.TargetWarehouseID,
			doc.ContractID, doc.EmployeeID, doc.CostItemID, doc.Description, doc.TotalAmount)
		var err error
		updated, err = scanDocument(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: document", shared.ErrNotFound)
			}
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: document with this number already exists", shared.ErrConflict)
			}
			return err
		}
		if _, err := w.tx.Exec(ctx, `DELETE FROM document_lines WHERE document_id=$1`, doc.ID); err != nil {
			return err
		}
		if err := w.insertLines(ctx, doc.ID, doc.Lines); err != nil {
			return err
		}
		updated.Lines = doc.Lines
		return nil
	})
	if err != nil {
		return Document{}, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, orgID, docID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id=$1 AND organization_id=$2`, docID, orgID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: document", shared.ErrNotFound)
	}
	return nil
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx, repo: r}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *repository) loadLines(ctx context.Context, q queryer, docID uuid.UUID) ([]DocumentLine, error) {
	rows, err := q.Query(ctx, `SELECT id, document_id, product_id, quantity, price, amount, description
FROM document_lines WHERE document_id=$1 ORDER BY created_at ASC, id ASC`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []DocumentLine
	for rows.Next() {
		var line DocumentLine
		if err := rows.Scan(&line.ID, &line.DocumentID, &line.ProductID, &line.Quantity, &line.Price, &line.Amount, &line.Description); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type txRepository struct {
	tx   pgx.Tx
	repo *repository
}

func (w *txRepository) insertDocument(ctx context.Context, doc Document) (Document, error) {
	row := w.tx.QueryRow(ctx, `INSERT INTO documents (id, organization_id, type, number, date, status, counterparty_id, warehouse_id, target_warehouse_id, contract_id, employee_id, cost_item_id, description, total_amount)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14) RETURNING `+docColumns,
		doc.ID, doc.OrganizationID, doc.Type, doc.Number, doc.Date, doc.Status,
		doc.CounterpartyID, doc.WarehouseID, doc.TargetWarehouseID, doc.ContractID, doc.EmployeeID, doc.CostItemID,
		doc.Description, doc.TotalAmount)
	created, err := scanDocument(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Document{}, fmt.Errorf("%w: document with this number already exists", shared.ErrConflict)
		}
		return Document{}, err
	}
	return created, nil
}

func (w *txRepository) insertLines(ctx context.Context, docID uuid.UUID, lines []DocumentLine) error {
	for _, line := range lines {
		if _, err := w.tx.Exec(ctx, `INSERT INTO document_lines (id, document_id, product_id, quantity, price, amount, description)
VALUES ($1,$2,$3,$4,$5,$6,$7)`, line.ID, docID, line.ProductID, line.Quantity, line.Price, line.Amount, line.Description); err != nil {
			return err
		}
	}
	return nil
}

func (w *txRepository) GetForUpdate(ctx context.Context, orgID, docID uuid.UUID) (Document, error) {
	row := w.tx.QueryRow(ctx, `SELECT `+docColumns+` FROM documents WHERE id=$1 AND organization_id=$2 FOR UPDATE`, docID, orgID)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, fmt.Errorf("%w: document", shared.ErrNotFound)
		}
		return Document{}, err
	}
	doc.Lines, err = w.repo.loadLines(ctx, w.tx, doc.ID)
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (w *txRepository) SetStatus(ctx context.Context, orgID, docID uuid.UUID, status DocumentStatus, cancelledAt *time.Time, cancelledBy *uuid.UUID) error {
	cmd, err := w.tx.Exec(ctx, `UPDATE documents SET status=$3, cancelled_at=$4, cancelled_by=$5, updated_at=NOW()
WHERE id=$1 AND organization_id=$2`, docID, orgID, status, cancelledAt, cancelledBy)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: document", shared.ErrNotFound)
	}
	return nil
}

func (w *txRepository) InsertTransaction(ctx context.Context, t ledger.Transaction) error {
	_, err := w.tx.Exec(ctx, `INSERT INTO transactions (id, organization_id, debit_account_id, credit_account_id, amount, description, date, document_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.OrganizationID, t.DebitAccountID, t.CreditAccountID, t.Amount, t.Description, t.Date, t.DocumentID)
	return err
}

func (w *txRepository) DeleteTransactionsByDocument(ctx context.Context, orgID, docID uuid.UUID) (int64, error) {
	cmd, err := w.tx.Exec(ctx, `DELETE FROM transactions WHERE organization_id=$1 AND document_id=$2`, orgID, docID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (w *txRepository) GetMapping(ctx context.Context, orgID uuid.UUID, documentType string) (mappings.PostingMapping, error) {
	var m mappings.PostingMapping
	err := w.tx.QueryRow(ctx, `SELECT id, organization_id, document_type, debit_account_id, credit_account_id, created_at, updated_at
FROM posting_mappings WHERE organization_id=$1 AND document_type=$2`, orgID, strings.ToUpper(documentType)).
		Scan(&m.ID, &m.OrganizationID, &m.DocumentType, &m.DebitAccountID, &m.CreditAccountID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return mappings.PostingMapping{}, fmt.Errorf("%w: posting mapping for %s", shared.ErrNotFound, documentType)
		}
		return mappings.PostingMapping{}, err
	}
	return m, nil
}

func (w *txRepository) GetAccount(ctx context.Context, orgID, accountID uuid.UUID) (accounts.Account, error) {
	var a accounts.Account
	err := w.tx.QueryRow(ctx, `SELECT id, organization_id, code, name, type, parent_id, is_active, created_at, updated_at
FROM accounts WHERE id=$1 AND organization_id=$2`, accountID, orgID).
		Scan(&a.ID, &a.OrganizationID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return accounts.Account{}, fmt.Errorf("%w: account", shared.ErrNotFound)
		}
		return accounts.Account{}, err
	}
	return a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
