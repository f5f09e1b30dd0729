package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// Repository encapsulates DB operations for ledger transactions.
type Repository interface {
	Get(ctx context.Context, orgID, txID uuid.UUID) (Transaction, error)
	List(ctx context.Context, orgID uuid.UUID, filter Filter) ([]Transaction, int, error)
	// ListUntil returns every transaction dated on or before until (all of
	// them when until is nil), ordered by date. Reporting aggregates over it.
	ListUntil(ctx context.Context, orgID uuid.UUID, until *time.Time) ([]Transaction, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the operations available within a write transaction.
// Account lookups are duplicated here so validation and insertion see the
// same snapshot.
type TxRepository interface {
	Insert(ctx context.Context, tx Transaction) (Transaction, error)
	Update(ctx context.Context, tx Transaction) (Transaction, error)
	Delete(ctx context.Context, orgID, txID uuid.UUID) error
	DeleteByDocument(ctx context.Context, orgID, documentID uuid.UUID) (int64, error)
	GetAccount(ctx context.Context, orgID, accountID uuid.UUID) (accounts.Account, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const txColumns = `id, organization_id, debit_account_id, credit_account_id, amount, description, date, document_id, created_at`

func scanTransaction(row pgx.Row) (Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.OrganizationID, &t.DebitAccountID, &t.CreditAccountID, &t.Amount, &t.Description, &t.Date, &t.DocumentID, &t.CreatedAt)
	return t, err
}

func (r *repository) Get(ctx context.Context, orgID, txID uuid.UUID) (Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id=$1 AND organization_id=$2`, txID, orgID)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, fmt.Errorf("%w: transaction", shared.ErrNotFound)
		}
		return Transaction{}, err
	}
	return tx, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, filter Filter) ([]Transaction, int, error) {
	where := `WHERE organization_id=$1`
	args := []any{orgID}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		where += fmt.Sprintf(` AND (debit_account_id=$%d OR credit_account_id=$%d)`, len(args), len(args))
	}
	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		where += fmt.Sprintf(` AND date >= $%d`, len(args))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		where += fmt.Sprintf(` AND date <= $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit, offset := shared.Pagination{Page: filter.Page, PerPage: filter.PerPage}.LimitOffset()
	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT `+txColumns+` FROM transactions %s
ORDER BY date DESC, created_at DESC, id DESC LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var transactions []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, total, rows.Err()
}

func (r *repository) ListUntil(ctx context.Context, orgID uuid.UUID, until *time.Time) ([]Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions WHERE organization_id=$1`
	args := []any{orgID}
	if until != nil {
		args = append(args, *until)
		query += ` AND date <= $2`
	}
	query += ` ORDER BY date ASC, created_at ASC`
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var transactions []Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) Insert(ctx context.Context, t Transaction) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO transactions (id, organization_id, debit_account_id, credit_account_id, amount, description, date, document_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING `+txColumns,
		t.ID, t.OrganizationID, t.DebitAccountID, t.CreditAccountID, t.Amount, t.Description, t.Date, t.DocumentID)
	return scanTransaction(row)
}

func (r *txRepository) Update(ctx context.Context, t Transaction) (Transaction, error) {
	row := r.tx.QueryRow(ctx, `UPDATE transactions SET debit_account_id=$3, credit_account_id=$4, amount=$5, description=$6, date=$7
WHERE id=$1 AND organization_id=$2 RETURNING `+txColumns,
		t.ID, t.OrganizationID, t.DebitAccountID, t.CreditAccountID, t.Amount, t.Description, t.Date)
	updated, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Transaction{}, fmt.Errorf("%w: transaction", shared.ErrNotFound)
		}
		return Transaction{}, err
	}
	return updated, nil
}

func (r *txRepository) Delete(ctx context.Context, orgID, txID uuid.UUID) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE id=$1 AND organization_id=$2`, txID, orgID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction", shared.ErrNotFound)
	}
	return nil
}

func (r *txRepository) DeleteByDocument(ctx context.Context, orgID, documentID uuid.UUID) (int64, error) {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM transactions WHERE organization_id=$1 AND document_id=$2`, orgID, documentID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *txRepository) GetAccount(ctx context.Context, orgID, accountID uuid.UUID) (accounts.Account, error) {
	var a accounts.Account
	err := r.tx.QueryRow(ctx, `SELECT id, organization_id, code, name, type, parent_id, is_active, created_at, updated_at
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
