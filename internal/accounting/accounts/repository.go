package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitabu-erp/kitabu/internal/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	Create(ctx context.Context, account Account) (Account, error)
	Get(ctx context.Context, orgID, accountID uuid.UUID) (Account, error)
	// Find fetches by id without the organization filter; the service uses it
	// to distinguish a missing parent from a cross-organization one.
	Find(ctx context.Context, accountID uuid.UUID) (Account, error)
	List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]Account, error)
	Update(ctx context.Context, account Account) (Account, error)
	Delete(ctx context.Context, orgID, accountID uuid.UUID) error
	HasChildren(ctx context.Context, orgID, accountID uuid.UUID) (bool, error)
	TransactionCount(ctx context.Context, orgID, accountID uuid.UUID) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, organization_id, code, name, type, parent_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.OrganizationID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *repository) Create(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO accounts (id, organization_id, code, name, type, parent_id, is_active)
VALUES ($1,$2,$3,$4,$5,$6,$7) RETURNING `+accountColumns,
		account.ID, account.OrganizationID, account.Code, account.Name, account.Type, account.ParentID, account.IsActive)
	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Account{}, fmt.Errorf("%w: account code %q already exists in organization", shared.ErrConflict, account.Code)
		}
		return Account{}, err
	}
	return created, nil
}

func (r *repository) Get(ctx context.Context, orgID, accountID uuid.UUID) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND organization_id=$2`, accountID, orgID)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("%w: account", shared.ErrNotFound)
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) Find(ctx context.Context, accountID uuid.UUID) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, accountID)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("%w: account", shared.ErrNotFound)
		}
		return Account{}, err
	}
	return account, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID, includeInactive bool) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE organization_id=$1`
	if !includeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY code ASC`
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *repository) Update(ctx context.Context, account Account) (Account, error) {
	row := r.db.QueryRow(ctx, `UPDATE accounts SET code=$3, name=$4, type=$5, parent_id=$6, is_active=$7, updated_at=NOW()
WHERE id=$1 AND organization_id=$2 RETURNING `+accountColumns,
		account.ID, account.OrganizationID, account.Code, account.Name, account.Type, account.ParentID, account.IsActive)
	updated, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, fmt.Errorf("%w: account", shared.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return Account{}, fmt.Errorf("%w: account code %q already exists in organization", shared.ErrConflict, account.Code)
		}
		return Account{}, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, orgID, accountID uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id=$1 AND organization_id=$2`, accountID, orgID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: account", shared.ErrNotFound)
	}
	return nil
}

func (r *repository) HasChildren(ctx context.Context, orgID, accountID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE parent_id=$1 AND organization_id=$2)`, accountID, orgID).Scan(&exists)
	return exists, err
}

func (r *repository) TransactionCount(ctx context.Context, orgID, accountID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM transactions
WHERE organization_id=$1 AND (debit_account_id=$2 OR credit_account_id=$2)`, orgID, accountID).Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
