package mappings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kitabu-erp/kitabu/internal/shared"
)

type Repository interface {
	Get(ctx context.Context, orgID uuid.UUID, documentType string) (PostingMapping, error)
	List(ctx context.Context, orgID uuid.UUID) ([]PostingMapping, error)
	Upsert(ctx context.Context, mapping PostingMapping) (PostingMapping, error)
	Delete(ctx context.Context, orgID uuid.UUID, documentType string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const mappingColumns = `id, organization_id, document_type, debit_account_id, credit_account_id, created_at, updated_at`

// Get resolves the posting mapping for a document type.
func (r *repository) Get(ctx context.Context, orgID uuid.UUID, documentType string) (PostingMapping, error) {
	if documentType == "" {
		return PostingMapping{}, errors.New("mappings: document type required")
	}
	normalized := strings.ToUpper(documentType)
	var m PostingMapping
	err := r.db.QueryRow(ctx, `SELECT `+mappingColumns+` FROM posting_mappings WHERE organization_id=$1 AND document_type=$2`, orgID, normalized).
		Scan(&m.ID, &m.OrganizationID, &m.DocumentType, &m.DebitAccountID, &m.CreditAccountID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PostingMapping{}, fmt.Errorf("%w: posting mapping for %s", shared.ErrNotFound, normalized)
		}
		return PostingMapping{}, err
	}
	return m, nil
}

func (r *repository) List(ctx context.Context, orgID uuid.UUID) ([]PostingMapping, error) {
	rows, err := r.db.Query(ctx, `SELECT `+mappingColumns+` FROM posting_mappings WHERE organization_id=$1 ORDER BY document_type ASC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []PostingMapping
	for rows.Next() {
		var m PostingMapping
		if err := rows.Scan(&m.ID, &m.OrganizationID, &m.DocumentType, &m.DebitAccountID, &m.CreditAccountID, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *repository) Upsert(ctx context.Context, mapping PostingMapping) (PostingMapping, error) {
	mapping.DocumentType = strings.ToUpper(mapping.DocumentType)
	row := r.db.QueryRow(ctx, `INSERT INTO posting_mappings (id, organization_id, document_type, debit_account_id, credit_account_id)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (organization_id, document_type)
DO UPDATE SET debit_account_id=EXCLUDED.debit_account_id, credit_account_id=EXCLUDED.credit_account_id, updated_at=NOW()
RETURNING `+mappingColumns,
		mapping.ID, mapping.OrganizationID, mapping.DocumentType, mapping.DebitAccountID, mapping.CreditAccountID)
	var m PostingMapping
	err := row.Scan(&m.ID, &m.OrganizationID, &m.DocumentType, &m.DebitAccountID, &m.CreditAccountID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return PostingMapping{}, fmt.Errorf("%w: mapped account", shared.ErrNotFound)
		}
		return PostingMapping{}, err
	}
	return m, nil
}

func (r *repository) Delete(ctx context.Context, orgID uuid.UUID, documentType string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM posting_mappings WHERE organization_id=$1 AND document_type=$2`, orgID, strings.ToUpper(documentType))
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: posting mapping", shared.ErrNotFound)
	}
	return nil
}
