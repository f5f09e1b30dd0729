package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitabu-erp/kitabu/internal/shared"
)

// RecordRequest describes one ledger entry to append.
type RecordRequest struct {
	DebitAccountID  uuid.UUID       `json:"debit_account_id" validate:"required"`
	CreditAccountID uuid.UUID       `json:"credit_account_id" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	Description     *string         `json:"description,omitempty"`
	Date            time.Time       `json:"date"`
	DocumentID      *uuid.UUID      `json:"-"`
}

// Validate checks the double-entry rules that need no storage access.
func (r RecordRequest) Validate() error {
	if r.DebitAccountID == r.CreditAccountID {
		return fmt.Errorf("%w: debit and credit accounts cannot be the same", shared.ErrInvalidEntry)
	}
	if r.Amount.LessThan(MinAmount) {
		return fmt.Errorf("%w: amount must be at least %s", shared.ErrInvalidAmount, MinAmount)
	}
	return nil
}

// UpdateRequest mutates a manual ledger entry. Rows generated by document
// posting are rejected; those change only through cancel and repost.
type UpdateRequest struct {
	DebitAccountID  *uuid.UUID       `json:"debit_account_id,omitempty"`
	CreditAccountID *uuid.UUID       `json:"credit_account_id,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Description     *string          `json:"description,omitempty"`
	Date            *time.Time       `json:"date,omitempty"`
}

// Filter restricts Query results. AccountID matches either side of an entry.
type Filter struct {
	AccountID *uuid.UUID
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PerPage   int
}
