package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MinAmount is the smallest unit a transaction can carry.
var MinAmount = decimal.NewFromFloat(0.01)

// Transaction is one balanced debit/credit posting. A single row carries both
// sides with one amount, so the ledger balances per entry by construction.
// Rows are immutable once written; a posted amount changes only by
// delete-and-recreate.
type Transaction struct {
	ID              uuid.UUID       `json:"id"`
	OrganizationID  uuid.UUID       `json:"organization_id"`
	DebitAccountID  uuid.UUID       `json:"debit_account_id"`
	CreditAccountID uuid.UUID       `json:"credit_account_id"`
	Amount          decimal.Decimal `json:"amount"`
	Description     *string         `json:"description,omitempty"`
	Date            time.Time       `json:"date"`
	// DocumentID tags rows produced by document posting so cancellation can
	// reverse them in bulk. Manual entries leave it nil.
	DocumentID *uuid.UUID `json:"document_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
