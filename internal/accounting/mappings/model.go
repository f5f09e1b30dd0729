package mappings

import (
	"time"

	"github.com/google/uuid"
)

// PostingMapping names the debit and credit account a document type posts
// against within one organization. This is the accounting-policy input that
// cannot be derived from documents themselves.
type PostingMapping struct {
	ID              uuid.UUID `json:"id"`
	OrganizationID  uuid.UUID `json:"organization_id"`
	DocumentType    string    `json:"document_type"`
	DebitAccountID  uuid.UUID `json:"debit_account_id"`
	CreditAccountID uuid.UUID `json:"credit_account_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
