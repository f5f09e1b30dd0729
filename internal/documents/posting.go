package documents

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitabu-erp/kitabu/internal/accounting/mappings"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

// PostingEntry is one (debit, credit, amount) triple derived from a document.
type PostingEntry struct {
	DebitAccountID  uuid.UUID
	CreditAccountID uuid.UUID
	Amount          decimal.Decimal
}

// BuildEntries computes the deterministic set of ledger entries a document
// produces when posted. Goods documents emit one entry per valued line so a
// partial failure is detectable and the whole set can roll back; cash orders
// and payments emit a single entry for the document total. An unvalued
// write-off or production order emits no entries at all.
func BuildEntries(doc Document, mapping mappings.PostingMapping) ([]PostingEntry, error) {
	if mapping.DebitAccountID == mapping.CreditAccountID {
		return nil, fmt.Errorf("%w: posting mapping debits and credits the same account", shared.ErrInvalidEntry)
	}

	if !doc.Type.HasLines() {
		if doc.TotalAmount == nil || doc.TotalAmount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: %s has no amount to post", shared.ErrInvalidAmount, doc.Type)
		}
		return []PostingEntry{{
			DebitAccountID:  mapping.DebitAccountID,
			CreditAccountID: mapping.CreditAccountID,
			Amount:          *doc.TotalAmount,
		}}, nil
	}

	if doc.TotalAmount == nil {
		// Unvalued document: status still flips to POSTED, the ledger is untouched.
		return nil, nil
	}

	entries := make([]PostingEntry, 0, len(doc.Lines))
	for _, line := range doc.Lines {
		value := line.Value()
		if value.LessThanOrEqual(decimal.Zero) {
			if doc.Type.PricingOptional() {
				continue
			}
			return nil, fmt.Errorf("%w: %s line has no value", shared.ErrInvalidAmount, doc.Type)
		}
		entries = append(entries, PostingEntry{
			DebitAccountID:  mapping.DebitAccountID,
			CreditAccountID: mapping.CreditAccountID,
			Amount:          value,
		})
	}
	return entries, nil
}
