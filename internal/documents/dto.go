package documents

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitabu-erp/kitabu/internal/shared"
)

// DocumentLineRequest describes one line item on a goods document.
type DocumentLineRequest struct {
	ProductID   uuid.UUID        `json:"product_id" validate:"required"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"required"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// CreateDocumentRequest carries fields to create a document in DRAFT.
type CreateDocumentRequest struct {
	Type              DocumentType          `json:"type" validate:"required"`
	Number            string                `json:"number" validate:"required,max=64"`
	Date              time.Time             `json:"date"`
	CounterpartyID    *uuid.UUID            `json:"counterparty_id,omitempty"`
	WarehouseID       *uuid.UUID            `json:"warehouse_id,omitempty"`
	TargetWarehouseID *uuid.UUID            `json:"target_warehouse_id,omitempty"`
	ContractID        *uuid.UUID            `json:"contract_id,omitempty"`
	EmployeeID        *uuid.UUID            `json:"employee_id,omitempty"`
	CostItemID        *uuid.UUID            `json:"cost_item_id,omitempty"`
	Description       *string               `json:"description,omitempty"`
	Amount            *decimal.Decimal      `json:"amount,omitempty"`
	Lines             []DocumentLineRequest `json:"lines,omitempty" validate:"omitempty,dive"`
}

// UpdateDocumentRequest carries a partial edit; legal only in DRAFT. A
// non-nil Lines slice replaces the whole line set.
type UpdateDocumentRequest struct {
	Number            *string                `json:"number,omitempty" validate:"omitempty,max=64"`
	Date              *time.Time             `json:"date,omitempty"`
	CounterpartyID    *uuid.UUID             `json:"counterparty_id,omitempty"`
	WarehouseID       *uuid.UUID             `json:"warehouse_id,omitempty"`
	TargetWarehouseID *uuid.UUID             `json:"target_warehouse_id,omitempty"`
	ContractID        *uuid.UUID             `json:"contract_id,omitempty"`
	EmployeeID        *uuid.UUID             `json:"employee_id,omitempty"`
	CostItemID        *uuid.UUID             `json:"cost_item_id,omitempty"`
	Description       *string                `json:"description,omitempty"`
	Amount            *decimal.Decimal       `json:"amount,omitempty"`
	Lines             *[]DocumentLineRequest `json:"lines,omitempty" validate:"omitempty,dive"`
}

// ListFilter restricts document listings.
type ListFilter struct {
	Type    *DocumentType
	Status  *DocumentStatus
	Page    int
	PerPage int
}

// deriveTotal computes the document total per the amount-derivation rule:
// explicit line amounts win over quantity x price; a non-positive total
// becomes nil for types with optional pricing and an error for value-bearing
// types. For documents without lines the direct amount applies.
func deriveTotal(docType DocumentType, amount *decimal.Decimal, lines []DocumentLine) (*decimal.Decimal, error) {
	if !docType.HasLines() {
		if amount == nil || amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: %s requires a positive amount", shared.ErrInvalidAmount, docType)
		}
		return amount, nil
	}
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Value())
	}
	if total.LessThanOrEqual(decimal.Zero) {
		if docType.PricingOptional() {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s requires a positive total", shared.ErrInvalidAmount, docType)
	}
	return &total, nil
}

func linesFromRequests(docID uuid.UUID, reqs []DocumentLineRequest) []DocumentLine {
	lines := make([]DocumentLine, 0, len(reqs))
	for _, req := range reqs {
		amount := req.Amount
		if amount == nil && req.Price != nil {
			value := req.Quantity.Mul(*req.Price)
			amount = &value
		}
		lines = append(lines, DocumentLine{
			ID:          uuid.New(),
			DocumentID:  docID,
			ProductID:   req.ProductID,
			Quantity:    req.Quantity,
			Price:       req.Price,
			Amount:      amount,
			Description: req.Description,
		})
	}
	return lines
}
