package documents

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentType enumerates the business documents that generate ledger
// transactions when posted.
type DocumentType string

const (
	TypeGoodsReceipt     DocumentType = "GOODS_RECEIPT"
	TypeGoodsSale        DocumentType = "GOODS_SALE"
	TypeGoodsTransfer    DocumentType = "GOODS_TRANSFER"
	TypeGoodsWriteOff    DocumentType = "GOODS_WRITE_OFF"
	TypeGoodsProduction  DocumentType = "GOODS_PRODUCTION"
	TypeCashReceiptOrder DocumentType = "CASH_RECEIPT_ORDER"
	TypeCashExpenseOrder DocumentType = "CASH_EXPENSE_ORDER"
	TypePaymentIncoming  DocumentType = "PAYMENT_INCOMING"
	TypePaymentOutgoing  DocumentType = "PAYMENT_OUTGOING"
)

// Valid reports whether the type is known.
func (t DocumentType) Valid() bool {
	switch t {
	case TypeGoodsReceipt, TypeGoodsSale, TypeGoodsTransfer, TypeGoodsWriteOff, TypeGoodsProduction,
		TypeCashReceiptOrder, TypeCashExpenseOrder, TypePaymentIncoming, TypePaymentOutgoing:
		return true
	}
	return false
}

// HasLines reports whether documents of this type carry line items. Cash
// orders and payments carry a single amount instead.
func (t DocumentType) HasLines() bool {
	switch t {
	case TypeGoodsReceipt, TypeGoodsSale, TypeGoodsTransfer, TypeGoodsWriteOff, TypeGoodsProduction:
		return true
	}
	return false
}

// PricingOptional reports whether a document of this type may exist without a
// monetary value. Write-offs and production orders track quantities that are
// not always valued; everything else must carry a positive total.
func (t DocumentType) PricingOptional() bool {
	return t == TypeGoodsWriteOff || t == TypeGoodsProduction
}

// DocumentStatus enumerates the posting lifecycle.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusPosted    DocumentStatus = "POSTED"
	StatusCancelled DocumentStatus = "CANCELLED"
)

// Document is a business document whose posting rule turns it into ledger
// transactions. Reference ids (counterparty, warehouse, ...) are opaque
// foreign keys owned by the surrounding service layer.
type Document struct {
	ID                uuid.UUID        `json:"id"`
	OrganizationID    uuid.UUID        `json:"organization_id"`
	Type              DocumentType     `json:"type"`
	Number            string           `json:"number"`
	Date              time.Time        `json:"date"`
	Status            DocumentStatus   `json:"status"`
	CounterpartyID    *uuid.UUID       `json:"counterparty_id,omitempty"`
	WarehouseID       *uuid.UUID       `json:"warehouse_id,omitempty"`
	TargetWarehouseID *uuid.UUID       `json:"target_warehouse_id,omitempty"`
	ContractID        *uuid.UUID       `json:"contract_id,omitempty"`
	EmployeeID        *uuid.UUID       `json:"employee_id,omitempty"`
	CostItemID        *uuid.UUID       `json:"cost_item_id,omitempty"`
	Description       *string          `json:"description,omitempty"`
	TotalAmount       *decimal.Decimal `json:"total_amount,omitempty"`
	Lines             []DocumentLine   `json:"lines,omitempty"`
	CancelledAt       *time.Time       `json:"cancelled_at,omitempty"`
	CancelledBy       *uuid.UUID       `json:"cancelled_by,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// DocumentLine is one item on a goods document.
type DocumentLine struct {
	ID          uuid.UUID        `json:"id"`
	DocumentID  uuid.UUID        `json:"document_id"`
	ProductID   uuid.UUID        `json:"product_id"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Description *string          `json:"description,omitempty"`
}

// Value returns the line's monetary value: the explicit amount when present,
// otherwise quantity times price. Lines without pricing are worth zero.
func (l DocumentLine) Value() decimal.Decimal {
	if l.Amount != nil {
		return *l.Amount
	}
	if l.Price != nil {
		return l.Quantity.Mul(*l.Price)
	}
	return decimal.Zero
}
