package documents

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kitabu-erp/kitabu/internal/accounting/mappings"
	"github.com/kitabu-erp/kitabu/internal/shared"
)

func testMapping() mappings.PostingMapping {
	return mappings.PostingMapping{
		DebitAccountID:  uuid.New(),
		CreditAccountID: uuid.New(),
	}
}

func TestBuildEntriesRejectsSelfMapping(t *testing.T) {
	id := uuid.New()
	mapping := mappings.PostingMapping{DebitAccountID: id, CreditAccountID: id}

	_, err := BuildEntries(Document{Type: TypeCashReceiptOrder, TotalAmount: dec("10")}, mapping)
	require.ErrorIs(t, err, shared.ErrInvalidEntry)
}

func TestBuildEntriesCashOrderSingleEntry(t *testing.T) {
	mapping := testMapping()
	doc := Document{Type: TypeCashReceiptOrder, TotalAmount: dec("150.25")}

	entries, err := BuildEntries(doc, mapping)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, mapping.DebitAccountID, entries[0].DebitAccountID)
	require.Equal(t, mapping.CreditAccountID, entries[0].CreditAccountID)
	require.True(t, entries[0].Amount.Equal(decimal.NewFromFloat(150.25)))
}

func TestBuildEntriesCashOrderRequiresAmount(t *testing.T) {
	_, err := BuildEntries(Document{Type: TypePaymentIncoming}, testMapping())
	require.ErrorIs(t, err, shared.ErrInvalidAmount)

	_, err = BuildEntries(Document{Type: TypePaymentIncoming, TotalAmount: dec("0")}, testMapping())
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestBuildEntriesGoodsOneEntryPerLine(t *testing.T) {
	doc := Document{
		Type:        TypeGoodsSale,
		TotalAmount: dec("30"),
		Lines: []DocumentLine{
			{Quantity: decimal.NewFromInt(2), Price: dec("10")},
			{Amount: dec("10")},
		},
	}

	entries, err := BuildEntries(doc, testMapping())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.True(t, entries[0].Amount.Equal(decimal.NewFromInt(20)))
	require.True(t, entries[1].Amount.Equal(decimal.NewFromInt(10)))
}

func TestBuildEntriesUnvaluedWriteOffEmitsNothing(t *testing.T) {
	doc := Document{
		Type:  TypeGoodsWriteOff,
		Lines: []DocumentLine{{Quantity: decimal.NewFromInt(5)}},
	}

	entries, err := BuildEntries(doc, testMapping())
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestBuildEntriesWriteOffSkipsUnvaluedLines(t *testing.T) {
	doc := Document{
		Type:        TypeGoodsWriteOff,
		TotalAmount: dec("20"),
		Lines: []DocumentLine{
			{Quantity: decimal.NewFromInt(2), Price: dec("10")},
			{Quantity: decimal.NewFromInt(3)},
		},
	}

	entries, err := BuildEntries(doc, testMapping())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.True(t, entries[0].Amount.Equal(decimal.NewFromInt(20)))
}

func TestBuildEntriesValueBearingLineWithoutValueFails(t *testing.T) {
	doc := Document{
		Type:        TypeGoodsSale,
		TotalAmount: dec("20"),
		Lines: []DocumentLine{
			{Quantity: decimal.NewFromInt(2), Price: dec("10")},
			{Quantity: decimal.NewFromInt(3)},
		},
	}

	_, err := BuildEntries(doc, testMapping())
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}
