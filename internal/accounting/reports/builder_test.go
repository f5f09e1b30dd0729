package reports

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
)

func testAccount(orgID uuid.UUID, code string, accountType accounts.AccountType) accounts.Account {
	return accounts.Account{
		ID:             uuid.New(),
		OrganizationID: orgID,
		Code:           code,
		Name:           "Account " + code,
		Type:           accountType,
		IsActive:       true,
	}
}

func testTx(orgID, debitID, creditID uuid.UUID, amount string, date time.Time) ledger.Transaction {
	return ledger.Transaction{
		ID:              uuid.New(),
		OrganizationID:  orgID,
		DebitAccountID:  debitID,
		CreditAccountID: creditID,
		Amount:          decimal.RequireFromString(amount),
		Date:            date,
	}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBalanceSheetSingleEntryScenario(t *testing.T) {
	orgID := uuid.New()
	bank := testAccount(orgID, "A100", accounts.AccountTypeAsset)
	payables := testAccount(orgID, "L200", accounts.AccountTypeLiability)
	bank.Name, payables.Name = "Bank", "Payables"

	txs := []ledger.Transaction{
		testTx(orgID, bank.ID, payables.ID, "500.00", date(2024, time.January, 10)),
	}
	from, to := date(2024, time.January, 1), date(2024, time.January, 31)

	report := BuildBalanceSheet([]accounts.Account{bank, payables}, txs, &from, &to)

	require.Len(t, report.Assets, 1)
	asset := report.Assets[0]
	require.Equal(t, "A100", asset.Code)
	require.True(t, asset.OpeningBalance.IsZero())
	require.True(t, asset.PeriodDebit.Equal(decimal.RequireFromString("500.00")))
	require.True(t, asset.PeriodCredit.IsZero())
	require.True(t, asset.ClosingBalance.Equal(decimal.RequireFromString("500.00")))

	require.Len(t, report.Liabilities, 1)
	liability := report.Liabilities[0]
	require.Equal(t, "L200", liability.Code)
	require.True(t, liability.OpeningBalance.IsZero())
	require.True(t, liability.PeriodDebit.IsZero())
	require.True(t, liability.PeriodCredit.Equal(decimal.RequireFromString("500.00")))
	require.True(t, liability.ClosingBalance.Equal(decimal.RequireFromString("500.00")))

	require.True(t, report.TotalAssets.Equal(decimal.RequireFromString("500.00")))
	require.True(t, report.TotalLiabilitiesAndEquity.Equal(decimal.RequireFromString("500.00")))
}

func TestBalanceSheetOpeningStrictlyBeforeDateFrom(t *testing.T) {
	orgID := uuid.New()
	bank := testAccount(orgID, "A100", accounts.AccountTypeAsset)
	equity := testAccount(orgID, "E300", accounts.AccountTypeEquity)

	txs := []ledger.Transaction{
		testTx(orgID, bank.ID, equity.ID, "100", date(2023, time.December, 31)),
		testTx(orgID, bank.ID, equity.ID, "40", date(2024, time.January, 1)),
		testTx(orgID, equity.ID, bank.ID, "10", date(2024, time.January, 15)),
		testTx(orgID, bank.ID, equity.ID, "999", date(2024, time.February, 1)),
	}
	from, to := date(2024, time.January, 1), date(2024, time.January, 31)

	report := BuildBalanceSheet([]accounts.Account{bank, equity}, txs, &from, &to)

	asset := report.Assets[0]
	require.True(t, asset.OpeningBalance.Equal(decimal.NewFromInt(100)))
	require.True(t, asset.PeriodDebit.Equal(decimal.NewFromInt(40)))
	require.True(t, asset.PeriodCredit.Equal(decimal.NewFromInt(10)))
	require.True(t, asset.ClosingBalance.Equal(decimal.NewFromInt(130)))

	eq := report.Equity[0]
	require.True(t, eq.OpeningBalance.Equal(decimal.NewFromInt(100)))
	require.True(t, eq.ClosingBalance.Equal(decimal.NewFromInt(130)))
}

func TestBalanceSheetNoDateFromMeansZeroOpening(t *testing.T) {
	orgID := uuid.New()
	bank := testAccount(orgID, "A100", accounts.AccountTypeAsset)
	equity := testAccount(orgID, "E300", accounts.AccountTypeEquity)

	txs := []ledger.Transaction{
		testTx(orgID, bank.ID, equity.ID, "100", date(2023, time.June, 1)),
	}

	report := BuildBalanceSheet([]accounts.Account{bank, equity}, txs, nil, nil)

	asset := report.Assets[0]
	require.True(t, asset.OpeningBalance.IsZero())
	require.True(t, asset.PeriodDebit.Equal(decimal.NewFromInt(100)))
	require.True(t, asset.ClosingBalance.Equal(decimal.NewFromInt(100)))
}

func TestBalanceSheetRowsSortedByCode(t *testing.T) {
	orgID := uuid.New()
	accs := []accounts.Account{
		testAccount(orgID, "A300", accounts.AccountTypeAsset),
		testAccount(orgID, "A100", accounts.AccountTypeAsset),
		testAccount(orgID, "A200", accounts.AccountTypeAsset),
		testAccount(orgID, "R100", accounts.AccountTypeRevenue),
	}

	report := BuildBalanceSheet(accs, nil, nil, nil)

	require.Len(t, report.Assets, 3)
	require.Equal(t, "A100", report.Assets[0].Code)
	require.Equal(t, "A200", report.Assets[1].Code)
	require.Equal(t, "A300", report.Assets[2].Code)
}

func TestBalanceSheetDeterministic(t *testing.T) {
	orgID := uuid.New()
	bank := testAccount(orgID, "A100", accounts.AccountTypeAsset)
	payables := testAccount(orgID, "L200", accounts.AccountTypeLiability)
	txs := []ledger.Transaction{
		testTx(orgID, bank.ID, payables.ID, "500.00", date(2024, time.January, 10)),
		testTx(orgID, payables.ID, bank.ID, "120.75", date(2024, time.January, 20)),
	}
	from, to := date(2024, time.January, 1), date(2024, time.January, 31)

	first, err := json.Marshal(BuildBalanceSheet([]accounts.Account{bank, payables}, txs, &from, &to))
	require.NoError(t, err)
	second, err := json.Marshal(BuildBalanceSheet([]accounts.Account{payables, bank}, txs, &from, &to))
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestProfitAndLossSignConventions(t *testing.T) {
	orgID := uuid.New()
	bank := testAccount(orgID, "A100", accounts.AccountTypeAsset)
	sales := testAccount(orgID, "R100", accounts.AccountTypeRevenue)
	rent := testAccount(orgID, "X100", accounts.AccountTypeExpense)

	txs := []ledger.Transaction{
		testTx(orgID, bank.ID, sales.ID, "1000", date(2024, time.March, 5)),
		testTx(orgID, sales.ID, bank.ID, "100", date(2024, time.March, 6)),
		testTx(orgID, rent.ID, bank.ID, "300", date(2024, time.March, 7)),
		// Outside the period, must not count.
		testTx(orgID, bank.ID, sales.ID, "5000", date(2024, time.April, 1)),
	}

	report := BuildProfitAndLoss([]accounts.Account{bank, sales, rent},
		txs, date(2024, time.March, 1), date(2024, time.March, 31))

	require.Len(t, report.Revenue, 1)
	require.True(t, report.Revenue[0].Balance.Equal(decimal.NewFromInt(900)))
	require.Len(t, report.Expenses, 1)
	require.True(t, report.Expenses[0].Balance.Equal(decimal.NewFromInt(300)))
	require.True(t, report.TotalRevenue.Equal(decimal.NewFromInt(900)))
	require.True(t, report.TotalExpenses.Equal(decimal.NewFromInt(300)))
	require.True(t, report.NetProfit.Equal(decimal.NewFromInt(600)))
	require.True(t, report.GrossProfit.Equal(report.NetProfit))
}

func TestCashFlowSingleOperatingBucket(t *testing.T) {
	orgID := uuid.New()
	bank := testAccount(orgID, "A100", accounts.AccountTypeAsset)
	sales := testAccount(orgID, "R100", accounts.AccountTypeRevenue)

	txs := []ledger.Transaction{
		testTx(orgID, bank.ID, sales.ID, "250", date(2024, time.May, 10)),
	}

	report := BuildCashFlow([]accounts.Account{bank, sales},
		txs, date(2024, time.May, 1), date(2024, time.May, 31))

	require.Len(t, report.Operating.Rows, 2)
	require.True(t, report.Operating.Rows[0].NetFlow.Equal(decimal.NewFromInt(250)))
	require.True(t, report.Operating.Rows[1].NetFlow.Equal(decimal.NewFromInt(-250)))
	require.True(t, report.Operating.Total.IsZero())

	require.Empty(t, report.Investing.Rows)
	require.Empty(t, report.Financing.Rows)
	require.True(t, report.Investing.Total.IsZero())
	require.True(t, report.Financing.Total.IsZero())

	require.True(t, report.OpeningBalance.IsZero())
	require.True(t, report.NetCashFlow.IsZero())
	require.True(t, report.ClosingBalance.Equal(report.NetCashFlow))
}
