package reports

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
)

func TestWriteBalanceSheetCSV(t *testing.T) {
	orgID := uuid.New()
	bank := testAccount(orgID, "A100", accounts.AccountTypeAsset)
	payables := testAccount(orgID, "L200", accounts.AccountTypeLiability)
	bank.Name, payables.Name = "Bank", "Payables"
	txs := []ledger.Transaction{
		testTx(orgID, bank.ID, payables.ID, "500.00", date(2024, time.January, 10)),
	}
	from, to := date(2024, time.January, 1), date(2024, time.January, 31)
	report := BuildBalanceSheet([]accounts.Account{bank, payables}, txs, &from, &to)

	var buf bytes.Buffer
	require.NoError(t, WriteBalanceSheetCSV(&buf, report))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\r\n"), "\r\n")
	require.Equal(t, "# Report: Balance Sheet", lines[0])
	require.Equal(t, "# Period: 2024-01-01 .. 2024-01-31", lines[1])
	require.Equal(t, "Type,Account Code,Account Name,Opening,Debit,Credit,Closing", lines[2])
	require.Equal(t, "ASSET,A100,Bank,0.00,500.00,0.00,500.00", lines[3])
	require.Equal(t, "LIABILITY,L200,Payables,0.00,0.00,500.00,500.00", lines[4])
	require.Equal(t, "Totals,,Assets,,,,500.00", lines[5])
	require.Equal(t, "Totals,,Liabilities + Equity,,,,500.00", lines[6])
}

func TestWriteProfitAndLossCSV(t *testing.T) {
	orgID := uuid.New()
	bank := testAccount(orgID, "A100", accounts.AccountTypeAsset)
	sales := testAccount(orgID, "R100", accounts.AccountTypeRevenue)
	sales.Name = "Sales"
	txs := []ledger.Transaction{
		testTx(orgID, bank.ID, sales.ID, "900", date(2024, time.March, 5)),
	}
	report := BuildProfitAndLoss([]accounts.Account{bank, sales},
		txs, date(2024, time.March, 1), date(2024, time.March, 31))

	var buf bytes.Buffer
	require.NoError(t, WriteProfitAndLossCSV(&buf, report))

	out := buf.String()
	require.Contains(t, out, "# Report: Profit & Loss\r\n")
	require.Contains(t, out, "REVENUE,R100,Sales,0.00,900.00,900.00\r\n")
	require.Contains(t, out, "Totals,,Net Profit,,,900.00\r\n")
}

func TestWriteCashFlowCSVOpenPeriodHeader(t *testing.T) {
	report := CashFlow{}

	var buf bytes.Buffer
	require.NoError(t, WriteCashFlowCSV(&buf, report))

	out := buf.String()
	require.Contains(t, out, "# Period: open .. open\r\n")
	require.Contains(t, out, "Totals,,Operating,,,0.00\r\n")
	require.Contains(t, out, "Totals,,Net Cash Flow,,,0.00\r\n")
	require.Contains(t, out, "Totals,,Closing Balance,,,0.00\r\n")
}
