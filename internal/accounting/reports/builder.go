package reports

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
	"github.com/kitabu-erp/kitabu/internal/accounting/ledger"
)

type turnover struct {
	openingDebit  decimal.Decimal
	openingCredit decimal.Decimal
	periodDebit   decimal.Decimal
	periodCredit  decimal.Decimal
}

// aggregate splits each account's debit and credit turnover into the part
// strictly before dateFrom and the part inside [dateFrom, dateTo]. With no
// dateFrom everything counts as period turnover, so opening balances stay
// zero.
func aggregate(transactions []ledger.Transaction, dateFrom, dateTo *time.Time) map[uuid.UUID]*turnover {
	byAccount := make(map[uuid.UUID]*turnover)
	at := func(id uuid.UUID) *turnover {
		t, ok := byAccount[id]
		if !ok {
			t = &turnover{}
			byAccount[id] = t
		}
		return t
	}
	for _, tx := range transactions {
		if dateTo != nil && tx.Date.After(*dateTo) {
			continue
		}
		opening := dateFrom != nil && tx.Date.Before(*dateFrom)
		debit := at(tx.DebitAccountID)
		credit := at(tx.CreditAccountID)
		if opening {
			debit.openingDebit = debit.openingDebit.Add(tx.Amount)
			credit.openingCredit = credit.openingCredit.Add(tx.Amount)
		} else {
			debit.periodDebit = debit.periodDebit.Add(tx.Amount)
			credit.periodCredit = credit.periodCredit.Add(tx.Amount)
		}
	}
	return byAccount
}

// openingBalance applies the sign convention: debit-normal accounts (ASSET)
// carry debit minus credit, credit-normal accounts the reverse.
func openingBalance(accountType accounts.AccountType, t *turnover) decimal.Decimal {
	if accountType == accounts.AccountTypeAsset {
		return t.openingDebit.Sub(t.openingCredit)
	}
	return t.openingCredit.Sub(t.openingDebit)
}

func closingBalance(accountType accounts.AccountType, opening decimal.Decimal, t *turnover) decimal.Decimal {
	if accountType == accounts.AccountTypeAsset {
		return opening.Add(t.periodDebit).Sub(t.periodCredit)
	}
	return opening.Add(t.periodCredit).Sub(t.periodDebit)
}

func sortByCode(accs []accounts.Account) []accounts.Account {
	sorted := make([]accounts.Account, len(accs))
	copy(sorted, accs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Code < sorted[j].Code })
	return sorted
}

// BuildBalanceSheet computes the balance sheet over the given accounts and
// transactions. Rows come out in ascending account-code order, so the report
// is deterministic for identical inputs. TotalAssets and
// TotalLiabilitiesAndEquity are computed independently; the builder never
// asserts them equal.
func BuildBalanceSheet(accs []accounts.Account, transactions []ledger.Transaction, dateFrom, dateTo *time.Time) BalanceSheet {
	byAccount := aggregate(transactions, dateFrom, dateTo)
	report := BalanceSheet{
		Period:                    Period{DateFrom: dateFrom, DateTo: dateTo},
		Assets:                    []AccountBalance{},
		Liabilities:               []AccountBalance{},
		Equity:                    []AccountBalance{},
		TotalAssets:               decimal.Zero,
		TotalLiabilitiesAndEquity: decimal.Zero,
	}
	for _, account := range sortByCode(accs) {
		switch account.Type {
		case accounts.AccountTypeAsset, accounts.AccountTypeLiability, accounts.AccountTypeEquity:
		default:
			continue
		}
		t, ok := byAccount[account.ID]
		if !ok {
			t = &turnover{}
		}
		opening := openingBalance(account.Type, t)
		row := AccountBalance{
			AccountID:      account.ID,
			Code:           account.Code,
			Name:           account.Name,
			Type:           account.Type,
			OpeningBalance: opening,
			PeriodDebit:    t.periodDebit,
			PeriodCredit:   t.periodCredit,
			ClosingBalance: closingBalance(account.Type, opening, t),
		}
		switch account.Type {
		case accounts.AccountTypeAsset:
			report.Assets = append(report.Assets, row)
			report.TotalAssets = report.TotalAssets.Add(row.ClosingBalance)
		case accounts.AccountTypeLiability:
			report.Liabilities = append(report.Liabilities, row)
			report.TotalLiabilitiesAndEquity = report.TotalLiabilitiesAndEquity.Add(row.ClosingBalance)
		case accounts.AccountTypeEquity:
			report.Equity = append(report.Equity, row)
			report.TotalLiabilitiesAndEquity = report.TotalLiabilitiesAndEquity.Add(row.ClosingBalance)
		}
	}
	return report
}

// BuildProfitAndLoss computes revenue and expense turnover within the period.
// Flow accounts have no opening balance.
func BuildProfitAndLoss(accs []accounts.Account, transactions []ledger.Transaction, dateFrom, dateTo time.Time) ProfitAndLoss {
	byAccount := aggregate(transactions, &dateFrom, &dateTo)
	report := ProfitAndLoss{
		Period:        Period{DateFrom: &dateFrom, DateTo: &dateTo},
		Revenue:       []FlowRow{},
		Expenses:      []FlowRow{},
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, account := range sortByCode(accs) {
		if account.Type != accounts.AccountTypeRevenue && account.Type != accounts.AccountTypeExpense {
			continue
		}
		t, ok := byAccount[account.ID]
		if !ok {
			t = &turnover{}
		}
		row := FlowRow{
			AccountID: account.ID,
			Code:      account.Code,
			Name:      account.Name,
			Type:      account.Type,
			Debit:     t.periodDebit,
			Credit:    t.periodCredit,
		}
		if account.Type == accounts.AccountTypeRevenue {
			row.Balance = row.Credit.Sub(row.Debit)
			report.Revenue = append(report.Revenue, row)
			report.TotalRevenue = report.TotalRevenue.Add(row.Balance)
		} else {
			row.Balance = row.Debit.Sub(row.Credit)
			report.Expenses = append(report.Expenses, row)
			report.TotalExpenses = report.TotalExpenses.Add(row.Balance)
		}
	}
	report.NetProfit = report.TotalRevenue.Sub(report.TotalExpenses)
	report.GrossProfit = report.NetProfit
	return report
}

// BuildCashFlow aggregates every account's period movement into the single
// operating bucket.
func BuildCashFlow(accs []accounts.Account, transactions []ledger.Transaction, dateFrom, dateTo time.Time) CashFlow {
	byAccount := aggregate(transactions, &dateFrom, &dateTo)
	report := CashFlow{
		Period:         Period{DateFrom: &dateFrom, DateTo: &dateTo},
		Operating:      CashFlowBucket{Rows: []CashFlowRow{}, Total: decimal.Zero},
		Investing:      CashFlowBucket{Rows: []CashFlowRow{}, Total: decimal.Zero},
		Financing:      CashFlowBucket{Rows: []CashFlowRow{}, Total: decimal.Zero},
		OpeningBalance: decimal.Zero,
	}
	for _, account := range sortByCode(accs) {
		t, ok := byAccount[account.ID]
		if !ok {
			t = &turnover{}
		}
		row := CashFlowRow{
			AccountID: account.ID,
			Code:      account.Code,
			Name:      account.Name,
			Inflow:    t.periodDebit,
			Outflow:   t.periodCredit,
			NetFlow:   t.periodDebit.Sub(t.periodCredit),
		}
		report.Operating.Rows = append(report.Operating.Rows, row)
		report.Operating.Total = report.Operating.Total.Add(row.NetFlow)
	}
	report.NetCashFlow = report.Operating.Total.Add(report.Investing.Total).Add(report.Financing.Total)
	report.ClosingBalance = report.OpeningBalance.Add(report.NetCashFlow)
	return report
}
