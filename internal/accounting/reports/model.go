package reports

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kitabu-erp/kitabu/internal/accounting/accounts"
)

// Period bounds a report. Open bounds are nil.
type Period struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
}

// AccountBalance is one balance-sheet row: the account's signed opening
// balance, its period turnover, and the resulting closing balance.
type AccountBalance struct {
	AccountID      uuid.UUID            `json:"account_id"`
	Code           string               `json:"code"`
	Name           string               `json:"name"`
	Type           accounts.AccountType `json:"type"`
	OpeningBalance decimal.Decimal      `json:"opening_balance"`
	PeriodDebit    decimal.Decimal      `json:"period_debit"`
	PeriodCredit   decimal.Decimal      `json:"period_credit"`
	ClosingBalance decimal.Decimal      `json:"closing_balance"`
}

// BalanceSheet groups closing balances by account class. The two totals are
// reported as computed and never forced equal.
type BalanceSheet struct {
	Period                    Period           `json:"period"`
	Assets                    []AccountBalance `json:"assets"`
	Liabilities               []AccountBalance `json:"liabilities"`
	Equity                    []AccountBalance `json:"equity"`
	TotalAssets               decimal.Decimal  `json:"total_assets"`
	TotalLiabilitiesAndEquity decimal.Decimal  `json:"total_liabilities_and_equity"`
}

// FlowRow is one profit-and-loss row. Flow accounts have no opening balance;
// only period turnover matters.
type FlowRow struct {
	AccountID uuid.UUID            `json:"account_id"`
	Code      string               `json:"code"`
	Name      string               `json:"name"`
	Type      accounts.AccountType `json:"type"`
	Debit     decimal.Decimal      `json:"debit"`
	Credit    decimal.Decimal      `json:"credit"`
	Balance   decimal.Decimal      `json:"balance"`
}

// ProfitAndLoss reports revenue and expense turnover for a period.
// GrossProfit mirrors NetProfit; cost-of-sales separation is not modelled.
type ProfitAndLoss struct {
	Period        Period          `json:"period"`
	Revenue       []FlowRow       `json:"revenue"`
	Expenses      []FlowRow       `json:"expenses"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalExpenses decimal.Decimal `json:"total_expenses"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	NetProfit     decimal.Decimal `json:"net_profit"`
}

// CashFlowRow is one account's cash movement within the period.
type CashFlowRow struct {
	AccountID uuid.UUID       `json:"account_id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Inflow    decimal.Decimal `json:"inflow"`
	Outflow   decimal.Decimal `json:"outflow"`
	NetFlow   decimal.Decimal `json:"net_flow"`
}

// CashFlowBucket groups rows under an activity heading.
type CashFlowBucket struct {
	Rows  []CashFlowRow   `json:"rows"`
	Total decimal.Decimal `json:"total"`
}

// CashFlow puts every account into the operating bucket. Investing and
// financing stay structurally present but empty; activity classification is a
// known product gap and must not be filled in here. The opening balance is
// period-relative and fixed at zero.
type CashFlow struct {
	Period         Period          `json:"period"`
	Operating      CashFlowBucket  `json:"operating"`
	Investing      CashFlowBucket  `json:"investing"`
	Financing      CashFlowBucket  `json:"financing"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	NetCashFlow    decimal.Decimal `json:"net_cash_flow"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
}
