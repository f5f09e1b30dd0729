package reports

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	csvFlushEvery = 200
	csvBufferSize = 32 * 1024
)

type csvStreamer struct {
	buf          *bufio.Writer
	csv          *csv.Writer
	flushEvery   int
	pendingLines int
}

func newCSVStreamer(w io.Writer) *csvStreamer {
	buf := bufio.NewWriterSize(w, csvBufferSize)
	writer := csv.NewWriter(buf)
	writer.UseCRLF = true
	return &csvStreamer{buf: buf, csv: writer, flushEvery: csvFlushEvery}
}

func (s *csvStreamer) writeComment(line string) error {
	if !strings.HasSuffix(line, "\r\n") {
		line = strings.TrimSuffix(line, "\n")
		line += "\r\n"
	}
	_, err := s.buf.WriteString(line)
	return err
}

func (s *csvStreamer) writeRow(row []string) error {
	if err := s.csv.Write(row); err != nil {
		return err
	}
	s.pendingLines++
	if s.flushEvery > 0 && s.pendingLines >= s.flushEvery {
		return s.Flush()
	}
	return nil
}

func (s *csvStreamer) Flush() error {
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return err
	}
	if err := s.buf.Flush(); err != nil {
		return err
	}
	s.pendingLines = 0
	return nil
}

func (s *csvStreamer) Close() error {
	return s.Flush()
}

func writeHeader(streamer *csvStreamer, reportName string, period Period) error {
	if err := streamer.writeComment(fmt.Sprintf("# Report: %s", reportName)); err != nil {
		return err
	}
	from, to := "open", "open"
	if period.DateFrom != nil {
		from = period.DateFrom.Format(time.DateOnly)
	}
	if period.DateTo != nil {
		to = period.DateTo.Format(time.DateOnly)
	}
	return streamer.writeComment(fmt.Sprintf("# Period: %s .. %s", from, to))
}

// WriteBalanceSheetCSV streams the balance sheet as CSV.
func WriteBalanceSheetCSV(w io.Writer, report BalanceSheet) error {
	streamer := newCSVStreamer(w)
	if err := writeHeader(streamer, "Balance Sheet", report.Period); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Type", "Account Code", "Account Name", "Opening", "Debit", "Credit", "Closing"}); err != nil {
		return err
	}
	sections := [][]AccountBalance{report.Assets, report.Liabilities, report.Equity}
	for _, rows := range sections {
		for _, row := range rows {
			if err := streamer.writeRow([]string{
				string(row.Type),
				row.Code,
				row.Name,
				row.OpeningBalance.StringFixed(2),
				row.PeriodDebit.StringFixed(2),
				row.PeriodCredit.StringFixed(2),
				row.ClosingBalance.StringFixed(2),
			}); err != nil {
				return err
			}
		}
	}
	if err := streamer.writeRow([]string{"Totals", "", "Assets", "", "", "", report.TotalAssets.StringFixed(2)}); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Totals", "", "Liabilities + Equity", "", "", "", report.TotalLiabilitiesAndEquity.StringFixed(2)}); err != nil {
		return err
	}
	return streamer.Close()
}

// WriteProfitAndLossCSV streams the profit and loss statement as CSV.
func WriteProfitAndLossCSV(w io.Writer, report ProfitAndLoss) error {
	streamer := newCSVStreamer(w)
	if err := writeHeader(streamer, "Profit & Loss", report.Period); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Type", "Account Code", "Account Name", "Debit", "Credit", "Balance"}); err != nil {
		return err
	}
	for _, rows := range [][]FlowRow{report.Revenue, report.Expenses} {
		for _, row := range rows {
			if err := streamer.writeRow([]string{
				string(row.Type),
				row.Code,
				row.Name,
				row.Debit.StringFixed(2),
				row.Credit.StringFixed(2),
				row.Balance.StringFixed(2),
			}); err != nil {
				return err
			}
		}
	}
	totals := [][]string{
		{"Totals", "", "Revenue", "", "", report.TotalRevenue.StringFixed(2)},
		{"Totals", "", "Expenses", "", "", report.TotalExpenses.StringFixed(2)},
		{"Totals", "", "Net Profit", "", "", report.NetProfit.StringFixed(2)},
	}
	for _, row := range totals {
		if err := streamer.writeRow(row); err != nil {
			return err
		}
	}
	return streamer.Close()
}

// WriteCashFlowCSV streams the cash flow statement as CSV.
func WriteCashFlowCSV(w io.Writer, report CashFlow) error {
	streamer := newCSVStreamer(w)
	if err := writeHeader(streamer, "Cash Flow", report.Period); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Activity", "Account Code", "Account Name", "Inflow", "Outflow", "Net Flow"}); err != nil {
		return err
	}
	buckets := []struct {
		name   string
		bucket CashFlowBucket
	}{
		{"Operating", report.Operating},
		{"Investing", report.Investing},
		{"Financing", report.Financing},
	}
	for _, b := range buckets {
		for _, row := range b.bucket.Rows {
			if err := streamer.writeRow([]string{
				b.name,
				row.Code,
				row.Name,
				row.Inflow.StringFixed(2),
				row.Outflow.StringFixed(2),
				row.NetFlow.StringFixed(2),
			}); err != nil {
				return err
			}
		}
		if err := streamer.writeRow([]string{"Totals", "", b.name, "", "", b.bucket.Total.StringFixed(2)}); err != nil {
			return err
		}
	}
	if err := streamer.writeRow([]string{"Totals", "", "Net Cash Flow", "", "", report.NetCashFlow.StringFixed(2)}); err != nil {
		return err
	}
	if err := streamer.writeRow([]string{"Totals", "", "Closing Balance", "", "", report.ClosingBalance.StringFixed(2)}); err != nil {
		return err
	}
	return streamer.Close()
}
