package services

import (
	"context"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary  = "Ringkasan"
	sheetTrends   = "Tren Bulanan"
	sheetExpenses = "Pengeluaran"

	exportTrendMonths = 12
)

// ExportReport writes an xlsx workbook with the period summary, the last
// twelve months of trends and the expense breakdown.
func (s *FinanceService) ExportReport(ctx context.Context, period Period, w io.Writer) error {
	summary, err := s.GetSummary(ctx, period)
	if err != nil {
		return err
	}
	trends, err := s.GetMonthlyTrends(ctx, exportTrendMonths)
	if err != nil {
		return err
	}
	breakdown, err := s.GetExpenseBreakdown(ctx, period)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return storeErr("build workbook", err)
	}
	for _, name := range []string{sheetTrends, sheetExpenses} {
		if _, err := f.NewSheet(name); err != nil {
			return storeErr("build workbook", err)
		}
	}

	rows := [][]any{
		{"Periode", string(summary.Period)},
		{"Dari", summary.From.Format("2006-01-02 15:04")},
		{"Sampai", summary.To.Format("2006-01-02 15:04")},
		{"Pemasukan", money(summary.Income)},
		{"Pengeluaran", money(summary.Expenses)},
		{"Laba", money(summary.Profit)},
		{"Jumlah Transaksi", summary.TransactionCount},
	}
	if err := writeRows(f, sheetSummary, rows); err != nil {
		return err
	}

	rows = [][]any{{"Bulan", "Pemasukan", "Pengeluaran", "Laba"}}
	for i := range trends.Dates {
		rows = append(rows, []any{
			trends.Dates[i],
			money(trends.Income[i]),
			money(trends.Expenses[i]),
			money(trends.Profit[i]),
		})
	}
	if err := writeRows(f, sheetTrends, rows); err != nil {
		return err
	}

	rows = [][]any{{"Kelompok", "Kategori", "Jumlah", "Qty"}}
	for _, c := range breakdown.Operational.ByCategory {
		rows = append(rows, []any{"Operasional", c.Category, money(c.Amount), ""})
	}
	for _, c := range breakdown.Other.ByCategory {
		rows = append(rows, []any{"Lainnya", c.Category, money(c.Amount), ""})
	}
	for _, p := range breakdown.SpareParts.ByName {
		rows = append(rows, []any{"Suku Cadang", p.Name, money(p.Cost), p.Quantity})
	}
	rows = append(rows, []any{"Total", "", money(breakdown.GrandTotal), ""})
	if err := writeRows(f, sheetExpenses, rows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return storeErr("write workbook", err)
	}
	return nil
}

// writeRows fills sheet from A1 down. Failures come back as StoreError.
func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	op := "write sheet " + sheet
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return storeErr(op, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return storeErr(op, err)
		}
	}
	return storeErr(op, f.SetColWidth(sheet, "A", "D", 20))
}

func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
