package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ExportGSTSummaryExcel renders the period GST summary as an XLSX workbook
// for filing hand-off.
func ExportGSTSummaryExcel(ctx context.Context, fromDate, toDate time.Time) (*excelize.File, error) {
	summary, err := GetGSTSummary(ctx, fromDate, toDate)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheet := "GST Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	f.SetCellValue(sheet, "A1", "Period")
	f.SetCellValue(sheet, "B1", summary.FromDate+" to "+summary.ToDate)
	f.SetCellValue(sheet, "A3", "Output Tax")
	f.SetCellValue(sheet, "B3", summary.OutputTax.String())
	f.SetCellValue(sheet, "A4", "Input Tax Credit")
	f.SetCellValue(sheet, "B4", summary.InputTax.String())
	f.SetCellValue(sheet, "A5", "Net Payable")
	f.SetCellValue(sheet, "B5", summary.NetPayable.String())
	f.SetCellValue(sheet, "A6", "Total Sales")
	f.SetCellValue(sheet, "B6", summary.TotalSales.String())
	f.SetCellValue(sheet, "A7", "Total Purchases")
	f.SetCellValue(sheet, "B7", summary.TotalPurchases.String())

	f.SetCellValue(sheet, "A9", "Tax Rate (%)")
	f.SetCellValue(sheet, "B9", "Taxable Amount")
	f.SetCellValue(sheet, "C9", "Tax Amount")
	for i, b := range summary.RateBreakdowns {
		row := i + 10
		f.SetCellValue(sheet, "A"+fmt.Sprint(row), b.TaxRate.String())
		f.SetCellValue(sheet, "B"+fmt.Sprint(row), b.TaxableAmount.String())
		f.SetCellValue(sheet, "C"+fmt.Sprint(row), b.TaxAmount.String())
	}

	return f, nil
}
