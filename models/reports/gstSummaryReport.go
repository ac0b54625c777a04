package reports

import (
	"context"
	"errors"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

type GSTSummaryResponse struct {
	FromDate       string              `json:"from_date"`
	ToDate         string              `json:"to_date"`
	OutputTax      decimal.Decimal     `json:"output_tax"`
	InputTax       decimal.Decimal     `json:"input_tax"`
	NetPayable     decimal.Decimal     `json:"net_payable"`
	TotalSales     decimal.Decimal     `json:"total_sales"`
	TotalPurchases decimal.Decimal     `json:"total_purchases"`
	RateBreakdowns []*GSTRateBreakdown `json:"rate_breakdowns"`
}

type GSTRateBreakdown struct {
	TaxRate       decimal.Decimal `json:"tax_rate"`
	TaxableAmount decimal.Decimal `json:"taxable_amount"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
}

type gstLedgerTotals struct {
	OutputTax      decimal.Decimal
	InputTax       decimal.Decimal
	TotalSales     decimal.Decimal
	TotalPurchases decimal.Decimal
}

// SummarizeGST nets collected output tax against input tax credit. A negative
// result is a refund position and is reported as-is, never clamped.
func SummarizeGST(outputTax, inputTax decimal.Decimal) decimal.Decimal {
	return outputTax.Sub(inputTax).Round(2)
}

// buildGSTSummary assembles the response from the ledger aggregates.
func buildGSTSummary(fromDate, toDate time.Time, totals gstLedgerTotals, breakdowns []*GSTRateBreakdown) *GSTSummaryResponse {
	return &GSTSummaryResponse{
		FromDate:       fromDate.Format("2006-01-02"),
		ToDate:         toDate.Format("2006-01-02"),
		OutputTax:      totals.OutputTax.Round(2),
		InputTax:       totals.InputTax.Round(2),
		NetPayable:     SummarizeGST(totals.OutputTax, totals.InputTax),
		TotalSales:     totals.TotalSales.Round(2),
		TotalPurchases: totals.TotalPurchases.Round(2),
		RateBreakdowns: breakdowns,
	}
}

// MonthPeriod resolves a filing month to its inclusive date range.
func MonthPeriod(year, month int) (time.Time, time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, time.Time{}, utils.NewValidationError("month", "month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, time.Time{}, utils.NewValidationError("year", "year is out of range")
	}
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	return from, to, nil
}

// GetGSTSummaryForMonth is the filing-period form of GetGSTSummary.
func GetGSTSummaryForMonth(ctx context.Context, year, month int) (*GSTSummaryResponse, error) {
	from, to, err := MonthPeriod(year, month)
	if err != nil {
		return nil, err
	}
	return GetGSTSummary(ctx, from, to)
}

// GetGSTSummary aggregates the GST control accounts over a period. Reading
// the ledger rather than the documents means reversals net out for free.
func GetGSTSummary(ctx context.Context, fromDate, toDate time.Time) (*GSTSummaryResponse, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if toDate.Before(fromDate) {
		return nil, utils.NewValidationError("to_date", "to date must not be before from date")
	}

	db := config.GetDB()

	sql := `
		SELECT
		    SUM(CASE WHEN le.account_code = 'GSO' THEN le.credit - le.debit ELSE 0 END) AS output_tax,
		    SUM(CASE WHEN le.account_code = 'GSI' THEN le.debit - le.credit ELSE 0 END) AS input_tax,
		    SUM(CASE WHEN le.account_code = 'SLS' THEN le.credit - le.debit ELSE 0 END) AS total_sales,
		    SUM(CASE WHEN le.account_code = 'PUR' THEN le.debit - le.credit ELSE 0 END) AS total_purchases
		FROM
		    ledger_entries le
		    JOIN ledger_transactions lt ON lt.id = le.transaction_id
		WHERE
		    le.business_id = ?
		    AND lt.transaction_date BETWEEN ? AND ?
	`
	var totals gstLedgerTotals
	if err := db.WithContext(ctx).Raw(sql, businessId, fromDate, toDate).Scan(&totals).Error; err != nil {
		return nil, err
	}

	breakdownSql := `
		SELECT
		    ili.tax_rate,
		    SUM(ili.line_amount) AS taxable_amount,
		    SUM(ili.line_tax) AS tax_amount
		FROM
		    invoice_line_items ili
		    JOIN invoices iv ON iv.id = ili.invoice_id
		WHERE
		    iv.business_id = ?
		    AND iv.current_status IN ('Issued', 'Paid')
		    AND iv.invoice_date BETWEEN ? AND ?
		GROUP BY ili.tax_rate
		ORDER BY ili.tax_rate
	`
	var breakdowns []*GSTRateBreakdown
	if err := db.WithContext(ctx).Raw(breakdownSql, businessId, fromDate, toDate).Scan(&breakdowns).Error; err != nil {
		return nil, err
	}

	return buildGSTSummary(fromDate, toDate, totals, breakdowns), nil
}
