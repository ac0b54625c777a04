package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestSummarizeGST(t *testing.T) {
	if !SummarizeGST(d("1800"), d("1300")).Equal(d("500")) {
		t.Fatal("expected net payable 500")
	}
	if !SummarizeGST(d("0"), d("0")).IsZero() {
		t.Fatal("expected zero net for zero period")
	}
}

func TestSummarizeGST_RefundPositionStaysNegative(t *testing.T) {
	// Input credit exceeding output tax is a refund position; it must be
	// reported negative, never clamped to zero.
	net := SummarizeGST(d("100"), d("600"))
	if !net.Equal(d("-500")) {
		t.Fatalf("expected -500, got %s", net)
	}
}

func TestSummarizeGST_RoundsToCents(t *testing.T) {
	net := SummarizeGST(d("100.005"), d("0"))
	if !net.Equal(d("100.01")) {
		t.Fatalf("expected 100.01, got %s", net)
	}
}

func TestBuildGSTSummary_CarriesSalesAndPurchases(t *testing.T) {
	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)
	totals := gstLedgerTotals{
		OutputTax:      d("1800"),
		InputTax:       d("1300"),
		TotalSales:     d("10000.005"),
		TotalPurchases: d("7222.50"),
	}

	summary := buildGSTSummary(from, to, totals, nil)
	if !summary.TotalSales.Equal(d("10000.01")) {
		t.Fatalf("expected total sales 10000.01, got %s", summary.TotalSales)
	}
	if !summary.TotalPurchases.Equal(d("7222.50")) {
		t.Fatalf("expected total purchases 7222.50, got %s", summary.TotalPurchases)
	}
	if !summary.NetPayable.Equal(d("500")) {
		t.Fatalf("expected net payable 500, got %s", summary.NetPayable)
	}
	if summary.FromDate != "2026-04-01" || summary.ToDate != "2026-04-30" {
		t.Fatalf("period formatting wrong: %s to %s", summary.FromDate, summary.ToDate)
	}
}

func TestMonthPeriod(t *testing.T) {
	from, to, err := MonthPeriod(2026, 2)
	if err != nil {
		t.Fatalf("valid period rejected: %v", err)
	}
	if from != time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("wrong period start: %s", from)
	}
	if to.Day() != 28 || to.Month() != time.February {
		t.Fatalf("period must end on the last day of the month, got %s", to)
	}

	if _, _, err := MonthPeriod(2026, 13); err == nil || !utils.IsValidationError(err) {
		t.Fatalf("month 13 must be a validation error, got %v", err)
	}
	if _, _, err := MonthPeriod(1999, 6); err == nil || !utils.IsValidationError(err) {
		t.Fatalf("out-of-range year must be a validation error, got %v", err)
	}
}
