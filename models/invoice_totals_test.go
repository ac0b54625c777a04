package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the pure
// document math and lifecycle rules; DB-backed flows need MySQL and belong
// in an integration environment.

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestComputeInvoiceTotals_MixedRates(t *testing.T) {
	items, subtotal, tax, total := ComputeInvoiceTotals([]NewInvoiceLineItem{
		{Description: "widgets", Quantity: d("2"), UnitPrice: d("100"), TaxRate: d("18")},
		{Description: "delivery", Quantity: d("1"), UnitPrice: d("50"), TaxRate: d("0")},
	})

	if len(items) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(items))
	}
	if !subtotal.Equal(d("250")) {
		t.Fatalf("subtotal: expected 250, got %s", subtotal)
	}
	if !tax.Equal(d("36")) {
		t.Fatalf("tax: expected 36, got %s", tax)
	}
	if !total.Equal(d("286")) {
		t.Fatalf("total: expected 286, got %s", total)
	}
	if !items[0].LineAmount.Equal(d("200")) || !items[0].LineTax.Equal(d("36")) {
		t.Fatalf("line 0: got amount=%s tax=%s", items[0].LineAmount, items[0].LineTax)
	}
	if !items[1].LineTax.IsZero() {
		t.Fatalf("zero-rate line must carry no tax, got %s", items[1].LineTax)
	}
}

func TestComputeInvoiceTotals_RoundsToCents(t *testing.T) {
	_, subtotal, tax, total := ComputeInvoiceTotals([]NewInvoiceLineItem{
		{Description: "odd price", Quantity: d("3"), UnitPrice: d("9.99"), TaxRate: d("18")},
	})
	if !subtotal.Equal(d("29.97")) {
		t.Fatalf("subtotal: expected 29.97, got %s", subtotal)
	}
	// 29.97 * 18% = 5.3946 -> 5.39
	if !tax.Equal(d("5.39")) {
		t.Fatalf("tax: expected 5.39, got %s", tax)
	}
	if !total.Equal(subtotal.Add(tax)) {
		t.Fatalf("total must be subtotal+tax, got %s", total)
	}
}

func TestComputeInvoiceTotals_TaxIsAdditive(t *testing.T) {
	// Totals always decompose back into subtotal + tax, never inclusive.
	for i := 1; i < 50; i++ {
		qty := decimal.NewFromInt(int64(i))
		price := decimal.NewFromInt(int64(i * 7)).Div(decimal.NewFromInt(3)).Round(4)
		_, subtotal, tax, total := ComputeInvoiceTotals([]NewInvoiceLineItem{
			{Description: "x", Quantity: qty, UnitPrice: price, TaxRate: d("18")},
		})
		if !total.Equal(subtotal.Add(tax)) {
			t.Fatalf("i=%d: total %s != subtotal %s + tax %s", i, total, subtotal, tax)
		}
	}
}

func TestNewInvoiceValidate(t *testing.T) {
	base := func() NewInvoice {
		return NewInvoice{
			CustomerRef: "ACME Traders",
			InvoiceDate: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			LineItems: []NewInvoiceLineItem{
				{Description: "widgets", Quantity: d("1"), UnitPrice: d("100"), TaxRate: d("18")},
			},
		}
	}

	good := base()
	if err := good.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	noRef := base()
	noRef.CustomerRef = "  "
	if err := noRef.Validate(); err == nil {
		t.Fatal("blank customer ref accepted")
	}

	noItems := base()
	noItems.LineItems = nil
	if err := noItems.Validate(); err == nil {
		t.Fatal("empty line items accepted")
	}

	zeroQty := base()
	zeroQty.LineItems[0].Quantity = d("0")
	if err := zeroQty.Validate(); err == nil {
		t.Fatal("zero quantity accepted")
	}

	negPrice := base()
	negPrice.LineItems[0].UnitPrice = d("-1")
	if err := negPrice.Validate(); err == nil {
		t.Fatal("negative unit price accepted")
	}

	badRate := base()
	badRate.LineItems[0].TaxRate = d("101")
	if err := badRate.Validate(); err == nil {
		t.Fatal("tax rate over 100 accepted")
	}
}
