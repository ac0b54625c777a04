package workflow

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

// NOTE: These tests are intentionally DB-free. They validate that every
// posting map produces a balanced entry set before it ever reaches the
// database; the unique-index and transaction semantics need MySQL and belong
// in an integration environment.

var testSysAccounts = map[string]int{
	models.AccountCodeBank:               1,
	models.AccountCodeCash:               2,
	models.AccountCodeAccountsReceivable: 3,
	models.AccountCodeAccountsPayable:    4,
	models.AccountCodeSales:              5,
	models.AccountCodePurchases:          6,
	models.AccountCodeSalaryExpense:      7,
	models.AccountCodeGSTOutput:          8,
	models.AccountCodeGSTInput:           9,
	models.AccountCodeGSTPayable:         10,
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func mustBalance(t *testing.T, entries []models.LedgerEntry) {
	t.Helper()
	if err := models.ValidateBalanced(entries); err != nil {
		t.Fatalf("entries do not balance: %v", err)
	}
}

func TestBuildInvoiceIssuanceEntries(t *testing.T) {
	invoice := &models.Invoice{
		Subtotal:    d("250"),
		TaxAmount:   d("36"),
		TotalAmount: d("286"),
	}
	entries := buildInvoiceIssuanceEntries(invoice, testSysAccounts)
	mustBalance(t, entries)
	if len(entries) != 3 {
		t.Fatalf("expected AR + Sales + GST Output, got %d entries", len(entries))
	}
	if entries[0].AccountCode != models.AccountCodeAccountsReceivable || !entries[0].Debit.Equal(d("286")) {
		t.Fatalf("AR leg wrong: %+v", entries[0])
	}
	if entries[1].AccountCode != models.AccountCodeSales || !entries[1].Credit.Equal(d("250")) {
		t.Fatalf("Sales leg wrong: %+v", entries[1])
	}
	if entries[2].AccountCode != models.AccountCodeGSTOutput || !entries[2].Credit.Equal(d("36")) {
		t.Fatalf("GST Output leg wrong: %+v", entries[2])
	}
}

func TestBuildInvoiceIssuanceEntries_ZeroTaxOmitsGSTLeg(t *testing.T) {
	invoice := &models.Invoice{
		Subtotal:    d("100"),
		TaxAmount:   decimal.Zero,
		TotalAmount: d("100"),
	}
	entries := buildInvoiceIssuanceEntries(invoice, testSysAccounts)
	mustBalance(t, entries)
	if len(entries) != 2 {
		t.Fatalf("zero-tax invoice must post only AR and Sales, got %d entries", len(entries))
	}
}

func TestBuildSettlementEntries(t *testing.T) {
	entries := buildSettlementEntries(d("286"), models.PaymentMethodBankTransfer, testSysAccounts)
	mustBalance(t, entries)
	if entries[0].AccountCode != models.AccountCodeBank {
		t.Fatalf("bank transfer must debit the bank account, got %s", entries[0].AccountCode)
	}
	if entries[1].AccountCode != models.AccountCodeAccountsReceivable || !entries[1].Credit.Equal(d("286")) {
		t.Fatalf("settlement must credit AR: %+v", entries[1])
	}

	cashEntries := buildSettlementEntries(d("50"), models.PaymentMethodCash, testSysAccounts)
	mustBalance(t, cashEntries)
	if cashEntries[0].AccountCode != models.AccountCodeCash {
		t.Fatalf("cash settlement must debit the cash account, got %s", cashEntries[0].AccountCode)
	}
}

func TestBuildPaymentMadeEntries(t *testing.T) {
	entries := buildPaymentMadeEntries(d("500"), models.PaymentMethodBankTransfer, testSysAccounts)
	mustBalance(t, entries)
	if entries[0].AccountCode != models.AccountCodeAccountsPayable || !entries[0].Debit.Equal(d("500")) {
		t.Fatalf("payment made must debit AP: %+v", entries[0])
	}
	if entries[1].AccountCode != models.AccountCodeBank || !entries[1].Credit.Equal(d("500")) {
		t.Fatalf("payment made must credit bank: %+v", entries[1])
	}
}

func TestBuildExpenseEntries(t *testing.T) {
	paid := &models.Expense{
		Amount:      d("1000"),
		TaxAmount:   d("180"),
		TotalAmount: d("1180"),
		Paid:        true,
		Method:      models.PaymentMethodBankTransfer,
	}
	entries := buildExpenseEntries(paid, testSysAccounts)
	mustBalance(t, entries)
	if entries[1].AccountCode != models.AccountCodeGSTInput || !entries[1].Debit.Equal(d("180")) {
		t.Fatalf("expense tax must debit GST Input: %+v", entries[1])
	}
	if entries[2].AccountCode != models.AccountCodeBank {
		t.Fatalf("paid expense must credit bank, got %s", entries[2].AccountCode)
	}

	accrued := &models.Expense{
		Amount:      d("200"),
		TaxAmount:   decimal.Zero,
		TotalAmount: d("200"),
		Paid:        false,
	}
	accruedEntries := buildExpenseEntries(accrued, testSysAccounts)
	mustBalance(t, accruedEntries)
	if len(accruedEntries) != 2 {
		t.Fatalf("zero-tax expense must post two legs, got %d", len(accruedEntries))
	}
	if accruedEntries[1].AccountCode != models.AccountCodeAccountsPayable {
		t.Fatalf("unpaid expense must credit AP, got %s", accruedEntries[1].AccountCode)
	}
}

func TestBuildPayrollEntries(t *testing.T) {
	item := &models.PayrollItem{EmployeeName: "Mya", Amount: d("45000")}
	entries := buildPayrollEntries(item, testSysAccounts)
	mustBalance(t, entries)
	if entries[0].AccountCode != models.AccountCodeSalaryExpense || !entries[0].Debit.Equal(d("45000")) {
		t.Fatalf("payroll must debit salary expense per employee: %+v", entries[0])
	}
	if entries[1].AccountCode != models.AccountCodeBank || !entries[1].Credit.Equal(d("45000")) {
		t.Fatalf("payroll must credit bank per employee: %+v", entries[1])
	}
}

func TestBuildUnlinkedReceiptEntries(t *testing.T) {
	entries := buildUnlinkedReceiptEntries(d("100"), models.PaymentMethodBankTransfer, testSysAccounts)
	mustBalance(t, entries)
	if entries[0].AccountCode != models.AccountCodeBank || !entries[0].Debit.Equal(d("100")) {
		t.Fatalf("unlinked receipt must debit bank: %+v", entries[0])
	}
	if entries[1].AccountCode != models.AccountCodeSales || !entries[1].Credit.Equal(d("100")) {
		t.Fatalf("unlinked receipt must credit sales: %+v", entries[1])
	}

	cashEntries := buildUnlinkedReceiptEntries(d("75.50"), models.PaymentMethodCash, testSysAccounts)
	mustBalance(t, cashEntries)
	if cashEntries[0].AccountCode != models.AccountCodeCash {
		t.Fatalf("cash receipt must debit the cash account, got %s", cashEntries[0].AccountCode)
	}
}

func TestApplySettlement(t *testing.T) {
	invoice := &models.Invoice{
		TotalAmount:   d("286"),
		PaidAmount:    decimal.Zero,
		CurrentStatus: models.InvoiceStatusIssued,
	}

	newPaid, covered, err := applySettlement(invoice, d("100"))
	if err != nil {
		t.Fatalf("partial settlement rejected: %v", err)
	}
	if !newPaid.Equal(d("100")) || covered {
		t.Fatalf("partial settlement must accumulate without covering: paid=%s covered=%v", newPaid, covered)
	}

	invoice.PaidAmount = newPaid
	newPaid, covered, err = applySettlement(invoice, d("186"))
	if err != nil {
		t.Fatalf("final settlement rejected: %v", err)
	}
	if !covered || !newPaid.Equal(d("286")) {
		t.Fatalf("full coverage must flip to covered: paid=%s covered=%v", newPaid, covered)
	}

	if _, _, err := applySettlement(invoice, d("0.01")); err == nil || !utils.IsValidationError(err) {
		t.Fatalf("overpayment past the remaining balance must be a validation error, got %v", err)
	}
}

func TestApplySettlement_SecondFullSettlementErrors(t *testing.T) {
	invoice := &models.Invoice{
		TotalAmount:   d("286"),
		PaidAmount:    d("286"),
		CurrentStatus: models.InvoiceStatusPaid,
	}
	if _, _, err := applySettlement(invoice, d("286")); err == nil || !utils.IsConflictError(err) {
		t.Fatalf("settling an already paid invoice must conflict, got %v", err)
	}

	draft := &models.Invoice{
		TotalAmount:   d("100"),
		CurrentStatus: models.InvoiceStatusDraft,
	}
	if _, _, err := applySettlement(draft, d("100")); err == nil || !utils.IsConflictError(err) {
		t.Fatalf("settling a draft must conflict, got %v", err)
	}
}

func TestPostingMaps_Property_AlwaysBalanced(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 300; run++ {
		subtotalCents := rng.Int63n(10_000_000) + 1
		subtotal := decimal.New(subtotalCents, -2)
		tax := subtotal.Mul(d("0.18")).Round(2)

		invoice := &models.Invoice{
			Subtotal:    subtotal,
			TaxAmount:   tax,
			TotalAmount: subtotal.Add(tax),
		}
		mustBalance(t, buildInvoiceIssuanceEntries(invoice, testSysAccounts))
		mustBalance(t, buildSettlementEntries(subtotal, models.PaymentMethodUPI, testSysAccounts))
		mustBalance(t, buildPaymentMadeEntries(subtotal, models.PaymentMethodCash, testSysAccounts))

		expense := &models.Expense{
			Amount:      subtotal,
			TaxAmount:   tax,
			TotalAmount: subtotal.Add(tax),
			Paid:        run%2 == 0,
			Method:      models.PaymentMethodBankTransfer,
		}
		mustBalance(t, buildExpenseEntries(expense, testSysAccounts))
	}
}
