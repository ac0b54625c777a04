package models

import (
	"testing"
	"time"
)

func TestInvoiceStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to InvoiceStatus
	}{
		{InvoiceStatusDraft, InvoiceStatusIssued},
		{InvoiceStatusDraft, InvoiceStatusCancelled},
		{InvoiceStatusIssued, InvoiceStatusPaid},
		{InvoiceStatusIssued, InvoiceStatusCancelled},
	}
	for _, c := range allowed {
		if !c.from.CanTransitionTo(c.to) {
			t.Fatalf("%s -> %s should be allowed", c.from, c.to)
		}
	}

	forbidden := []struct {
		from, to InvoiceStatus
	}{
		{InvoiceStatusDraft, InvoiceStatusPaid},
		{InvoiceStatusIssued, InvoiceStatusDraft},
		{InvoiceStatusPaid, InvoiceStatusIssued},
		{InvoiceStatusPaid, InvoiceStatusCancelled},
		{InvoiceStatusCancelled, InvoiceStatusIssued},
		{InvoiceStatusCancelled, InvoiceStatusDraft},
	}
	for _, c := range forbidden {
		if c.from.CanTransitionTo(c.to) {
			t.Fatalf("%s -> %s should be rejected", c.from, c.to)
		}
	}
}

func TestPayrollRunStatusTransitions(t *testing.T) {
	if !PayrollRunStatusDraft.CanTransitionTo(PayrollRunStatusLocked) {
		t.Fatal("Draft -> Locked should be allowed")
	}
	if !PayrollRunStatusLocked.CanTransitionTo(PayrollRunStatusPaid) {
		t.Fatal("Locked -> Paid should be allowed")
	}
	if PayrollRunStatusDraft.CanTransitionTo(PayrollRunStatusPaid) {
		t.Fatal("Draft -> Paid must pass through Locked")
	}
	if PayrollRunStatusLocked.CanTransitionTo(PayrollRunStatusDraft) {
		t.Fatal("a locked run never goes back to Draft")
	}
	if PayrollRunStatusPaid.CanTransitionTo(PayrollRunStatusDraft) ||
		PayrollRunStatusPaid.CanTransitionTo(PayrollRunStatusLocked) {
		t.Fatal("Paid is terminal")
	}
}

func TestPaymentMethodAssetAccountCode(t *testing.T) {
	if PaymentMethodCash.AssetAccountCode() != AccountCodeCash {
		t.Fatal("cash payments must move the cash account")
	}
	for _, m := range []PaymentMethod{PaymentMethodBankTransfer, PaymentMethodCheque, PaymentMethodCard, PaymentMethodUPI} {
		if m.AssetAccountCode() != AccountCodeBank {
			t.Fatalf("%s payments must move the bank account", m)
		}
	}
}

func TestIsGSTAccountCode(t *testing.T) {
	for _, code := range []string{AccountCodeGSTOutput, AccountCodeGSTInput, AccountCodeGSTPayable} {
		if !IsGSTAccountCode(code) {
			t.Fatalf("%s is a GST control account", code)
		}
	}
	for _, code := range []string{AccountCodeSales, AccountCodePurchases, AccountCodeSalaryExpense, AccountCodeBank} {
		if IsGSTAccountCode(code) {
			t.Fatalf("%s is not a GST control account", code)
		}
	}
}

func TestComputeStatementFingerprint(t *testing.T) {
	date := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)

	a := ComputeStatementFingerprint(date, d("1250.00"), "UTR001", "NEFT ACME TRADERS")
	b := ComputeStatementFingerprint(date, d("1250"), " utr001 ", "  neft acme traders ")
	if a != b {
		t.Fatal("fingerprint must normalize amount scale, case and whitespace")
	}

	other := ComputeStatementFingerprint(date.AddDate(0, 0, 1), d("1250.00"), "UTR001", "NEFT ACME TRADERS")
	if a == other {
		t.Fatal("different dates must not collide")
	}
	otherAmount := ComputeStatementFingerprint(date, d("1250.01"), "UTR001", "NEFT ACME TRADERS")
	if a == otherAmount {
		t.Fatal("different amounts must not collide")
	}
	otherRef := ComputeStatementFingerprint(date, d("1250.00"), "UTR002", "NEFT ACME TRADERS")
	if a == otherRef {
		t.Fatal("same-day same-amount lines with different bank references must not collide")
	}
}

func TestNewPaymentValidate_RequiresPartyName(t *testing.T) {
	input := &NewPayment{
		Direction:   PaymentDirectionReceived,
		Method:      PaymentMethodBankTransfer,
		Amount:      d("100"),
		PaymentDate: time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
	}
	if input.Validate() == nil {
		t.Fatal("payment without a party name must be rejected")
	}
	input.PartyName = "   "
	if input.Validate() == nil {
		t.Fatal("whitespace-only party name must be rejected")
	}
	input.PartyName = "Acme Traders"
	if err := input.Validate(); err != nil {
		t.Fatalf("valid payment rejected: %v", err)
	}
}

func TestReferenceSimilarity(t *testing.T) {
	if ReferenceSimilarity("NEFT ACME", "neft acme traders payout") != 2 {
		t.Fatal("expected two overlapping tokens")
	}
	if ReferenceSimilarity("", "anything") != 0 {
		t.Fatal("empty reference scores zero")
	}
	if ReferenceSimilarity("chq 10021", "salary batch") != 0 {
		t.Fatal("disjoint tokens score zero")
	}
}
