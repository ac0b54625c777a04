package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestCalculateTaxAmount(t *testing.T) {
	if got := CalculateTaxAmount(d("200"), d("18")); !got.Equal(d("36")) {
		t.Fatalf("expected 36, got %s", got)
	}
	if got := CalculateTaxAmount(d("29.97"), d("18")); !got.Equal(d("5.39")) {
		t.Fatalf("expected 5.39, got %s", got)
	}
	if got := CalculateTaxAmount(d("100"), d("0")); !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
}

func TestCalculateLineAmount(t *testing.T) {
	if got := CalculateLineAmount(d("3"), d("9.99")); !got.Equal(d("29.97")) {
		t.Fatalf("expected 29.97, got %s", got)
	}
	if got := CalculateLineAmount(d("1.5"), d("10.333")); !got.Equal(d("15.50")) {
		t.Fatalf("expected 15.50, got %s", got)
	}
}

func TestValidTaxRate(t *testing.T) {
	for _, rate := range []string{"0", "5", "18", "100"} {
		if !ValidTaxRate(d(rate)) {
			t.Fatalf("rate %s should be valid", rate)
		}
	}
	for _, rate := range []string{"-1", "100.01", "200"} {
		if ValidTaxRate(d(rate)) {
			t.Fatalf("rate %s should be invalid", rate)
		}
	}
}

func TestErrorTaxonomyMatching(t *testing.T) {
	verr := NewValidationError("amount", "must be positive")
	if !IsValidationError(verr) {
		t.Fatal("validation error not recognized")
	}
	if !IsValidationError(fmt.Errorf("outer: %w", verr)) {
		t.Fatal("wrapped validation error not recognized")
	}
	if IsConflictError(verr) {
		t.Fatal("validation error misclassified as conflict")
	}

	cerr := NewConflictError("already posted")
	if !IsConflictError(cerr) {
		t.Fatal("conflict error not recognized")
	}

	perr := &PartialFailureError{Op: "create_invoice", CompletedStep: "draft_saved", Err: cerr}
	if !IsPartialFailureError(perr) {
		t.Fatal("partial failure not recognized")
	}
	// The cause stays reachable through Unwrap.
	if !errors.Is(perr, cerr) && !IsConflictError(perr) {
		t.Fatal("partial failure must expose its cause")
	}

	denied := &CapabilityDeniedError{Capability: "create_invoice", Reason: "trial expired"}
	if !IsCapabilityDeniedError(denied) {
		t.Fatal("capability denial not recognized")
	}
}
