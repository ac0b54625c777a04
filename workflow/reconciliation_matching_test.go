package workflow

import (
	"testing"
	"time"

	"github.com/suvidhaworks/bizbooks_backend/models"
)

func day(dayOfMonth int) time.Time {
	return time.Date(2026, 4, dayOfMonth, 0, 0, 0, 0, time.UTC)
}

func TestRankCandidates_ExactAmountOnly(t *testing.T) {
	line := &models.BankStatementLine{
		LineDate:    day(10),
		Amount:      d("1250.00"),
		Description: "NEFT ACME TRADERS",
	}
	payments := []*models.Payment{
		{ID: 1, Direction: models.PaymentDirectionReceived, Amount: d("1250.00"), PaymentDate: day(9)},
		{ID: 2, Direction: models.PaymentDirectionReceived, Amount: d("1250.01"), PaymentDate: day(10)},
		{ID: 3, Direction: models.PaymentDirectionReceived, Amount: d("1249.99"), PaymentDate: day(10)},
		{ID: 4, Direction: models.PaymentDirectionReceived, Amount: d("1250"), PaymentDate: day(20)},
	}

	candidates := rankCandidates(line, payments)
	if len(candidates) != 2 {
		t.Fatalf("expected exactly the two 1250.00 payments, got %d candidates", len(candidates))
	}
	for _, c := range candidates {
		if c.Payment.ID == 2 || c.Payment.ID == 3 {
			t.Fatalf("near-miss amount suggested: payment %d", c.Payment.ID)
		}
	}
}

func TestRankCandidates_OrdersByDateThenReference(t *testing.T) {
	line := &models.BankStatementLine{
		LineDate:    day(10),
		Amount:      d("500"),
		Description: "IMPS ACME APRIL",
	}
	payments := []*models.Payment{
		{ID: 1, Direction: models.PaymentDirectionReceived, Amount: d("500"), PaymentDate: day(2), Reference: "ACME APRIL"},
		{ID: 2, Direction: models.PaymentDirectionReceived, Amount: d("500"), PaymentDate: day(9), Reference: "other"},
		{ID: 3, Direction: models.PaymentDirectionReceived, Amount: d("500"), PaymentDate: day(11), Reference: "ACME APRIL"},
	}

	candidates := rankCandidates(line, payments)
	if len(candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(candidates))
	}
	// 2 and 3 tie on date delta (1 day); 3 wins on reference overlap.
	if candidates[0].Payment.ID != 3 {
		t.Fatalf("expected payment 3 first, got %d", candidates[0].Payment.ID)
	}
	if candidates[1].Payment.ID != 2 {
		t.Fatalf("expected payment 2 second, got %d", candidates[1].Payment.ID)
	}
	if candidates[2].Payment.ID != 1 {
		t.Fatalf("expected payment 1 last, got %d", candidates[2].Payment.ID)
	}
}

func TestRankCandidates_UsesBankReferenceField(t *testing.T) {
	line := &models.BankStatementLine{
		LineDate:  day(10),
		Amount:    d("500"),
		Reference: "UTR ACME APRIL",
	}
	payments := []*models.Payment{
		{ID: 1, Direction: models.PaymentDirectionReceived, Amount: d("500"), PaymentDate: day(10), Reference: "other"},
		{ID: 2, Direction: models.PaymentDirectionReceived, Amount: d("500"), PaymentDate: day(10), Reference: "ACME APRIL"},
	}

	candidates := rankCandidates(line, payments)
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	// Same date delta; the line's bank reference alone must break the tie.
	if candidates[0].Payment.ID != 2 || candidates[0].ReferenceHits != 2 {
		t.Fatalf("expected payment 2 first with 2 hits, got payment %d with %d hits",
			candidates[0].Payment.ID, candidates[0].ReferenceHits)
	}
}

func TestRankCandidates_NegativeLineMatchesPaymentsMade(t *testing.T) {
	line := &models.BankStatementLine{
		LineDate:    day(5),
		Amount:      d("-900"),
		Description: "CHQ 10021 OFFICE SUPPLIES",
	}
	payments := []*models.Payment{
		{ID: 1, Direction: models.PaymentDirectionReceived, Amount: d("900"), PaymentDate: day(5)},
		{ID: 2, Direction: models.PaymentDirectionMade, Amount: d("900"), PaymentDate: day(5), Reference: "CHQ 10021"},
	}

	candidates := rankCandidates(line, payments)
	if len(candidates) != 1 {
		t.Fatalf("expected only the outgoing payment, got %d candidates", len(candidates))
	}
	if candidates[0].Payment.ID != 2 {
		t.Fatalf("expected payment 2, got %d", candidates[0].Payment.ID)
	}
	if candidates[0].ReferenceHits != 2 {
		t.Fatalf("expected 2 reference hits, got %d", candidates[0].ReferenceHits)
	}
}
