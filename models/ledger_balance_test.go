package models

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
)

func entry(code string, debit, credit string) LedgerEntry {
	return LedgerEntry{AccountCode: code, Debit: d(debit), Credit: d(credit)}
}

func TestValidateBalanced_AcceptsBalancedSets(t *testing.T) {
	cases := [][]LedgerEntry{
		{
			entry(AccountCodeAccountsReceivable, "118", "0"),
			entry(AccountCodeSales, "0", "100"),
			entry(AccountCodeGSTOutput, "0", "18"),
		},
		{
			entry(AccountCodeBank, "286", "0"),
			entry(AccountCodeAccountsReceivable, "0", "286"),
		},
	}
	for i, entries := range cases {
		if err := ValidateBalanced(entries); err != nil {
			t.Fatalf("case %d: balanced set rejected: %v", i, err)
		}
	}
}

func TestValidateBalanced_RejectsUnbalanced(t *testing.T) {
	err := ValidateBalanced([]LedgerEntry{
		entry(AccountCodeAccountsReceivable, "118", "0"),
		entry(AccountCodeSales, "0", "100"),
	})
	if err == nil {
		t.Fatal("unbalanced set accepted")
	}
}

func TestValidateBalanced_RejectsTooFewEntries(t *testing.T) {
	if err := ValidateBalanced(nil); err == nil {
		t.Fatal("empty entry set accepted")
	}
	if err := ValidateBalanced([]LedgerEntry{entry(AccountCodeBank, "10", "0")}); err == nil {
		t.Fatal("single-entry set accepted")
	}
}

func TestValidateBalanced_RejectsTwoSidedEntry(t *testing.T) {
	err := ValidateBalanced([]LedgerEntry{
		{AccountCode: AccountCodeBank, Debit: d("10"), Credit: d("10")},
		entry(AccountCodeSales, "0", "0"),
	})
	if err == nil {
		t.Fatal("entry with both sides set accepted")
	}
}

func TestValidateBalanced_RejectsNegativeAmounts(t *testing.T) {
	err := ValidateBalanced([]LedgerEntry{
		entry(AccountCodeBank, "-10", "0"),
		entry(AccountCodeSales, "0", "-10"),
	})
	if err == nil {
		t.Fatal("negative amounts accepted")
	}
}

func TestValidateBalanced_Property_SplitDebitsAlwaysBalance(t *testing.T) {
	// Any total split across random debit legs against one credit leg
	// must validate, whatever the split.
	rng := rand.New(rand.NewSource(42))
	for run := 0; run < 200; run++ {
		totalCents := rng.Int63n(1_000_000) + 2
		legs := rng.Intn(5) + 1
		remaining := totalCents
		var entries []LedgerEntry
		for i := 0; i < legs; i++ {
			var cents int64
			if i == legs-1 {
				cents = remaining
			} else {
				cents = rng.Int63n(remaining-int64(legs-i-1)) + 1
				remaining -= cents
			}
			entries = append(entries, LedgerEntry{
				AccountCode: AccountCodeAccountsReceivable,
				Debit:       decimal.New(cents, -2),
				Credit:      decimal.Zero,
			})
		}
		entries = append(entries, LedgerEntry{
			AccountCode: AccountCodeSales,
			Debit:       decimal.Zero,
			Credit:      decimal.New(totalCents, -2),
		})
		if err := ValidateBalanced(entries); err != nil {
			t.Fatalf("run=%d: split of %d cents across %d legs rejected: %v", run, totalCents, legs, err)
		}
	}
}
