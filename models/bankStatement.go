package models

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

// BankStatementLine is one imported row of a bank statement. The fingerprint
// dedupes re-imports of overlapping statement files.
type BankStatementLine struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BusinessId  string          `gorm:"size:64;not null;index;index:uniq_stmt_fingerprint,unique,priority:1" json:"business_id"`
	LineDate    time.Time       `gorm:"index;not null" json:"line_date"`
	Amount      decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	Description string          `gorm:"size:255" json:"description"`
	// Reference is the bank's own transaction reference (UTR, cheque no).
	Reference   string `gorm:"size:255" json:"reference"`
	Fingerprint string `gorm:"size:64;not null;index:uniq_stmt_fingerprint,unique,priority:2" json:"fingerprint"`
	// Matched flips once when reconciliation pairs this line with a payment.
	Matched          bool      `gorm:"not null;default:false;index" json:"matched"`
	MatchedPaymentId *int      `gorm:"index" json:"matched_payment_id"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBankStatementLine struct {
	LineDate    time.Time       `json:"line_date" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
}

func (obj BankStatementLine) GetId() int {
	return obj.ID
}

func (input *NewBankStatementLine) Validate() error {
	if input.LineDate.IsZero() {
		return utils.NewValidationError("line_date", "line date is required")
	}
	if input.Amount.IsZero() {
		return utils.NewValidationError("amount", "amount must not be zero")
	}
	return nil
}

// ComputeStatementFingerprint hashes the identifying content of a statement
// line. Equal lines from overlapping exports collapse to the same value; the
// bank reference keeps two same-day, same-amount transfers apart.
func ComputeStatementFingerprint(lineDate time.Time, amount decimal.Decimal, reference, description string) string {
	normalize := func(s string) string { return strings.TrimSpace(strings.ToLower(s)) }
	payload := lineDate.UTC().Format("2006-01-02") + "|" + amount.Round(2).String() + "|" + normalize(reference) + "|" + normalize(description)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func GetBankStatementLine(ctx context.Context, id int) (*BankStatementLine, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[BankStatementLine](ctx, businessId, id)
}

// GetUnmatchedStatementLines lists imported lines still waiting for a match,
// oldest first.
func GetUnmatchedStatementLines(ctx context.Context, businessId string) ([]*BankStatementLine, error) {
	db := config.GetDB()
	var results []*BankStatementLine
	err := db.WithContext(ctx).
		Where("business_id = ? AND matched = false", businessId).
		Order("line_date ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
