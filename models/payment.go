package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

type Payment struct {
	ID            int              `gorm:"primary_key" json:"id"`
	BusinessId    string           `gorm:"size:64;not null;index;index:uniq_payment_number,unique,priority:1" json:"business_id"`
	PaymentNumber string           `gorm:"size:255;not null;index:uniq_payment_number,unique,priority:2" json:"payment_number"`
	SequenceNo    int64            `gorm:"not null" json:"sequence_no"`
	Direction     PaymentDirection `gorm:"type:enum('received','made');not null;index" json:"direction"`
	Method        PaymentMethod    `gorm:"type:enum('cash','bank_transfer','cheque','card','upi');not null" json:"method"`
	Amount        decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"amount"`
	PaymentDate   time.Time        `gorm:"index;not null" json:"payment_date"`
	// PartyName is the counterparty; Reference is the bank narration used
	// for reconciliation ranking.
	PartyName string `gorm:"size:255;not null" json:"party_name"`
	Reference string `gorm:"size:255" json:"reference"`
	// InvoiceId links a received payment to the invoice it settles; payments
	// made carry no invoice.
	InvoiceId     *int          `gorm:"index" json:"invoice_id"`
	CurrentStatus PaymentStatus `gorm:"type:enum('Completed','Void');default:'Completed';index" json:"current_status"`
	// Matched flips once when bank reconciliation consumes this payment.
	Matched                bool      `gorm:"not null;default:false;index" json:"matched"`
	MatchedStatementLineId *int      `gorm:"index" json:"matched_statement_line_id"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewPayment struct {
	Direction   PaymentDirection `json:"direction" binding:"required"`
	Method      PaymentMethod    `json:"method" binding:"required"`
	Amount      decimal.Decimal  `json:"amount" binding:"required"`
	PaymentDate time.Time        `json:"payment_date" binding:"required"`
	PartyName   string           `json:"party_name"`
	Reference   string           `json:"reference"`
	InvoiceId   *int             `json:"invoice_id"`
}

func (obj Payment) GetId() int {
	return obj.ID
}

func (input *NewPayment) Validate() error {
	if !input.Direction.Valid() {
		return utils.NewValidationError("direction", "direction must be received or made")
	}
	if !input.Method.Valid() {
		return utils.NewValidationError("method", "unknown payment method")
	}
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount", "amount must be greater than zero")
	}
	if input.PaymentDate.IsZero() {
		return utils.NewValidationError("payment_date", "payment date is required")
	}
	if strings.TrimSpace(input.PartyName) == "" {
		return utils.NewValidationError("party_name", "party name is required")
	}
	if input.Direction == PaymentDirectionMade && input.InvoiceId != nil {
		return utils.NewValidationError("invoice_id", "payments made cannot reference an invoice")
	}
	return nil
}

func GetPayment(ctx context.Context, id int) (*Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Payment](ctx, businessId, id)
}

func GetPayments(ctx context.Context, direction *PaymentDirection, fromDate, toDate *time.Time) ([]*Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if direction != nil && *direction != "" {
		dbCtx = dbCtx.Where("direction = ?", *direction)
	}
	if fromDate != nil && toDate != nil {
		dbCtx = dbCtx.Where("payment_date BETWEEN ? AND ?", fromDate, toDate)
	}
	var results []*Payment
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetUnmatchedPayments returns completed payments still open for bank
// reconciliation, oldest first.
func GetUnmatchedPayments(ctx context.Context, businessId string) ([]*Payment, error) {
	db := config.GetDB()
	var results []*Payment
	err := db.WithContext(ctx).
		Where("business_id = ? AND matched = false AND current_status = ?", businessId, PaymentStatusCompleted).
		Order("payment_date ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ReferenceSimilarity is a crude token overlap score between a payment
// reference and a statement line description, used to rank candidates that
// tie on amount and date.
func ReferenceSimilarity(reference, description string) int {
	if reference == "" || description == "" {
		return 0
	}
	descWords := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(description)) {
		descWords[w] = true
	}
	score := 0
	for _, w := range strings.Fields(strings.ToLower(reference)) {
		if descWords[w] {
			score++
		}
	}
	return score
}
