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

// Expense is a purchase-side document. Its GST goes to the input credit,
// which nets against output tax in the GST summary.
type Expense struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"size:64;not null;index;index:uniq_expense_number,unique,priority:1" json:"business_id"`
	ExpenseNumber string          `gorm:"size:255;not null;index:uniq_expense_number,unique,priority:2" json:"expense_number"`
	SequenceNo    int64           `gorm:"not null" json:"sequence_no"`
	VendorRef     string          `gorm:"size:255;not null" json:"vendor_ref"`
	ExpenseDate   time.Time       `gorm:"index;not null" json:"expense_date"`
	Description   string          `gorm:"size:255" json:"description"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	TaxRate       decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	TaxAmount     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	// Paid expenses hit the bank/cash account; unpaid ones accrue to AP.
	Paid      bool          `gorm:"not null;default:true" json:"paid"`
	Method    PaymentMethod `gorm:"type:enum('cash','bank_transfer','cheque','card','upi');default:'bank_transfer'" json:"method"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewExpense struct {
	VendorRef   string          `json:"vendor_ref" binding:"required"`
	ExpenseDate time.Time       `json:"expense_date" binding:"required"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	TaxRate     decimal.Decimal `json:"tax_rate" binding:"taxrate"`
	Paid        *bool           `json:"paid"`
	Method      PaymentMethod   `json:"method"`
}

func (obj Expense) GetId() int {
	return obj.ID
}

func (input *NewExpense) Validate() error {
	if strings.TrimSpace(input.VendorRef) == "" {
		return utils.NewValidationError("vendor_ref", "vendor reference is required")
	}
	if input.ExpenseDate.IsZero() {
		return utils.NewValidationError("expense_date", "expense date is required")
	}
	if !input.Amount.IsPositive() {
		return utils.NewValidationError("amount", "amount must be greater than zero")
	}
	if !utils.ValidTaxRate(input.TaxRate) {
		return utils.NewValidationError("tax_rate", "tax rate must be between 0 and 100")
	}
	if input.Method != "" && !input.Method.Valid() {
		return utils.NewValidationError("method", "unknown payment method")
	}
	return nil
}

func GetExpense(ctx context.Context, id int) (*Expense, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Expense](ctx, businessId, id)
}

func GetExpenses(ctx context.Context, fromDate, toDate *time.Time) ([]*Expense, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("business_id = ?", businessId)
	if fromDate != nil && toDate != nil {
		dbCtx = dbCtx.Where("expense_date BETWEEN ? AND ?", fromDate, toDate)
	}
	var results []*Expense
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
