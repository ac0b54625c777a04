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

type Invoice struct {
	ID            int               `gorm:"primary_key" json:"id"`
	BusinessId    string            `gorm:"size:64;not null;index;index:uniq_invoice_number,unique,priority:1" json:"business_id"`
	InvoiceNumber string            `gorm:"size:255;not null;index:uniq_invoice_number,unique,priority:2" json:"invoice_number"`
	SequenceNo    int64             `gorm:"not null" json:"sequence_no"`
	CustomerRef   string            `gorm:"size:255;not null" json:"customer_ref"`
	InvoiceDate   time.Time         `gorm:"index;not null" json:"invoice_date"`
	LineItems     []InvoiceLineItem `gorm:"foreignKey:InvoiceId" json:"line_items"`
	Subtotal      decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	TaxAmount     decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"tax_amount"`
	TotalAmount   decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	// PaidAmount accumulates settlements; the invoice turns Paid only when
	// the total is fully covered.
	PaidAmount    decimal.Decimal   `gorm:"type:decimal(20,4);default:0" json:"paid_amount"`
	CurrentStatus InvoiceStatus     `gorm:"type:enum('Draft','Issued','Paid','Cancelled');default:'Draft';index" json:"current_status"`
	// DraftKind is set while CurrentStatus is Draft and cleared on issue:
	// 'intentional' drafts were asked for, 'incomplete' ones were left behind
	// by a failed issue and are safe to resume.
	DraftKind *InvoiceDraftKind `gorm:"type:enum('intentional','incomplete')" json:"draft_kind"`
	IssuedAt  *time.Time        `json:"issued_at"`
	CreatedAt time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type InvoiceLineItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	InvoiceId   int             `gorm:"index;not null" json:"invoice_id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
	LineAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_amount"`
	LineTax     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"line_tax"`
}

type NewInvoice struct {
	CustomerRef string               `json:"customer_ref" binding:"required"`
	InvoiceDate time.Time            `json:"invoice_date" binding:"required"`
	LineItems   []NewInvoiceLineItem `json:"line_items" binding:"required"`
	SaveAsDraft bool                 `json:"save_as_draft"`
}

type NewInvoiceLineItem struct {
	Description string          `json:"description" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate" binding:"taxrate"`
}

func (obj Invoice) GetId() int {
	return obj.ID
}

// Validate rejects bad input before any write.
func (input *NewInvoice) Validate() error {
	if strings.TrimSpace(input.CustomerRef) == "" {
		return utils.NewValidationError("customer_ref", "customer reference is required")
	}
	if input.InvoiceDate.IsZero() {
		return utils.NewValidationError("invoice_date", "invoice date is required")
	}
	if len(input.LineItems) == 0 {
		return utils.NewValidationError("line_items", "at least one line item is required")
	}
	for _, item := range input.LineItems {
		if strings.TrimSpace(item.Description) == "" {
			return utils.NewValidationError("line_items", "item description is required")
		}
		if !item.Quantity.IsPositive() {
			return utils.NewValidationError("line_items", "quantity must be greater than zero")
		}
		if item.UnitPrice.IsNegative() {
			return utils.NewValidationError("line_items", "unit price must not be negative")
		}
		if !utils.ValidTaxRate(item.TaxRate) {
			return utils.NewValidationError("line_items", "tax rate must be between 0 and 100")
		}
	}
	return nil
}

// ComputeInvoiceTotals derives line amounts and the invoice totals. Unit
// prices are tax-exclusive; tax is additive, never inclusive.
func ComputeInvoiceTotals(input []NewInvoiceLineItem) ([]InvoiceLineItem, decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	items := make([]InvoiceLineItem, 0, len(input))
	subtotal := decimal.Zero
	taxAmount := decimal.Zero
	for _, in := range input {
		lineAmount := utils.CalculateLineAmount(in.Quantity, in.UnitPrice)
		lineTax := utils.CalculateTaxAmount(lineAmount, in.TaxRate)
		subtotal = subtotal.Add(lineAmount)
		taxAmount = taxAmount.Add(lineTax)
		items = append(items, InvoiceLineItem{
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			LineAmount:  lineAmount,
			LineTax:     lineTax,
		})
	}
	return items, subtotal, taxAmount, subtotal.Add(taxAmount)
}

func GetInvoice(ctx context.Context, id int) (*Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Invoice](ctx, businessId, id, "LineItems")
}

func GetInvoices(ctx context.Context, status *InvoiceStatus, fromDate, toDate *time.Time) ([]*Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Preload("LineItems").Where("business_id = ?", businessId)
	if status != nil && *status != "" {
		dbCtx = dbCtx.Where("current_status = ?", *status)
	}
	if fromDate != nil && toDate != nil {
		dbCtx = dbCtx.Where("invoice_date BETWEEN ? AND ?", fromDate, toDate)
	}
	var results []*Invoice
	if err := dbCtx.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteDraftInvoice removes a draft and its line items. Anything past Draft
// is immutable here; issued invoices are cancelled with a reversal instead.
func DeleteDraftInvoice(ctx context.Context, id int) (*Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}

	invoice, err := utils.FetchModel[Invoice](ctx, businessId, id, "LineItems")
	if err != nil {
		return nil, err
	}
	if invoice.CurrentStatus != InvoiceStatusDraft {
		return nil, utils.NewConflictError("only draft invoices can be deleted")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := tx.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Delete(&InvoiceLineItem{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Delete(invoice).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return invoice, nil
}
