package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

// buildInvoiceIssuanceEntries is the posting map for an issued invoice:
// debit Accounts Receivable for the total, credit Sales for the subtotal,
// credit GST Output for the tax collected.
func buildInvoiceIssuanceEntries(invoice *models.Invoice, sysAccounts map[string]int) []models.LedgerEntry {
	entries := []models.LedgerEntry{
		{
			AccountId:   sysAccounts[models.AccountCodeAccountsReceivable],
			AccountCode: models.AccountCodeAccountsReceivable,
			Debit:       invoice.TotalAmount,
			Credit:      decimal.Zero,
		},
		{
			AccountId:   sysAccounts[models.AccountCodeSales],
			AccountCode: models.AccountCodeSales,
			Debit:       decimal.Zero,
			Credit:      invoice.Subtotal,
		},
	}
	if invoice.TaxAmount.IsPositive() {
		entries = append(entries, models.LedgerEntry{
			AccountId:   sysAccounts[models.AccountCodeGSTOutput],
			AccountCode: models.AccountCodeGSTOutput,
			Debit:       decimal.Zero,
			Credit:      invoice.TaxAmount,
		})
	}
	return entries
}

// CreateInvoice validates, checks the tenant's plan, then persists the draft
// and issues it. The draft commit and the issue posting are separate
// transactions on purpose: a failed issue leaves an 'incomplete' draft behind
// instead of losing the operator's input, and the caller gets a partial
// failure error naming the completed step.
func CreateInvoice(ctx context.Context, logger *logrus.Logger, input *models.NewInvoice, idempotencyKey string) (*models.Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	if err := models.CheckInvoiceCapability(ctx); err != nil {
		return nil, err
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	items, subtotal, taxAmount, totalAmount := models.ComputeInvoiceTotals(input.LineItems)

	draftKind := models.InvoiceDraftKindIncomplete
	if input.SaveAsDraft {
		draftKind = models.InvoiceDraftKindIntentional
	}

	db := config.GetDB()
	tx := db.Begin()

	if idempotencyKey != "" {
		replay, resultId, err := BeginIdempotency(tx, businessId, "create_invoice", idempotencyKey)
		if err != nil {
			tx.Rollback()
			config.LogError(logger, "invoiceWorkflow.go", "CreateInvoice", "BeginIdempotency", idempotencyKey, err)
			return nil, err
		}
		if replay {
			tx.Rollback()
			if resultId == nil {
				return nil, utils.NewConflictError("duplicate invoice request")
			}
			return models.GetInvoice(ctx, *resultId)
		}
	}

	sequenceNo, err := utils.GetSequence[models.Invoice](ctx, businessId)
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "invoiceWorkflow.go", "CreateInvoice", "GetSequence", businessId, err)
		return nil, err
	}

	invoice := models.Invoice{
		BusinessId:    businessId,
		InvoiceNumber: fmt.Sprintf("INV-%06d", sequenceNo),
		SequenceNo:    sequenceNo,
		CustomerRef:   input.CustomerRef,
		InvoiceDate:   input.InvoiceDate,
		LineItems:     items,
		Subtotal:      subtotal,
		TaxAmount:     taxAmount,
		TotalAmount:   totalAmount,
		PaidAmount:    decimal.Zero,
		CurrentStatus: models.InvoiceStatusDraft,
		DraftKind:     &draftKind,
	}
	if err := tx.WithContext(ctx).Create(&invoice).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewConflictError("invoice number already exists")
		}
		config.LogError(logger, "invoiceWorkflow.go", "CreateInvoice", "Create", invoice, err)
		return nil, err
	}
	if idempotencyKey != "" {
		if err := MarkIdempotencySucceeded(tx, businessId, "create_invoice", idempotencyKey, invoice.ID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if input.SaveAsDraft {
		return &invoice, nil
	}

	issued, err := IssueInvoice(ctx, logger, invoice.ID)
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "CreateInvoice", "IssueInvoice", invoice.ID, err)
		return &invoice, &utils.PartialFailureError{
			Op:            "create_invoice",
			CompletedStep: "draft_saved",
			Err:           err,
		}
	}
	return issued, nil
}

// IssueInvoice moves a draft to Issued and posts the issuance in one
// database transaction; status and ledger can never disagree. Re-running it
// on an incomplete draft is the recovery path for a failed create.
func IssueInvoice(ctx context.Context, logger *logrus.Logger, invoiceId int) (*models.Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	invoice, err := models.GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	if !invoice.CurrentStatus.CanTransitionTo(models.InvoiceStatusIssued) {
		return nil, utils.NewConflictError("invoice cannot be issued from status " + string(invoice.CurrentStatus))
	}

	sysAccounts, err := models.GetSystemAccounts(businessId)
	if err != nil {
		config.LogError(logger, "invoiceWorkflow.go", "IssueInvoice", "GetSystemAccounts", businessId, err)
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
		tx.Rollback()
		return nil, err
	}
	defer ReleaseBusinessPostingLock(tx, businessId)

	now := time.Now().UTC()
	txn := models.LedgerTransaction{
		BusinessId:      businessId,
		SourceType:      models.LedgerSourceTypeInvoice,
		SourceId:        invoice.ID,
		TransactionDate: invoice.InvoiceDate,
		Description:     "Invoice " + invoice.InvoiceNumber + " issued to " + invoice.CustomerRef,
		Entries:         buildInvoiceIssuanceEntries(invoice, sysAccounts),
	}
	if err := models.PostLedgerTransaction(tx, &txn); err != nil {
		tx.Rollback()
		config.LogError(logger, "invoiceWorkflow.go", "IssueInvoice", "PostLedgerTransaction", txn, err)
		return nil, err
	}

	err = tx.WithContext(ctx).Model(invoice).Updates(map[string]interface{}{
		"current_status": models.InvoiceStatusIssued,
		"draft_kind":     nil,
		"issued_at":      now,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	invoice.CurrentStatus = models.InvoiceStatusIssued
	invoice.DraftKind = nil
	invoice.IssuedAt = &now
	return invoice, nil
}

// MarkInvoicePaid settles an issued invoice through the payment recorder.
// Partial amounts accumulate; the invoice flips to Paid only once fully
// covered. Overpayment past the remaining balance is rejected.
func MarkInvoicePaid(ctx context.Context, logger *logrus.Logger, invoiceId int, input *models.NewPayment, idempotencyKey string) (*models.Payment, error) {
	input.Direction = models.PaymentDirectionReceived
	input.InvoiceId = &invoiceId
	if strings.TrimSpace(input.PartyName) == "" {
		invoice, err := models.GetInvoice(ctx, invoiceId)
		if err != nil {
			return nil, err
		}
		input.PartyName = invoice.CustomerRef
	}
	return RecordPayment(ctx, logger, input, idempotencyKey)
}

// CancelInvoice voids an invoice. A draft is marked Cancelled and its line
// items removed; an issued invoice keeps its items but gets the issuance
// reversed so the ledger nets to zero.
// Paid and partially paid invoices cannot be cancelled.
func CancelInvoice(ctx context.Context, logger *logrus.Logger, invoiceId int, reason string) (*models.Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	invoice, err := models.GetInvoice(ctx, invoiceId)
	if err != nil {
		return nil, err
	}
	if !invoice.CurrentStatus.CanTransitionTo(models.InvoiceStatusCancelled) {
		return nil, utils.NewConflictError("invoice cannot be cancelled from status " + string(invoice.CurrentStatus))
	}
	if invoice.PaidAmount.IsPositive() {
		return nil, utils.NewConflictError("invoice with recorded payments cannot be cancelled")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
		tx.Rollback()
		return nil, err
	}
	defer ReleaseBusinessPostingLock(tx, businessId)

	if invoice.CurrentStatus == models.InvoiceStatusIssued {
		original, err := models.GetLedgerTransactionBySource(ctx, businessId, models.LedgerSourceTypeInvoice, invoice.ID)
		if err != nil {
			tx.Rollback()
			config.LogError(logger, "invoiceWorkflow.go", "CancelInvoice", "GetLedgerTransactionBySource", invoice.ID, err)
			return nil, err
		}
		if _, err := models.ReverseLedgerTransaction(tx, original, reason); err != nil {
			tx.Rollback()
			config.LogError(logger, "invoiceWorkflow.go", "CancelInvoice", "ReverseLedgerTransaction", original.ID, err)
			return nil, err
		}
	} else {
		// A draft posted nothing; its line items go with it.
		if err := tx.WithContext(ctx).Where("invoice_id = ?", invoice.ID).Delete(&models.InvoiceLineItem{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		invoice.LineItems = nil
	}

	if err := tx.WithContext(ctx).Model(invoice).Update("current_status", models.InvoiceStatusCancelled).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	invoice.CurrentStatus = models.InvoiceStatusCancelled
	return invoice, nil
}

// GetIncompleteDrafts lists drafts left behind by failed creates, so the
// recovery surface can offer re-issue.
func GetIncompleteDrafts(ctx context.Context) ([]*models.Invoice, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}
	db := config.GetDB()
	var results []*models.Invoice
	err := db.WithContext(ctx).Preload("LineItems").
		Where("business_id = ? AND current_status = ? AND draft_kind = ?",
			businessId, models.InvoiceStatusDraft, models.InvoiceDraftKindIncomplete).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
