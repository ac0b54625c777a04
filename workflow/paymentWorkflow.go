package workflow

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

// buildSettlementEntries posts money received against an invoice: debit the
// bank or cash account for the method, credit Accounts Receivable.
func buildSettlementEntries(amount decimal.Decimal, method models.PaymentMethod, sysAccounts map[string]int) []models.LedgerEntry {
	assetCode := method.AssetAccountCode()
	return []models.LedgerEntry{
		{
			AccountId:   sysAccounts[assetCode],
			AccountCode: assetCode,
			Debit:       amount,
			Credit:      decimal.Zero,
		},
		{
			AccountId:   sysAccounts[models.AccountCodeAccountsReceivable],
			AccountCode: models.AccountCodeAccountsReceivable,
			Debit:       decimal.Zero,
			Credit:      amount,
		},
	}
}

// buildUnlinkedReceiptEntries posts money received with no invoice behind
// it, a walk-in sale or sundry receipt: debit bank or cash, credit Sales.
func buildUnlinkedReceiptEntries(amount decimal.Decimal, method models.PaymentMethod, sysAccounts map[string]int) []models.LedgerEntry {
	assetCode := method.AssetAccountCode()
	return []models.LedgerEntry{
		{
			AccountId:   sysAccounts[assetCode],
			AccountCode: assetCode,
			Debit:       amount,
			Credit:      decimal.Zero,
		},
		{
			AccountId:   sysAccounts[models.AccountCodeSales],
			AccountCode: models.AccountCodeSales,
			Debit:       decimal.Zero,
			Credit:      amount,
		},
	}
}

// applySettlement decides what a settlement does to an invoice: the new
// cumulative paid amount and whether it fully covers the total. A second
// full settlement fails here because the invoice is already Paid.
func applySettlement(invoice *models.Invoice, amount decimal.Decimal) (decimal.Decimal, bool, error) {
	if invoice.CurrentStatus != models.InvoiceStatusIssued {
		return decimal.Zero, false, utils.NewConflictError("invoice is not open for payment, status is " + string(invoice.CurrentStatus))
	}
	remaining := invoice.TotalAmount.Sub(invoice.PaidAmount)
	if amount.GreaterThan(remaining) {
		return decimal.Zero, false, utils.NewValidationError("amount", "amount exceeds remaining balance of "+remaining.Round(2).String())
	}
	newPaid := invoice.PaidAmount.Add(amount)
	covered := newPaid.Round(2).GreaterThanOrEqual(invoice.TotalAmount.Round(2))
	if covered && !invoice.CurrentStatus.CanTransitionTo(models.InvoiceStatusPaid) {
		return decimal.Zero, false, utils.NewConflictError("invoice cannot be marked paid from status " + string(invoice.CurrentStatus))
	}
	return newPaid, covered, nil
}

// buildPaymentMadeEntries posts money paid out to a vendor: debit Accounts
// Payable (the accrual recorded by an unpaid expense), credit bank or cash.
func buildPaymentMadeEntries(amount decimal.Decimal, method models.PaymentMethod, sysAccounts map[string]int) []models.LedgerEntry {
	assetCode := method.AssetAccountCode()
	return []models.LedgerEntry{
		{
			AccountId:   sysAccounts[models.AccountCodeAccountsPayable],
			AccountCode: models.AccountCodeAccountsPayable,
			Debit:       amount,
			Credit:      decimal.Zero,
		},
		{
			AccountId:   sysAccounts[assetCode],
			AccountCode: assetCode,
			Debit:       decimal.Zero,
			Credit:      amount,
		},
	}
}

// RecordPayment records a payment and posts it in one transaction. Received
// payments settle an invoice and may flip it to Paid; an unlinked receipt
// credits Sales directly; made payments draw down Accounts Payable.
func RecordPayment(ctx context.Context, logger *logrus.Logger, input *models.NewPayment, idempotencyKey string) (*models.Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var invoice *models.Invoice
	var newPaid decimal.Decimal
	var covered bool
	if input.InvoiceId != nil {
		var err error
		invoice, err = models.GetInvoice(ctx, *input.InvoiceId)
		if err != nil {
			// Tenant scoping hides other businesses' invoices entirely.
			return nil, &utils.AuthorizationError{Resource: "invoice", Id: *input.InvoiceId}
		}
		newPaid, covered, err = applySettlement(invoice, input.Amount)
		if err != nil {
			return nil, err
		}
	}

	sysAccounts, err := models.GetSystemAccounts(businessId)
	if err != nil {
		config.LogError(logger, "paymentWorkflow.go", "RecordPayment", "GetSystemAccounts", businessId, err)
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
		tx.Rollback()
		return nil, err
	}
	defer ReleaseBusinessPostingLock(tx, businessId)

	if idempotencyKey != "" {
		replay, resultId, err := BeginIdempotency(tx, businessId, "record_payment", idempotencyKey)
		if err != nil {
			tx.Rollback()
			config.LogError(logger, "paymentWorkflow.go", "RecordPayment", "BeginIdempotency", idempotencyKey, err)
			return nil, err
		}
		if replay {
			tx.Rollback()
			if resultId == nil {
				return nil, utils.NewConflictError("duplicate payment request")
			}
			return models.GetPayment(ctx, *resultId)
		}
	}

	sequenceNo, err := utils.GetSequence[models.Payment](ctx, businessId)
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "paymentWorkflow.go", "RecordPayment", "GetSequence", businessId, err)
		return nil, err
	}

	payment := models.Payment{
		BusinessId:    businessId,
		PaymentNumber: fmt.Sprintf("PAY-%06d", sequenceNo),
		SequenceNo:    sequenceNo,
		Direction:     input.Direction,
		Method:        input.Method,
		Amount:        input.Amount,
		PaymentDate:   input.PaymentDate,
		PartyName:     input.PartyName,
		Reference:     input.Reference,
		InvoiceId:     input.InvoiceId,
		CurrentStatus: models.PaymentStatusCompleted,
	}
	if err := tx.WithContext(ctx).Create(&payment).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewConflictError("payment number already exists")
		}
		config.LogError(logger, "paymentWorkflow.go", "RecordPayment", "Create", payment, err)
		return nil, err
	}

	var entries []models.LedgerEntry
	switch {
	case input.Direction == models.PaymentDirectionReceived && invoice != nil:
		entries = buildSettlementEntries(payment.Amount, payment.Method, sysAccounts)
	case input.Direction == models.PaymentDirectionReceived:
		entries = buildUnlinkedReceiptEntries(payment.Amount, payment.Method, sysAccounts)
	default:
		entries = buildPaymentMadeEntries(payment.Amount, payment.Method, sysAccounts)
	}
	txn := models.LedgerTransaction{
		BusinessId:      businessId,
		SourceType:      models.LedgerSourceTypePayment,
		SourceId:        payment.ID,
		TransactionDate: payment.PaymentDate,
		Description:     "Payment " + payment.PaymentNumber + " " + string(payment.Direction),
		Entries:         entries,
	}
	if err := models.PostLedgerTransaction(tx, &txn); err != nil {
		tx.Rollback()
		config.LogError(logger, "paymentWorkflow.go", "RecordPayment", "PostLedgerTransaction", txn, err)
		return nil, err
	}

	if invoice != nil {
		updates := map[string]interface{}{"paid_amount": newPaid}
		if covered {
			updates["current_status"] = models.InvoiceStatusPaid
		}
		if err := tx.WithContext(ctx).Model(invoice).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if idempotencyKey != "" {
		if err := MarkIdempotencySucceeded(tx, businessId, "record_payment", idempotencyKey, payment.ID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// VoidPayment reverses a payment's posting and marks it Void. Matched
// payments must be un-reconciled first.
func VoidPayment(ctx context.Context, logger *logrus.Logger, paymentId int, reason string) (*models.Payment, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	payment, err := models.GetPayment(ctx, paymentId)
	if err != nil {
		return nil, err
	}
	if payment.CurrentStatus == models.PaymentStatusVoid {
		return nil, utils.NewConflictError("payment is already void")
	}
	if payment.Matched {
		return nil, utils.NewConflictError("reconciled payment cannot be voided")
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
		tx.Rollback()
		return nil, err
	}
	defer ReleaseBusinessPostingLock(tx, businessId)

	original, err := models.GetLedgerTransactionBySource(ctx, businessId, models.LedgerSourceTypePayment, payment.ID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if _, err := models.ReverseLedgerTransaction(tx, original, reason); err != nil {
		tx.Rollback()
		config.LogError(logger, "paymentWorkflow.go", "VoidPayment", "ReverseLedgerTransaction", original.ID, err)
		return nil, err
	}

	if payment.InvoiceId != nil {
		invoice, err := models.GetInvoice(ctx, *payment.InvoiceId)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		// Paid is terminal; the settlement of a fully paid invoice stays.
		if invoice.CurrentStatus == models.InvoiceStatusPaid {
			tx.Rollback()
			return nil, utils.NewConflictError("payment settling a paid invoice cannot be voided")
		}
		err = tx.WithContext(ctx).Model(invoice).
			Update("paid_amount", invoice.PaidAmount.Sub(payment.Amount)).Error
		if err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.WithContext(ctx).Model(payment).Update("current_status", models.PaymentStatusVoid).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	payment.CurrentStatus = models.PaymentStatusVoid
	return payment, nil
}
