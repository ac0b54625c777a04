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

// buildExpenseEntries posts a purchase: debit Purchases for the net amount,
// debit GST Input for the tax credit, and credit either the money account
// (paid) or Accounts Payable (accrued).
func buildExpenseEntries(expense *models.Expense, sysAccounts map[string]int) []models.LedgerEntry {
	entries := []models.LedgerEntry{
		{
			AccountId:   sysAccounts[models.AccountCodePurchases],
			AccountCode: models.AccountCodePurchases,
			Debit:       expense.Amount,
			Credit:      decimal.Zero,
		},
	}
	if expense.TaxAmount.IsPositive() {
		entries = append(entries, models.LedgerEntry{
			AccountId:   sysAccounts[models.AccountCodeGSTInput],
			AccountCode: models.AccountCodeGSTInput,
			Debit:       expense.TaxAmount,
			Credit:      decimal.Zero,
		})
	}
	creditCode := models.AccountCodeAccountsPayable
	if expense.Paid {
		creditCode = expense.Method.AssetAccountCode()
	}
	entries = append(entries, models.LedgerEntry{
		AccountId:   sysAccounts[creditCode],
		AccountCode: creditCode,
		Debit:       decimal.Zero,
		Credit:      expense.TotalAmount,
	})
	return entries
}

// RecordExpense stores a purchase document and posts it in one transaction.
func RecordExpense(ctx context.Context, logger *logrus.Logger, input *models.NewExpense, idempotencyKey string) (*models.Expense, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	sysAccounts, err := models.GetSystemAccounts(businessId)
	if err != nil {
		config.LogError(logger, "expenseWorkflow.go", "RecordExpense", "GetSystemAccounts", businessId, err)
		return nil, err
	}

	taxAmount := utils.CalculateTaxAmount(input.Amount, input.TaxRate)
	paid := true
	if input.Paid != nil {
		paid = *input.Paid
	}
	method := input.Method
	if method == "" {
		method = models.PaymentMethodBankTransfer
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
		tx.Rollback()
		return nil, err
	}
	defer ReleaseBusinessPostingLock(tx, businessId)

	if idempotencyKey != "" {
		replay, resultId, err := BeginIdempotency(tx, businessId, "record_expense", idempotencyKey)
		if err != nil {
			tx.Rollback()
			config.LogError(logger, "expenseWorkflow.go", "RecordExpense", "BeginIdempotency", idempotencyKey, err)
			return nil, err
		}
		if replay {
			tx.Rollback()
			if resultId == nil {
				return nil, utils.NewConflictError("duplicate expense request")
			}
			return models.GetExpense(ctx, *resultId)
		}
	}

	sequenceNo, err := utils.GetSequence[models.Expense](ctx, businessId)
	if err != nil {
		tx.Rollback()
		config.LogError(logger, "expenseWorkflow.go", "RecordExpense", "GetSequence", businessId, err)
		return nil, err
	}

	expense := models.Expense{
		BusinessId:    businessId,
		ExpenseNumber: fmt.Sprintf("EXP-%06d", sequenceNo),
		SequenceNo:    sequenceNo,
		VendorRef:     input.VendorRef,
		ExpenseDate:   input.ExpenseDate,
		Description:   input.Description,
		Amount:        input.Amount,
		TaxRate:       input.TaxRate,
		TaxAmount:     taxAmount,
		TotalAmount:   input.Amount.Add(taxAmount),
		Paid:          paid,
		Method:        method,
	}
	if err := tx.WithContext(ctx).Create(&expense).Error; err != nil {
		tx.Rollback()
		if utils.IsDuplicateKeyErr(err) {
			return nil, utils.NewConflictError("expense number already exists")
		}
		config.LogError(logger, "expenseWorkflow.go", "RecordExpense", "Create", expense, err)
		return nil, err
	}

	txn := models.LedgerTransaction{
		BusinessId:      businessId,
		SourceType:      models.LedgerSourceTypeExpense,
		SourceId:        expense.ID,
		TransactionDate: expense.ExpenseDate,
		Description:     "Expense " + expense.ExpenseNumber + " from " + expense.VendorRef,
		Entries:         buildExpenseEntries(&expense, sysAccounts),
	}
	if err := models.PostLedgerTransaction(tx, &txn); err != nil {
		tx.Rollback()
		config.LogError(logger, "expenseWorkflow.go", "RecordExpense", "PostLedgerTransaction", txn, err)
		return nil, err
	}

	if idempotencyKey != "" {
		if err := MarkIdempotencySucceeded(tx, businessId, "record_expense", idempotencyKey, expense.ID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &expense, nil
}
