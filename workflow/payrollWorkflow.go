package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/utils"
	"gorm.io/gorm"
)

// buildPayrollEntries posts one employee's salary: debit Salary Expense,
// credit Bank. Each item gets its own transaction so the posting grain is
// per employee per period.
func buildPayrollEntries(item *models.PayrollItem, sysAccounts map[string]int) []models.LedgerEntry {
	return []models.LedgerEntry{
		{
			AccountId:   sysAccounts[models.AccountCodeSalaryExpense],
			AccountCode: models.AccountCodeSalaryExpense,
			Debit:       item.Amount,
			Credit:      decimal.Zero,
		},
		{
			AccountId:   sysAccounts[models.AccountCodeBank],
			AccountCode: models.AccountCodeBank,
			Debit:       decimal.Zero,
			Credit:      item.Amount,
		},
	}
}

// RunPayroll creates (or resumes) the draft run for a period and fills in
// one item per active employee at their current monthly salary. Re-running
// skips employees already present, so a partially built run picks up where
// it stopped. A period whose run has moved past Draft cannot be run again.
func RunPayroll(ctx context.Context, logger *logrus.Logger, input *models.NewPayrollRun) (*models.PayrollRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()

	// No ledger posting happens here, so no advisory lock: the period and
	// (run, employee) unique indexes close the races.
	run, err := models.GetPayrollRunByPeriod(ctx, businessId, input.Year, input.Month)
	if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, err
	}
	if run != nil && run.CurrentStatus != models.PayrollRunStatusDraft {
		return nil, utils.NewConflictError("payroll for " + run.PeriodLabel() + " is already " + string(run.CurrentStatus))
	}
	if run == nil {
		run = &models.PayrollRun{
			BusinessId:    businessId,
			Year:          input.Year,
			Month:         input.Month,
			CurrentStatus: models.PayrollRunStatusDraft,
			TotalAmount:   decimal.Zero,
		}
		if err := db.WithContext(ctx).Create(run).Error; err != nil {
			if utils.IsDuplicateKeyErr(err) {
				return nil, utils.NewConflictError("payroll run already exists for this period")
			}
			config.LogError(logger, "payrollWorkflow.go", "RunPayroll", "Create", run, err)
			return nil, err
		}
	}

	employees, err := models.GetActiveEmployees(ctx, businessId)
	if err != nil {
		config.LogError(logger, "payrollWorkflow.go", "RunPayroll", "GetActiveEmployees", businessId, err)
		return nil, err
	}
	if len(employees) == 0 {
		return nil, utils.NewValidationError("employees", "no active employees to pay")
	}

	existing := make(map[int]bool, len(run.Items))
	for _, item := range run.Items {
		existing[item.EmployeeId] = true
	}

	// Items commit one by one: a failure mid-loop keeps the run and the
	// items written so far, and the next attempt fills in only what is
	// missing.
	for _, employee := range employees {
		if existing[employee.ID] {
			continue
		}
		item := models.PayrollItem{
			BusinessId:   businessId,
			PayrollRunId: run.ID,
			EmployeeId:   employee.ID,
			EmployeeName: employee.Name,
			Amount:       employee.MonthlySalary,
		}
		if err := db.WithContext(ctx).Create(&item).Error; err != nil {
			if utils.IsDuplicateKeyErr(err) {
				continue
			}
			config.LogError(logger, "payrollWorkflow.go", "RunPayroll", "Create PayrollItem", item, err)
			_ = recomputePayrollTotal(ctx, db, run)
			return run, &utils.PartialFailureError{
				Op:            "run_payroll",
				CompletedStep: "run_created",
				Err:           err,
			}
		}
	}

	if err := recomputePayrollTotal(ctx, db, run); err != nil {
		return nil, err
	}
	return models.GetPayrollRun(ctx, run.ID)
}

func recomputePayrollTotal(ctx context.Context, db *gorm.DB, run *models.PayrollRun) error {
	var total decimal.NullDecimal
	err := db.WithContext(ctx).Model(&models.PayrollItem{}).
		Select("SUM(amount)").
		Where("payroll_run_id = ?", run.ID).
		Scan(&total).Error
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(run).Update("total_amount", total.Decimal).Error
}

// LockPayrollRun freezes a draft run for review. Locked runs accept no more
// items; the only way forward is MarkPayrollRunPaid.
func LockPayrollRun(ctx context.Context, runId int) (*models.PayrollRun, error) {
	run, err := models.GetPayrollRun(ctx, runId)
	if err != nil {
		return nil, err
	}
	if !run.CurrentStatus.CanTransitionTo(models.PayrollRunStatusLocked) {
		return nil, utils.NewConflictError("payroll run cannot be locked from status " + string(run.CurrentStatus))
	}
	if len(run.Items) == 0 {
		return nil, utils.NewValidationError("items", "an empty payroll run cannot be locked")
	}

	db := config.GetDB()
	now := time.Now().UTC()
	err = db.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"current_status": models.PayrollRunStatusLocked,
		"locked_at":      now,
	}).Error
	if err != nil {
		return nil, err
	}
	run.CurrentStatus = models.PayrollRunStatusLocked
	run.LockedAt = &now
	return run, nil
}

// MarkPayrollRunPaid posts the locked run to the ledger and finishes it.
func MarkPayrollRunPaid(ctx context.Context, logger *logrus.Logger, runId int) (*models.PayrollRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, utils.NewValidationError("business_id", "business id is required")
	}

	run, err := models.GetPayrollRun(ctx, runId)
	if err != nil {
		return nil, err
	}
	if !run.CurrentStatus.CanTransitionTo(models.PayrollRunStatusPaid) {
		return nil, utils.NewConflictError("payroll run cannot be paid from status " + string(run.CurrentStatus))
	}

	sysAccounts, err := models.GetSystemAccounts(businessId)
	if err != nil {
		config.LogError(logger, "payrollWorkflow.go", "MarkPayrollRunPaid", "GetSystemAccounts", businessId, err)
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()
	if err := AcquireBusinessPostingLock(tx, businessId); err != nil {
		tx.Rollback()
		return nil, err
	}
	defer ReleaseBusinessPostingLock(tx, businessId)

	// One transaction per item keyed by the item id, so the ledger's
	// source uniqueness enforces exactly-once per employee per period.
	postedAt := time.Now().UTC()
	for i := range run.Items {
		item := &run.Items[i]
		txn := models.LedgerTransaction{
			BusinessId:      businessId,
			SourceType:      models.LedgerSourceTypePayroll,
			SourceId:        item.ID,
			TransactionDate: postedAt,
			Description:     "Payroll " + run.PeriodLabel() + " " + item.EmployeeName,
			Entries:         buildPayrollEntries(item, sysAccounts),
		}
		if err := models.PostLedgerTransaction(tx, &txn); err != nil {
			tx.Rollback()
			config.LogError(logger, "payrollWorkflow.go", "MarkPayrollRunPaid", "PostLedgerTransaction", txn, err)
			return nil, err
		}
	}

	now := time.Now().UTC()
	err = tx.WithContext(ctx).Model(run).Updates(map[string]interface{}{
		"current_status": models.PayrollRunStatusPaid,
		"paid_at":        now,
	}).Error
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	run.CurrentStatus = models.PayrollRunStatusPaid
	run.PaidAt = &now
	return run, nil
}
