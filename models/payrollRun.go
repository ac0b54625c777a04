package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/utils"
	"gorm.io/gorm"
)

// PayrollRun pays all active employees for one (year, month) period. The
// unique index keeps a period from being run twice per business.
type PayrollRun struct {
	ID            int              `gorm:"primary_key" json:"id"`
	BusinessId    string           `gorm:"size:64;not null;index;index:uniq_payroll_period,unique,priority:1" json:"business_id"`
	Year          int              `gorm:"not null;index:uniq_payroll_period,unique,priority:2" json:"year"`
	Month         int              `gorm:"not null;index:uniq_payroll_period,unique,priority:3" json:"month"`
	CurrentStatus PayrollRunStatus `gorm:"type:enum('Draft','Locked','Paid');default:'Draft';index" json:"current_status"`
	TotalAmount   decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"total_amount"`
	Items         []PayrollItem    `gorm:"foreignKey:PayrollRunId" json:"items"`
	LockedAt      *time.Time       `json:"locked_at"`
	PaidAt        *time.Time       `json:"paid_at"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

// PayrollItem is one employee's slice of a run. An employee appears at most
// once per run; retried runs skip already-present items.
type PayrollItem struct {
	ID           int             `gorm:"primary_key" json:"id"`
	BusinessId   string          `gorm:"size:64;not null;index" json:"business_id"`
	PayrollRunId int             `gorm:"not null;index:uniq_payroll_employee,unique,priority:1" json:"payroll_run_id"`
	EmployeeId   int             `gorm:"not null;index:uniq_payroll_employee,unique,priority:2" json:"employee_id"`
	EmployeeName string          `gorm:"size:255;not null" json:"employee_name"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"amount"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewPayrollRun struct {
	Year  int `json:"year" binding:"required"`
	Month int `json:"month" binding:"required"`
}

func (obj PayrollRun) GetId() int {
	return obj.ID
}

// PeriodLabel is the human form of the run's period, e.g. "2026-03".
func (obj PayrollRun) PeriodLabel() string {
	return fmt.Sprintf("%04d-%02d", obj.Year, obj.Month)
}

func (input *NewPayrollRun) Validate() error {
	if input.Year < 2000 || input.Year > 2100 {
		return utils.NewValidationError("year", "year is out of range")
	}
	if input.Month < 1 || input.Month > 12 {
		return utils.NewValidationError("month", "month must be between 1 and 12")
	}
	return nil
}

func GetPayrollRun(ctx context.Context, id int) (*PayrollRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[PayrollRun](ctx, businessId, id, "Items")
}

func GetPayrollRuns(ctx context.Context) ([]*PayrollRun, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	db := config.GetDB()
	var results []*PayrollRun
	err := db.WithContext(ctx).Preload("Items").
		Where("business_id = ?", businessId).
		Order("year DESC, month DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetPayrollRunByPeriod looks a run up by its (year, month) period.
func GetPayrollRunByPeriod(ctx context.Context, businessId string, year, month int) (*PayrollRun, error) {
	db := config.GetDB()
	var run PayrollRun
	err := db.WithContext(ctx).Preload("Items").
		Where("business_id = ? AND year = ? AND month = ?", businessId, year, month).
		First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &run, nil
}
