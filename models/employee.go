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

type Employee struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"size:64;not null;index" json:"business_id"`
	Name          string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Designation   string          `gorm:"size:255" json:"designation"`
	MonthlySalary decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"monthly_salary"`
	CurrentStatus EmployeeStatus  `gorm:"type:enum('Active','Inactive');default:'Active';index" json:"current_status"`
	JoinedAt      *time.Time      `json:"joined_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewEmployee struct {
	Name          string          `json:"name" binding:"required"`
	Designation   string          `json:"designation"`
	MonthlySalary decimal.Decimal `json:"monthly_salary" binding:"required"`
	JoinedAt      *time.Time      `json:"joined_at"`
}

func (obj Employee) GetId() int {
	return obj.ID
}

func (input *NewEmployee) Validate() error {
	if strings.TrimSpace(input.Name) == "" {
		return utils.NewValidationError("name", "employee name is required")
	}
	if !input.MonthlySalary.IsPositive() {
		return utils.NewValidationError("monthly_salary", "monthly salary must be greater than zero")
	}
	return nil
}

func CreateEmployee(ctx context.Context, input *NewEmployee) (*Employee, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	if err := input.Validate(); err != nil {
		return nil, err
	}
	employee := Employee{
		BusinessId:    businessId,
		Name:          input.Name,
		Designation:   input.Designation,
		MonthlySalary: input.MonthlySalary,
		CurrentStatus: EmployeeStatusActive,
		JoinedAt:      input.JoinedAt,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func GetEmployee(ctx context.Context, id int) (*Employee, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchModel[Employee](ctx, businessId, id)
}

func GetEmployees(ctx context.Context) ([]*Employee, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	return utils.FetchAllModels[Employee](ctx, businessId)
}

// GetActiveEmployees lists the employees a payroll run pays.
func GetActiveEmployees(ctx context.Context, businessId string) ([]*Employee, error) {
	db := config.GetDB()
	var results []*Employee
	err := db.WithContext(ctx).
		Where("business_id = ? AND current_status = ?", businessId, EmployeeStatusActive).
		Order("id ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeactivateEmployee marks an employee inactive; future payroll runs skip them.
func DeactivateEmployee(ctx context.Context, id int) (*Employee, error) {
	employee, err := GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(employee).Update("current_status", EmployeeStatusInactive).Error; err != nil {
		return nil, err
	}
	employee.CurrentStatus = EmployeeStatusInactive
	return employee, nil
}
