package models

import (
	"context"
	"errors"
	"time"

	"github.com/suvidhaworks/bizbooks_backend/config"
	"github.com/suvidhaworks/bizbooks_backend/utils"
)

// PlanStatus is supplied by the external billing collaborator; this side only
// reads it.
type PlanStatus string

const (
	PlanStatusTrial     PlanStatus = "trial"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusSuspended PlanStatus = "suspended"
)

type Business struct {
	ID           string     `gorm:"primary_key;size:64" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name" binding:"required"`
	GSTIN        string     `gorm:"size:20" json:"gstin"`
	Timezone     string     `gorm:"size:64;default:'Asia/Kolkata'" json:"timezone"`
	PlanStatus   PlanStatus `gorm:"type:enum('trial','active','suspended');default:'trial'" json:"plan_status"`
	TrialEndsAt  *time.Time `json:"trial_ends_at"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetBusiness(ctx context.Context) (*Business, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, errors.New("business id is required")
	}
	var business Business
	db := config.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", businessId).First(&business).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &business, nil
}

// CheckInvoiceCapability gates invoice creation on the tenant's plan.
// Rejected tenants fail with a distinct plan-limit error before any write.
func CheckInvoiceCapability(ctx context.Context) error {
	business, err := GetBusiness(ctx)
	if err != nil {
		return err
	}
	switch business.PlanStatus {
	case PlanStatusActive:
		return nil
	case PlanStatusTrial:
		if business.TrialEndsAt != nil && business.TrialEndsAt.Before(time.Now()) {
			return &utils.CapabilityDeniedError{Capability: "create_invoice", Reason: "trial expired"}
		}
		return nil
	default:
		return &utils.CapabilityDeniedError{Capability: "create_invoice", Reason: "subscription suspended"}
	}
}
