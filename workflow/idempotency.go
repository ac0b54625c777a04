package workflow

import (
	"errors"
	"time"

	"github.com/suvidhaworks/bizbooks_backend/models"
	"github.com/suvidhaworks/bizbooks_backend/utils"
	"gorm.io/gorm"
)

var ErrIdempotencyInProgress = errors.New("idempotency in progress")

// BeginIdempotency inserts STARTED. If SUCCEEDED exists, returns the stored
// result id with replay=true, meaning "return the first outcome, do nothing".
func BeginIdempotency(tx *gorm.DB, businessId, operation, key string) (replay bool, resultId *int, err error) {
	record := models.IdempotencyKey{
		BusinessId:    businessId,
		Operation:     operation,
		Key:           key,
		CurrentStatus: models.IdempotencyStatusStarted,
	}
	if err := tx.Create(&record).Error; err == nil {
		return false, nil, nil
	} else if !utils.IsDuplicateKeyErr(err) {
		return false, nil, err
	}

	var existing models.IdempotencyKey
	if err := tx.Where("business_id = ? AND operation = ? AND `key` = ?", businessId, operation, key).
		First(&existing).Error; err != nil {
		return false, nil, err
	}

	switch existing.CurrentStatus {
	case models.IdempotencyStatusSucceeded:
		return true, existing.ResultId, nil
	case models.IdempotencyStatusStarted:
		// Another request is mid-flight; a stale row gets retried in place.
		if time.Since(existing.UpdatedAt) < 5*time.Minute {
			return false, nil, ErrIdempotencyInProgress
		}
		fallthrough
	default:
		return false, nil, tx.Model(&models.IdempotencyKey{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{"current_status": models.IdempotencyStatusStarted, "last_error": nil}).Error
	}
}

func MarkIdempotencySucceeded(tx *gorm.DB, businessId, operation, key string, resultId int) error {
	return tx.Model(&models.IdempotencyKey{}).
		Where("business_id = ? AND operation = ? AND `key` = ?", businessId, operation, key).
		Updates(map[string]interface{}{"current_status": models.IdempotencyStatusSucceeded, "result_id": resultId, "last_error": nil}).Error
}

func MarkIdempotencyFailed(tx *gorm.DB, businessId, operation, key string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return tx.Model(&models.IdempotencyKey{}).
		Where("business_id = ? AND operation = ? AND `key` = ?", businessId, operation, key).
		Updates(map[string]interface{}{"current_status": models.IdempotencyStatusFailed, "last_error": &msg}).Error
}
