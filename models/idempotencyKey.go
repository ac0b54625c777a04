package models

import (
	"time"
)

// IdempotencyKey records one client-supplied key per mutating operation so a
// retried request replays the stored outcome instead of re-executing.
type IdempotencyKey struct {
	ID            int               `gorm:"primary_key" json:"id"`
	BusinessId    string            `gorm:"size:64;not null;index:uniq_idem_key,unique,priority:1" json:"business_id"`
	Operation     string            `gorm:"size:64;not null;index:uniq_idem_key,unique,priority:2" json:"operation"`
	Key           string            `gorm:"size:255;not null;index:uniq_idem_key,unique,priority:3" json:"key"`
	CurrentStatus IdempotencyStatus `gorm:"type:enum('STARTED','SUCCEEDED','FAILED');default:'STARTED'" json:"current_status"`
	// ResultId points at the document the first successful execution produced.
	ResultId  *int      `json:"result_id"`
	LastError *string   `gorm:"type:text" json:"last_error"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
