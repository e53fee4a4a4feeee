package models

import "gorm.io/gorm"

// ApprovalsAudit is the append-only trail: one row per state transition,
// written in the same transaction as the status change. Rows are never
// updated or deleted.
type ApprovalsAudit struct {
	gorm.Model
	RequestID      uint   `json:"request_id" gorm:"index;not null"`
	ActionByUserID uint   `json:"action_by_user_id" gorm:"not null"`
	Action         string `json:"action" gorm:"type:varchar(32);not null"`
	Comment        string `json:"comment"`
}
