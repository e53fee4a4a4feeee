package models

import (
	"time"

	"gorm.io/gorm"
)

// PasswordReset backs the OTP self-service flow. The row only exists if the
// code was actually delivered: issuing and sending happen in one transaction
// and a delivery failure rolls the row back.
type PasswordReset struct {
	gorm.Model
	UserID    uint       `json:"user_id" gorm:"index;not null"`
	Code      string     `json:"-" gorm:"type:varchar(6);not null"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
}
