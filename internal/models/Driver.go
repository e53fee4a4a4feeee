package models

import "gorm.io/gorm"

// Driver is an optional registry entry. Assignments may reference one or
// carry free-text driver details instead; the two are deliberately decoupled.
type Driver struct {
	gorm.Model
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}
