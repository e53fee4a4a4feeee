package models

import "gorm.io/gorm"

// Department owns employees and the logins scoped to it.
type Department struct {
	gorm.Model
	Name string `json:"name" gorm:"unique;not null" binding:"required"`

	Employees []Employee `gorm:"foreignKey:DepartmentID" json:"employees,omitempty"`
}
