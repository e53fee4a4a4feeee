package models

import "gorm.io/gorm"

// User is a login identity. It is created PENDING_* on self-registration and
// becomes ACTIVE only once the approving role (HOD for EMP, Admin for the
// rest) signs it off. EMP/HOD logins link 1:1 to an Employee row.
type User struct {
	gorm.Model
	Email        string     `json:"email" gorm:"unique;not null"`
	Password     string     `json:"-"`
	Role         UserRole   `json:"role" gorm:"type:varchar(16);not null"`
	Status       UserStatus `json:"status" gorm:"type:varchar(16);not null;default:'PENDING_HOD'"`
	DepartmentID *uint      `json:"department_id" gorm:"index"`
	EmployeeID   *uint      `json:"employee_id" gorm:"uniqueIndex"`

	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Employee   *Employee   `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}
