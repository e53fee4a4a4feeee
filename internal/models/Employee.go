package models

import "gorm.io/gorm"

// Employee is a transported person. DefaultRouteID/DefaultSubRouteID are the
// fallback routing used whenever a request carries no per-request override.
type Employee struct {
	gorm.Model
	EmpNo             string `json:"emp_no" gorm:"unique;not null"`
	FullName          string `json:"full_name"`
	DepartmentID      uint   `json:"department_id" gorm:"index;not null"`
	DefaultRouteID    *uint  `json:"default_route_id"`
	DefaultSubRouteID *uint  `json:"default_sub_route_id"`
	IsActive          bool   `json:"is_active" gorm:"default:true"`

	Department      Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	DefaultRoute    *Route     `gorm:"foreignKey:DefaultRouteID" json:"default_route,omitempty"`
	DefaultSubRoute *SubRoute  `gorm:"foreignKey:DefaultSubRouteID" json:"default_sub_route,omitempty"`
}
