package models

import "gorm.io/gorm"

// TransportRequest is the unit the lifecycle state machine drives. A normal
// request belongs to one department; the daily master produced by the lock-run
// consolidation has a nil DepartmentID and IsDailyMaster set. The partial
// unique index keeps the one-master-per-date invariant enforced in storage,
// not just in application logic.
type TransportRequest struct {
	gorm.Model
	RequestDate     string        `json:"request_date" gorm:"type:date;not null;index;uniqueIndex:uniq_daily_master,where:is_daily_master"`
	RequestTime     string        `json:"request_time"`
	DepartmentID    *uint         `json:"department_id" gorm:"index"`
	CreatedByUserID uint          `json:"created_by_user_id"`
	Status          RequestStatus `json:"status" gorm:"type:varchar(32);not null;default:'DRAFT'"`
	Notes           string        `json:"notes"`
	IsDailyMaster   bool          `json:"is_daily_master" gorm:"default:false"`

	Department  *Department         `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Employees   []RequestEmployee   `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE;" json:"employees,omitempty"`
	Assignments []RequestAssignment `gorm:"foreignKey:RequestID;constraint:OnDelete:CASCADE;" json:"assignments,omitempty"`
}

// RequestEmployee puts one employee on one request, optionally overriding the
// employee's default route/sub-route for that request only. This is the row
// the grouping engine partitions.
type RequestEmployee struct {
	gorm.Model
	RequestID           uint  `json:"request_id" gorm:"not null;uniqueIndex:uniq_request_employee"`
	EmployeeID          uint  `json:"employee_id" gorm:"not null;uniqueIndex:uniq_request_employee"`
	EffectiveRouteID    *uint `json:"effective_route_id"`
	EffectiveSubRouteID *uint `json:"effective_sub_route_id"`

	Employee Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}
