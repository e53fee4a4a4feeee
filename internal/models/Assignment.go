package models

import "gorm.io/gorm"

// RequestAssignment puts one vehicle on one (route, sub-route) group of a
// request. A nil SubRouteID means the assignment covers the whole route
// group; a group may carry several rows. OverbookAmount buys at most two
// extra seats and always needs a reason; OverbookStatus is derived by the
// workflow, never taken from the client.
type RequestAssignment struct {
	gorm.Model
	RequestID      uint           `json:"request_id" gorm:"index;not null"`
	RouteID        *uint          `json:"route_id"`
	SubRouteID     *uint          `json:"sub_route_id"`
	VehicleID      uint           `json:"vehicle_id" gorm:"not null"`
	DriverID       *uint          `json:"driver_id"`
	DriverName     string         `json:"driver_name"`
	DriverPhone    string         `json:"driver_phone"`
	Instructions   string         `json:"instructions"`
	OverbookAmount int            `json:"overbook_amount" gorm:"default:0;check:overbook_amount >= 0 AND overbook_amount <= 2"`
	OverbookReason string         `json:"overbook_reason"`
	OverbookStatus OverbookStatus `json:"overbook_status" gorm:"type:varchar(16);default:'NONE'"`

	Vehicle Vehicle `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Driver  *Driver `gorm:"foreignKey:DriverID" json:"driver,omitempty"`
}
