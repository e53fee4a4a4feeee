package models

import "gorm.io/gorm"

type Vehicle struct {
	gorm.Model
	VehicleNo      string      `json:"vehicle_no" gorm:"unique;not null" binding:"required"`
	RegistrationNo string      `json:"registration_no"`
	FleetNo        string      `json:"fleet_no"`
	VehicleType    VehicleType `json:"vehicle_type" gorm:"type:varchar(16);not null"`
	Capacity       int         `json:"capacity" gorm:"not null;check:capacity > 0"`
	OwnerName      string      `json:"owner_name"`

	Routes []Route `gorm:"many2many:vehicle_routes;" json:"routes,omitempty"`
}

// VehicleRoute is the coverage junction: which routes a vehicle may serve.
type VehicleRoute struct {
	VehicleID uint `json:"vehicle_id" gorm:"primaryKey"`
	RouteID   uint `json:"route_id" gorm:"primaryKey"`
}
