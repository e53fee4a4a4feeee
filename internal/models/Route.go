package models

import "gorm.io/gorm"

// Route is an administrative service path employees are bucketed under.
// A route owns its sub-routes; vehicles declare coverage via VehicleRoute.
type Route struct {
	gorm.Model
	RouteNo   string `json:"route_no" gorm:"not null" binding:"required"`
	RouteName string `json:"route_name" binding:"required"`

	SubRoutes []SubRoute `gorm:"foreignKey:RouteID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"sub_routes,omitempty"`
}

// MaxSubRoutesPerRoute caps how many sub-routes a route may carry, enforced
// at creation time including bulk inserts.
const MaxSubRoutesPerRoute = 50

type SubRoute struct {
	gorm.Model
	RouteID uint   `json:"route_id" gorm:"index;not null"`
	SubName string `json:"sub_name" gorm:"not null" binding:"required"`
}
