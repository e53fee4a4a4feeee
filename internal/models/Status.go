package models

import "fmt"

// RequestStatus is the closed set of transport-request lifecycle states.
// Values arriving from storage or clients must go through ParseRequestStatus
// so an unknown string fails at the boundary instead of inside transition logic.
type RequestStatus string

const (
	StatusDraft               RequestStatus = "DRAFT"
	StatusLocked              RequestStatus = "LOCKED"
	StatusSubmitted           RequestStatus = "SUBMITTED"
	StatusAdminApproved       RequestStatus = "ADMIN_APPROVED"
	StatusTAAssignedPendingHR RequestStatus = "TA_ASSIGNED_PENDING_HR"
	StatusTAAssigned          RequestStatus = "TA_ASSIGNED"
	StatusTAFixRequired       RequestStatus = "TA_FIX_REQUIRED"
	StatusHRFinalApproved     RequestStatus = "HR_FINAL_APPROVED"
	StatusRejected            RequestStatus = "REJECTED"
)

func ParseRequestStatus(s string) (RequestStatus, error) {
	switch RequestStatus(s) {
	case StatusDraft, StatusLocked, StatusSubmitted, StatusAdminApproved,
		StatusTAAssignedPendingHR, StatusTAAssigned, StatusTAFixRequired,
		StatusHRFinalApproved, StatusRejected:
		return RequestStatus(s), nil
	}
	return "", fmt.Errorf("unknown request status %q", s)
}

// UserRole identifies which part of the workflow a login may drive.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleHOD   UserRole = "HOD"
	RoleHR    UserRole = "HR"
	RoleTA    UserRole = "TA"
	RoleEmp   UserRole = "EMP"
)

func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleAdmin, RoleHOD, RoleHR, RoleTA, RoleEmp:
		return UserRole(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// UserStatus tracks the self-registration approval lifecycle of a login.
type UserStatus string

const (
	UserActive       UserStatus = "ACTIVE"
	UserPendingHOD   UserStatus = "PENDING_HOD"
	UserPendingAdmin UserStatus = "PENDING_ADMIN"
	UserDisabled     UserStatus = "DISABLED"
)

func ParseUserStatus(s string) (UserStatus, error) {
	switch UserStatus(s) {
	case UserActive, UserPendingHOD, UserPendingAdmin, UserDisabled:
		return UserStatus(s), nil
	}
	return "", fmt.Errorf("unknown user status %q", s)
}

type VehicleType string

const (
	VehicleVan    VehicleType = "VAN"
	VehicleBus    VehicleType = "BUS"
	VehicleTuktuk VehicleType = "TUKTUK"
)

func ParseVehicleType(s string) (VehicleType, error) {
	switch VehicleType(s) {
	case VehicleVan, VehicleBus, VehicleTuktuk:
		return VehicleType(s), nil
	}
	return "", fmt.Errorf("unknown vehicle type %q", s)
}

// OverbookStatus is server-derived; client-supplied values are overwritten.
type OverbookStatus string

const (
	OverbookNone      OverbookStatus = "NONE"
	OverbookPendingHR OverbookStatus = "PENDING_HR"
	OverbookApproved  OverbookStatus = "APPROVED"
	OverbookRejected  OverbookStatus = "REJECTED"
)
