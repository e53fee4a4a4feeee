package workflow

import (
	"fmt"
	"strings"

	"shuttle_desk/internal/models"
)

// Event is a workflow trigger. Each event has exactly one rule: the statuses
// it may fire from, the role allowed to fire it, the status it lands on and
// the audit action tag recorded for it.
type Event string

const (
	EventHODSubmit         Event = "HOD_SUBMIT"
	EventAdminApprove      Event = "ADMIN_APPROVE"
	EventTASubmit          Event = "TA_SUBMIT"
	EventTASubmitOverbook  Event = "TA_SUBMIT_OVERBOOK"
	EventHRApproveOverbook Event = "HR_APPROVE_OVERBOOK"
	EventHRRejectOverbook  Event = "HR_REJECT_OVERBOOK"
	EventHRFinalApprove    Event = "HR_FINAL_APPROVE"
)

// AuditActionLockRun tags the single audit row the consolidator writes
// against the daily master; locking is not a per-request transition so it
// carries no rule below.
const AuditActionLockRun = "ADMIN_LOCK_RUN"

type rule struct {
	from []models.RequestStatus
	role models.UserRole
	to   models.RequestStatus
}

var rules = map[Event]rule{
	EventHODSubmit: {
		from: []models.RequestStatus{models.StatusDraft, models.StatusSubmitted},
		role: models.RoleHOD,
		to:   models.StatusSubmitted,
	},
	EventAdminApprove: {
		from: []models.RequestStatus{models.StatusSubmitted},
		role: models.RoleAdmin,
		to:   models.StatusAdminApproved,
	},
	EventTASubmit: {
		from: []models.RequestStatus{models.StatusAdminApproved, models.StatusTAFixRequired, models.StatusTAAssigned},
		role: models.RoleTA,
		to:   models.StatusTAAssigned,
	},
	EventTASubmitOverbook: {
		from: []models.RequestStatus{models.StatusAdminApproved, models.StatusTAFixRequired, models.StatusTAAssigned},
		role: models.RoleTA,
		to:   models.StatusTAAssignedPendingHR,
	},
	EventHRApproveOverbook: {
		from: []models.RequestStatus{models.StatusTAAssignedPendingHR},
		role: models.RoleHR,
		to:   models.StatusTAAssigned,
	},
	EventHRRejectOverbook: {
		from: []models.RequestStatus{models.StatusTAAssignedPendingHR},
		role: models.RoleHR,
		to:   models.StatusTAFixRequired,
	},
	EventHRFinalApprove: {
		from: []models.RequestStatus{models.StatusTAAssigned},
		role: models.RoleHR,
		to:   models.StatusHRFinalApproved,
	},
}

// Transition is what Apply hands back: the status to persist and the audit
// action to append, committed together by the caller.
type Transition struct {
	To     models.RequestStatus
	Action string
}

// InvalidStateError names the offending status and the allowed predecessors,
// so a DRAFT approve attempt tells the caller SUBMITTED was required.
type InvalidStateError struct {
	Event   Event
	Current models.RequestStatus
	Allowed []models.RequestStatus
}

func (e *InvalidStateError) Error() string {
	allowed := make([]string, len(e.Allowed))
	for i, s := range e.Allowed {
		allowed[i] = string(s)
	}
	return fmt.Sprintf("%s not allowed from status %s; requires status %s",
		e.Event, e.Current, strings.Join(allowed, " or "))
}

// ForbiddenRoleError reports a role trying to fire an event it does not own.
type ForbiddenRoleError struct {
	Event    Event
	Role     models.UserRole
	Required models.UserRole
}

func (e *ForbiddenRoleError) Error() string {
	return fmt.Sprintf("role %s may not perform %s; requires role %s", e.Role, e.Event, e.Required)
}

// Apply is the pure transition function: no storage, no side effects. The
// caller persists the new status and the audit row in one transaction.
func Apply(current models.RequestStatus, ev Event, role models.UserRole) (Transition, error) {
	r, ok := rules[ev]
	if !ok {
		return Transition{}, fmt.Errorf("unknown workflow event %q", ev)
	}
	if role != r.role {
		return Transition{}, &ForbiddenRoleError{Event: ev, Role: role, Required: r.role}
	}
	for _, s := range r.from {
		if s == current {
			return Transition{To: r.to, Action: string(ev)}, nil
		}
	}
	return Transition{}, &InvalidStateError{Event: ev, Current: current, Allowed: r.from}
}

// CanHODEdit reports whether the roster and request details are still open to
// the owning HOD. Edits are blocked the moment the request leaves this window.
func CanHODEdit(status models.RequestStatus) bool {
	return status == models.StatusDraft || status == models.StatusSubmitted
}

// CanTASaveAssignment reports whether a TA may still add or change group
// assignments without resubmitting.
func CanTASaveAssignment(status models.RequestStatus) bool {
	switch status {
	case models.StatusAdminApproved, models.StatusTAFixRequired, models.StatusTAAssignedPendingHR:
		return true
	}
	return false
}

// CanTASubmit reports whether a TA submit (either event flavour) may fire.
func CanTASubmit(status models.RequestStatus) bool {
	switch status {
	case models.StatusAdminApproved, models.StatusTAFixRequired, models.StatusTAAssigned:
		return true
	}
	return false
}

// OverbookResolution maps the HR gate outcome onto the assignment rows'
// overbook status. Only rows sitting at PENDING_HR are touched.
func OverbookResolution(ev Event) (models.OverbookStatus, bool) {
	switch ev {
	case EventHRApproveOverbook:
		return models.OverbookApproved, true
	case EventHRRejectOverbook:
		return models.OverbookRejected, true
	}
	return "", false
}
