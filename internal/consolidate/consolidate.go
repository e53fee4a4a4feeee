// Package consolidate implements the admin lock-run: merging every
// department's submitted request for one calendar date into the single daily
// master request. The whole merge runs in one transaction so a partial
// failure never leaves an approved-but-rosterless master behind.
package consolidate

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"shuttle_desk/internal/models"
	"shuttle_desk/internal/workflow"
)

// MasterRequestTime is the synthetic request_time stamped on the daily
// master. Constant on purpose: repeated locks of the same date compare equal.
const MasterRequestTime = "06:00"

// Precondition is the typed outcome of checking whether a date may be locked.
type Precondition int

const (
	// Ok means no master exists yet, or the existing one has not moved
	// past ADMIN_APPROVED and may be rebuilt idempotently.
	Ok Precondition = iota
	// AlreadyInProgress means the master has entered TA/HR processing and
	// re-locking would clobber downstream work.
	AlreadyInProgress
)

// Precheck reports whether date can be locked and hands back the existing
// master, if any. Callers inside LockDailyRun share the same transaction.
func Precheck(tx *gorm.DB, date string) (Precondition, *models.TransportRequest, error) {
	var master models.TransportRequest
	err := tx.Where("request_date = ? AND is_daily_master = ?", date, true).First(&master).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Ok, nil, nil
	}
	if err != nil {
		return Ok, nil, err
	}
	switch master.Status {
	case models.StatusTAAssignedPendingHR, models.StatusTAAssigned,
		models.StatusTAFixRequired, models.StatusHRFinalApproved:
		return AlreadyInProgress, &master, nil
	}
	return Ok, &master, nil
}

// InProgressError rejects a re-lock once the run has moved downstream.
type InProgressError struct {
	Date   string
	Status models.RequestStatus
}

func (e *InProgressError) Error() string {
	return fmt.Sprintf("daily run for %s is already in progress (master status %s)", e.Date, e.Status)
}

// ErrConcurrentLock surfaces the storage-level unique index closing the race
// between two simultaneous lock invocations for the same date.
var ErrConcurrentLock = errors.New("another lock run for this date is already underway")

// Result summarizes what one lock run did.
type Result struct {
	MasterID         uint `json:"master_id"`
	ApprovedRequests int  `json:"approved_requests"`
	RosterSize       int  `json:"roster_size"`
}

// LockDailyRun merges all of date's department requests into the daily
// master:
//  1. refuse when the existing master has moved past ADMIN_APPROVED
//  2. approve every still-SUBMITTED non-master request, auditing each
//  3. create the master or reset its roster
//  4. rebuild the roster as the deduplicated union of approved rosters,
//     most recently created request winning for a duplicated employee
//  5. audit ADMIN_LOCK_RUN on the master
//
// Rebuilding rather than appending is what makes an immediate second lock a
// no-op in effect.
func LockDailyRun(db *gorm.DB, date string, adminUserID uint) (*Result, error) {
	var result Result
	err := db.Transaction(func(tx *gorm.DB) error {
		pre, master, err := Precheck(tx, date)
		if err != nil {
			return err
		}
		if pre == AlreadyInProgress {
			return &InProgressError{Date: date, Status: master.Status}
		}

		var submitted []models.TransportRequest
		if err := tx.Where("request_date = ? AND is_daily_master = ? AND status = ?",
			date, false, models.StatusSubmitted).Find(&submitted).Error; err != nil {
			return err
		}
		for _, req := range submitted {
			tr, err := workflow.Apply(req.Status, workflow.EventAdminApprove, models.RoleAdmin)
			if err != nil {
				return err
			}
			res := tx.Model(&models.TransportRequest{}).
				Where("id = ? AND status = ?", req.ID, models.StatusSubmitted).
				Update("status", tr.To)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// A concurrent writer moved it; the collect step
				// below will pick up whatever state won.
				continue
			}
			audit := models.ApprovalsAudit{
				RequestID:      req.ID,
				ActionByUserID: adminUserID,
				Action:         tr.Action,
			}
			if err := tx.Create(&audit).Error; err != nil {
				return err
			}
			result.ApprovedRequests++
		}

		if master == nil {
			master = &models.TransportRequest{
				RequestDate:     date,
				RequestTime:     MasterRequestTime,
				CreatedByUserID: adminUserID,
				Status:          models.StatusAdminApproved,
				IsDailyMaster:   true,
			}
			if err := tx.Create(master).Error; err != nil {
				if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
					return ErrConcurrentLock
				}
				return err
			}
		} else {
			// Hard delete: the (request_id, employee_id) unique index
			// must not trip over soft-deleted leftovers on rebuild.
			if err := tx.Unscoped().Where("request_id = ?", master.ID).
				Delete(&models.RequestEmployee{}).Error; err != nil {
				return err
			}
		}

		var approved []models.TransportRequest
		if err := tx.Preload("Employees").
			Where("request_date = ? AND is_daily_master = ? AND status = ?",
				date, false, models.StatusAdminApproved).
			Order("created_at DESC, id DESC").
			Find(&approved).Error; err != nil {
			return err
		}

		seen := make(map[uint]bool)
		for _, req := range approved {
			for _, re := range req.Employees {
				if seen[re.EmployeeID] {
					continue
				}
				seen[re.EmployeeID] = true
				row := models.RequestEmployee{
					RequestID:           master.ID,
					EmployeeID:          re.EmployeeID,
					EffectiveRouteID:    re.EffectiveRouteID,
					EffectiveSubRouteID: re.EffectiveSubRouteID,
				}
				if err := tx.Create(&row).Error; err != nil {
					return err
				}
				result.RosterSize++
			}
		}

		audit := models.ApprovalsAudit{
			RequestID:      master.ID,
			ActionByUserID: adminUserID,
			Action:         workflow.AuditActionLockRun,
		}
		if err := tx.Create(&audit).Error; err != nil {
			return err
		}
		result.MasterID = master.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
