package consolidate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shuttle_desk/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Department{}, &models.Employee{}, &models.User{},
		&models.Route{}, &models.SubRoute{}, &models.Vehicle{}, &models.VehicleRoute{},
		&models.Driver{}, &models.TransportRequest{}, &models.RequestEmployee{},
		&models.RequestAssignment{}, &models.ApprovalsAudit{}, &models.PasswordReset{},
	))
	return db
}

func uptr(v uint) *uint { return &v }

func seedDeptRequest(t *testing.T, db *gorm.DB, deptID uint, date string, createdAt time.Time,
	status models.RequestStatus, employees ...models.RequestEmployee) models.TransportRequest {
	t.Helper()
	req := models.TransportRequest{
		RequestDate:     date,
		RequestTime:     "07:30",
		DepartmentID:    &deptID,
		CreatedByUserID: 1,
		Status:          status,
	}
	req.CreatedAt = createdAt
	require.NoError(t, db.Create(&req).Error)
	for i := range employees {
		employees[i].RequestID = req.ID
		require.NoError(t, db.Create(&employees[i]).Error)
	}
	return req
}

func TestLockDailyRunMergesDepartments(t *testing.T) {
	db := openTestDB(t)
	date := "2025-03-10"
	base := time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC)

	seedDeptRequest(t, db, 1, date, base, models.StatusSubmitted,
		models.RequestEmployee{EmployeeID: 101, EffectiveRouteID: uptr(1)},
		models.RequestEmployee{EmployeeID: 102},
	)
	seedDeptRequest(t, db, 2, date, base.Add(time.Hour), models.StatusSubmitted,
		models.RequestEmployee{EmployeeID: 201, EffectiveRouteID: uptr(2), EffectiveSubRouteID: uptr(5)},
	)

	res, err := LockDailyRun(db, date, 9)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ApprovedRequests)
	assert.Equal(t, 3, res.RosterSize)

	var master models.TransportRequest
	require.NoError(t, db.Preload("Employees").
		Where("request_date = ? AND is_daily_master = ?", date, true).First(&master).Error)
	assert.Nil(t, master.DepartmentID)
	assert.Equal(t, MasterRequestTime, master.RequestTime)
	assert.Equal(t, models.StatusAdminApproved, master.Status)
	assert.Len(t, master.Employees, 3)

	// Department requests got approved and audited individually, plus the
	// single lock-run entry on the master.
	var approvedCount int64
	db.Model(&models.TransportRequest{}).
		Where("request_date = ? AND is_daily_master = ? AND status = ?", date, false, models.StatusAdminApproved).
		Count(&approvedCount)
	assert.EqualValues(t, 2, approvedCount)

	var audits []models.ApprovalsAudit
	require.NoError(t, db.Find(&audits).Error)
	actions := map[string]int{}
	for _, a := range audits {
		actions[a.Action]++
	}
	assert.Equal(t, 2, actions["ADMIN_APPROVE"])
	assert.Equal(t, 1, actions["ADMIN_LOCK_RUN"])
}

func TestLockDailyRunDeduplicatesNewestWins(t *testing.T) {
	db := openTestDB(t)
	date := "2025-03-11"
	base := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	// Employee 300 shows up in two submissions with different overrides;
	// the later-created request must win.
	seedDeptRequest(t, db, 1, date, base, models.StatusSubmitted,
		models.RequestEmployee{EmployeeID: 300, EffectiveRouteID: uptr(1)},
	)
	seedDeptRequest(t, db, 2, date, base.Add(2*time.Hour), models.StatusSubmitted,
		models.RequestEmployee{EmployeeID: 300, EffectiveRouteID: uptr(7), EffectiveSubRouteID: uptr(3)},
	)

	res, err := LockDailyRun(db, date, 9)
	require.NoError(t, err)
	assert.Equal(t, 1, res.RosterSize)

	var rows []models.RequestEmployee
	require.NoError(t, db.Where("request_id = ?", res.MasterID).Find(&rows).Error)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].EffectiveRouteID)
	assert.EqualValues(t, 7, *rows[0].EffectiveRouteID)
	require.NotNil(t, rows[0].EffectiveSubRouteID)
	assert.EqualValues(t, 3, *rows[0].EffectiveSubRouteID)
}

func TestLockDailyRunIdempotent(t *testing.T) {
	db := openTestDB(t)
	date := "2025-03-12"
	base := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)

	seedDeptRequest(t, db, 1, date, base, models.StatusSubmitted,
		models.RequestEmployee{EmployeeID: 401},
		models.RequestEmployee{EmployeeID: 402},
	)

	first, err := LockDailyRun(db, date, 9)
	require.NoError(t, err)
	second, err := LockDailyRun(db, date, 9)
	require.NoError(t, err)

	assert.Equal(t, first.MasterID, second.MasterID)
	assert.Equal(t, first.RosterSize, second.RosterSize)
	assert.Equal(t, 0, second.ApprovedRequests, "nothing left to approve on the second pass")

	var count int64
	db.Model(&models.RequestEmployee{}).Where("request_id = ?", first.MasterID).Count(&count)
	assert.EqualValues(t, 2, count, "roster rebuilt, not appended")

	var masters int64
	db.Model(&models.TransportRequest{}).
		Where("request_date = ? AND is_daily_master = ?", date, true).Count(&masters)
	assert.EqualValues(t, 1, masters)
}

func TestLockDailyRunRefusesWhenDownstream(t *testing.T) {
	db := openTestDB(t)
	date := "2025-03-13"

	master := models.TransportRequest{
		RequestDate:     date,
		RequestTime:     MasterRequestTime,
		CreatedByUserID: 9,
		Status:          models.StatusTAAssigned,
		IsDailyMaster:   true,
	}
	require.NoError(t, db.Create(&master).Error)

	_, err := LockDailyRun(db, date, 9)
	require.Error(t, err)

	var ipe *InProgressError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, models.StatusTAAssigned, ipe.Status)
}

func TestPrecheckStates(t *testing.T) {
	db := openTestDB(t)

	pre, master, err := Precheck(db, "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, Ok, pre)
	assert.Nil(t, master)

	m := models.TransportRequest{
		RequestDate: "2025-04-01", RequestTime: MasterRequestTime,
		CreatedByUserID: 9, Status: models.StatusAdminApproved, IsDailyMaster: true,
	}
	require.NoError(t, db.Create(&m).Error)

	pre, master, err = Precheck(db, "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, Ok, pre, "a master still at ADMIN_APPROVED may be re-locked")
	require.NotNil(t, master)

	require.NoError(t, db.Model(&m).Update("status", models.StatusHRFinalApproved).Error)
	pre, _, err = Precheck(db, "2025-04-01")
	require.NoError(t, err)
	assert.Equal(t, AlreadyInProgress, pre)
}
