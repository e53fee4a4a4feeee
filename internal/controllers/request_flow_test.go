package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/models"
	"shuttle_desk/internal/routes"
)

// testEnv wires the real router against an in-memory database with one
// account per role and enough reference data to run a full day's workflow.
type testEnv struct {
	router *gin.Engine

	adminToken string
	hodToken   string
	taToken    string
	hrToken    string

	dept     models.Department
	route1   models.Route
	route2   models.Route
	sub5     models.SubRoute
	van4     models.Vehicle
	bus5     models.Vehicle
	vanSpare models.Vehicle
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	config.DB = db

	env := &testEnv{router: routes.SetupRouter()}

	env.dept = models.Department{Name: "Engineering"}
	require.NoError(t, db.Create(&env.dept).Error)

	env.route1 = models.Route{RouteNo: "01", RouteName: "North Loop"}
	env.route2 = models.Route{RouteNo: "02", RouteName: "South Loop"}
	require.NoError(t, db.Create(&env.route1).Error)
	require.NoError(t, db.Create(&env.route2).Error)
	env.sub5 = models.SubRoute{RouteID: env.route2.ID, SubName: "Gate B"}
	require.NoError(t, db.Create(&env.sub5).Error)

	env.van4 = models.Vehicle{VehicleNo: "V-004", VehicleType: models.VehicleVan, Capacity: 4}
	env.bus5 = models.Vehicle{VehicleNo: "B-005", VehicleType: models.VehicleBus, Capacity: 5}
	env.vanSpare = models.Vehicle{VehicleNo: "V-009", VehicleType: models.VehicleVan, Capacity: 9}
	require.NoError(t, db.Create(&env.van4).Error)
	require.NoError(t, db.Create(&env.bus5).Error)
	require.NoError(t, db.Create(&env.vanSpare).Error)
	for _, v := range []models.Vehicle{env.van4, env.bus5, env.vanSpare} {
		require.NoError(t, db.Create(&models.VehicleRoute{VehicleID: v.ID, RouteID: env.route1.ID}).Error)
		require.NoError(t, db.Create(&models.VehicleRoute{VehicleID: v.ID, RouteID: env.route2.ID}).Error)
	}

	env.adminToken = env.seedUser(t, db, "admin@corp.test", models.RoleAdmin, nil, nil)
	hodEmp := env.seedEmployee(t, db, "H-001", "Head Of Eng", &env.route1.ID, nil)
	env.hodToken = env.seedUser(t, db, "hod@corp.test", models.RoleHOD, &env.dept.ID, &hodEmp.ID)
	env.taToken = env.seedUser(t, db, "ta@corp.test", models.RoleTA, nil, nil)
	env.hrToken = env.seedUser(t, db, "hr@corp.test", models.RoleHR, nil, nil)

	return env
}

func (e *testEnv) seedEmployee(t *testing.T, db *gorm.DB, empNo, name string, routeID, subID *uint) models.Employee {
	t.Helper()
	emp := models.Employee{
		EmpNo:             empNo,
		FullName:          name,
		DepartmentID:      e.dept.ID,
		DefaultRouteID:    routeID,
		DefaultSubRouteID: subID,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&emp).Error)
	return emp
}

func (e *testEnv) seedUser(t *testing.T, db *gorm.DB, email string, role models.UserRole, deptID, empID *uint) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password1"), bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		Email:        email,
		Password:     string(hash),
		Role:         role,
		Status:       models.UserActive,
		DepartmentID: deptID,
		EmployeeID:   empID,
	}
	require.NoError(t, db.Create(&user).Error)
	token, err := middleware.GenerateToken(user)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func requestStatus(t *testing.T, id uint) models.RequestStatus {
	t.Helper()
	var req models.TransportRequest
	require.NoError(t, config.DB.First(&req, id).Error)
	return req.Status
}

// createRosterRequest makes a HOD draft with the given roster and returns its id.
func (e *testEnv) createRosterRequest(t *testing.T, date string, roster []map[string]interface{}) uint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/hod/requests", e.hodToken, map[string]interface{}{
		"request_date": date,
		"request_time": "07:30",
		"employees":    roster,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody(t, w)
	req := body["request"].(map[string]interface{})
	return uint(req["ID"].(float64))
}

func TestFullWorkflowWithOverbookGate(t *testing.T) {
	env := newTestEnv(t)

	// Ten employees all on route 1: the capacity scenario group.
	roster := make([]map[string]interface{}, 0, 10)
	for i := 0; i < 10; i++ {
		emp := env.seedEmployee(t, config.DB, fmt.Sprintf("E-%03d", i), fmt.Sprintf("Emp %d", i), &env.route1.ID, nil)
		roster = append(roster, map[string]interface{}{"employee_id": emp.ID})
	}
	reqID := env.createRosterRequest(t, "2025-05-05", roster)

	// Admin approve before submission must fail naming SUBMITTED.
	w := env.do(t, http.MethodPost, fmt.Sprintf("/admin/requests/%d/approve", reqID), env.adminToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "SUBMITTED")
	assert.Contains(t, w.Body.String(), "DRAFT")

	// HOD submits, Admin approves.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/hod/requests/%d/submit", reqID), env.hodToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, fmt.Sprintf("/admin/requests/%d/approve", reqID), env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusAdminApproved, requestStatus(t, reqID))

	// Roster is frozen once past the HOD window.
	w = env.do(t, http.MethodPut, fmt.Sprintf("/hod/requests/%d/roster", reqID), env.hodToken,
		map[string]interface{}{"employees": roster[:1]})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "no longer editable")

	// TA assigns 4+5 seats against a headcount of 10.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/assignments", reqID), env.taToken,
		map[string]interface{}{"route_id": env.route1.ID, "vehicle_id": env.van4.ID, "driver_name": "Ali"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/assignments", reqID), env.taToken,
		map[string]interface{}{"route_id": env.route1.ID, "vehicle_id": env.bus5.ID, "driver_name": "Banu"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Submit must report the shortfall with the numbers.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/submit", reqID), env.taToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.EqualValues(t, 10, body["required"])
	assert.EqualValues(t, 9, body["available"])
	assert.Equal(t, models.StatusAdminApproved, requestStatus(t, reqID))

	// Overbook without a reason is rejected at save time.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/assignments", reqID), env.taToken,
		map[string]interface{}{"route_id": env.route1.ID, "vehicle_id": env.bus5.ID, "overbook_amount": 1})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "overbook_reason")

	// Re-add the bus with one overbooked seat and a reason: 4+5+1 = 10.
	var busAssignment models.RequestAssignment
	require.NoError(t, config.DB.Where("request_id = ? AND vehicle_id = ?", reqID, env.bus5.ID).
		First(&busAssignment).Error)
	w = env.do(t, http.MethodDelete,
		fmt.Sprintf("/ta/requests/%d/assignments/%d", reqID, busAssignment.ID), env.taToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/assignments", reqID), env.taToken,
		map[string]interface{}{
			"route_id": env.route1.ID, "vehicle_id": env.bus5.ID, "driver_name": "Banu",
			"overbook_amount": 1, "overbook_reason": "one standing seat cleared by fleet",
		})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Submit passes now and parks the request at the HR gate.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/submit", reqID), env.taToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusTAAssignedPendingHR, requestStatus(t, reqID))

	var pending int64
	config.DB.Model(&models.RequestAssignment{}).
		Where("request_id = ? AND overbook_status = ?", reqID, models.OverbookPendingHR).Count(&pending)
	assert.EqualValues(t, 1, pending)

	// HR rejects: back to the TA, overbooked rows stamped REJECTED.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/hr/overbooks/%d/decision", reqID), env.hrToken,
		map[string]interface{}{"approve": false, "comment": "find a bigger bus"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusTAFixRequired, requestStatus(t, reqID))
	var rejected int64
	config.DB.Model(&models.RequestAssignment{}).
		Where("request_id = ? AND overbook_amount > 0 AND overbook_status = ?", reqID, models.OverbookRejected).
		Count(&rejected)
	assert.EqualValues(t, 1, rejected)

	// TA resubmits unchanged; HR approves this time.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/submit", reqID), env.taToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusTAAssignedPendingHR, requestStatus(t, reqID))
	w = env.do(t, http.MethodPost, fmt.Sprintf("/hr/overbooks/%d/decision", reqID), env.hrToken,
		map[string]interface{}{"approve": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusTAAssigned, requestStatus(t, reqID))
	var approved int64
	config.DB.Model(&models.RequestAssignment{}).
		Where("request_id = ? AND overbook_amount > 0 AND overbook_status = ?", reqID, models.OverbookApproved).
		Count(&approved)
	assert.EqualValues(t, 1, approved)

	// Reports refuse anything short of final approval.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/reports/requests/%d/route-roster", reqID), env.hrToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "HR_FINAL_APPROVED")

	// HR final approval unlocks them.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/hr/requests/%d/final-approve", reqID), env.hrToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusHRFinalApproved, requestStatus(t, reqID))

	w = env.do(t, http.MethodGet, fmt.Sprintf("/reports/requests/%d/route-roster", reqID), env.hrToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = env.do(t, http.MethodGet, fmt.Sprintf("/reports/requests/%d/vehicle-manifest", reqID), env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Full trail: submit, approve, two TA submits, reject, approve, final.
	var audits []models.ApprovalsAudit
	require.NoError(t, config.DB.Where("request_id = ?", reqID).Order("id ASC").Find(&audits).Error)
	actions := make([]string, 0, len(audits))
	for _, a := range audits {
		actions = append(actions, a.Action)
	}
	assert.Equal(t, []string{
		"HOD_SUBMIT", "ADMIN_APPROVE",
		"TA_SUBMIT_OVERBOOK", "HR_REJECT_OVERBOOK",
		"TA_SUBMIT_OVERBOOK", "HR_APPROVE_OVERBOOK",
		"HR_FINAL_APPROVE",
	}, actions)
}

func TestGroupingEndpointSplitsRoster(t *testing.T) {
	env := newTestEnv(t)

	// 3 employees on (route 1, no sub) and 2 on (route 2, sub 5).
	roster := []map[string]interface{}{}
	for i := 0; i < 3; i++ {
		emp := env.seedEmployee(t, config.DB, fmt.Sprintf("A-%03d", i), "North rider", &env.route1.ID, nil)
		roster = append(roster, map[string]interface{}{"employee_id": emp.ID})
	}
	for i := 0; i < 2; i++ {
		emp := env.seedEmployee(t, config.DB, fmt.Sprintf("B-%03d", i), "South rider", nil, nil)
		roster = append(roster, map[string]interface{}{
			"employee_id":            emp.ID,
			"effective_route_id":     env.route2.ID,
			"effective_sub_route_id": env.sub5.ID,
		})
	}
	reqID := env.createRosterRequest(t, "2025-05-06", roster)

	w := env.do(t, http.MethodPost, fmt.Sprintf("/hod/requests/%d/submit", reqID), env.hodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/admin/requests/%d/approve", reqID), env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/ta/requests/%d/groups", reqID), env.taToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var payload struct {
		Groups []struct {
			RouteNo   *string `json:"route_no"`
			SubName   *string `json:"sub_name"`
			Headcount int     `json:"headcount"`
		} `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	require.Len(t, payload.Groups, 2)
	assert.Equal(t, "01", *payload.Groups[0].RouteNo)
	assert.Equal(t, 3, payload.Groups[0].Headcount)
	assert.Equal(t, "02", *payload.Groups[1].RouteNo)
	assert.Equal(t, "Gate B", *payload.Groups[1].SubName)
	assert.Equal(t, 2, payload.Groups[1].Headcount)
}

func TestLockRunEndpointBuildsMaster(t *testing.T) {
	env := newTestEnv(t)

	emp1 := env.seedEmployee(t, config.DB, "L-001", "Rider one", &env.route1.ID, nil)
	emp2 := env.seedEmployee(t, config.DB, "L-002", "Rider two", &env.route2.ID, &env.sub5.ID)
	reqID := env.createRosterRequest(t, "2025-05-07", []map[string]interface{}{
		{"employee_id": emp1.ID},
		{"employee_id": emp2.ID},
	})
	w := env.do(t, http.MethodPost, fmt.Sprintf("/hod/requests/%d/submit", reqID), env.hodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/admin/runs/lock", env.adminToken,
		map[string]interface{}{"date": "2025-05-07"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	result := body["result"].(map[string]interface{})
	assert.EqualValues(t, 1, result["approved_requests"])
	assert.EqualValues(t, 2, result["roster_size"])
	masterID := uint(result["master_id"].(float64))

	assert.Equal(t, models.StatusAdminApproved, requestStatus(t, reqID))
	assert.Equal(t, models.StatusAdminApproved, requestStatus(t, masterID))

	// Summary exposes the merged groups.
	w = env.do(t, http.MethodGet, "/admin/runs/2025-05-07", env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "ADMIN_LOCK_RUN")

	// The master flows through the same TA pipeline.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/assignments", masterID), env.taToken,
		map[string]interface{}{"route_id": env.route1.ID, "vehicle_id": env.vanSpare.ID, "driver_name": "Cira"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/assignments", masterID), env.taToken,
		map[string]interface{}{
			"route_id": env.route2.ID, "sub_route_id": env.sub5.ID,
			"vehicle_id": env.van4.ID, "driver_name": "Dana",
		})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/submit", masterID), env.taToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, models.StatusTAAssigned, requestStatus(t, masterID))

	// Once downstream, a re-lock is refused.
	w = env.do(t, http.MethodPost, "/admin/runs/lock", env.adminToken,
		map[string]interface{}{"date": "2025-05-07"})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "already in progress")
}

func TestRoleScopingOnMutations(t *testing.T) {
	env := newTestEnv(t)

	emp := env.seedEmployee(t, config.DB, "S-001", "Scoped rider", &env.route1.ID, nil)
	reqID := env.createRosterRequest(t, "2025-05-08", []map[string]interface{}{
		{"employee_id": emp.ID},
	})

	// The middleware gate rejects cross-role calls outright.
	w := env.do(t, http.MethodPost, fmt.Sprintf("/admin/requests/%d/approve", reqID), env.taToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/hod/requests/%d/submit", reqID), env.adminToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/submit", reqID), env.hrToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A wrong-role write must be refused before the controller runs: nothing
	// may persist, and the response is the gate's 403 rather than a
	// controller-shaped body.
	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/assignments", reqID), env.hrToken,
		map[string]interface{}{"route_id": env.route1.ID, "vehicle_id": env.van4.ID})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	var assignments int64
	config.DB.Model(&models.RequestAssignment{}).Count(&assignments)
	assert.EqualValues(t, 0, assignments)

	w = env.do(t, http.MethodPost, "/admin/departments", env.taToken,
		map[string]interface{}{"name": "Rogue Dept"})
	require.Equal(t, http.StatusForbidden, w.Code, w.Body.String())
	var departments int64
	config.DB.Model(&models.Department{}).Where("name = ?", "Rogue Dept").Count(&departments)
	assert.EqualValues(t, 0, departments)

	// Statuses untouched by any of the refused calls.
	assert.Equal(t, models.StatusDraft, requestStatus(t, reqID))

	// Unauthenticated calls never reach a controller.
	w = env.do(t, http.MethodPost, "/admin/runs/lock", "", map[string]interface{}{"date": "2025-05-08"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteAssignmentScopedToRequest(t *testing.T) {
	env := newTestEnv(t)

	emp := env.seedEmployee(t, config.DB, "X-001", "Lone rider", &env.route1.ID, nil)
	reqID := env.createRosterRequest(t, "2025-05-10", []map[string]interface{}{
		{"employee_id": emp.ID},
	})
	w := env.do(t, http.MethodPost, fmt.Sprintf("/hod/requests/%d/submit", reqID), env.hodToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, fmt.Sprintf("/admin/requests/%d/approve", reqID), env.adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, fmt.Sprintf("/ta/requests/%d/assignments", reqID), env.taToken,
		map[string]interface{}{"route_id": env.route1.ID, "vehicle_id": env.van4.ID, "driver_name": "Eli"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var assignment models.RequestAssignment
	require.NoError(t, config.DB.Where("request_id = ?", reqID).First(&assignment).Error)

	// Deleting through another request's path must not touch it.
	w = env.do(t, http.MethodDelete,
		fmt.Sprintf("/ta/requests/%d/assignments/%d", reqID+1, assignment.ID), env.taToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	var count int64
	config.DB.Model(&models.RequestAssignment{}).Where("id = ?", assignment.ID).Count(&count)
	assert.EqualValues(t, 1, count)

	// The owning request's path still works.
	w = env.do(t, http.MethodDelete,
		fmt.Sprintf("/ta/requests/%d/assignments/%d", reqID, assignment.ID), env.taToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	config.DB.Model(&models.RequestAssignment{}).Where("id = ?", assignment.ID).Count(&count)
	assert.EqualValues(t, 0, count)
}
