package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/grouping"
	"shuttle_desk/internal/models"
)

// Reports are read-only views for the external PDF/Excel renderers. They run
// exclusively over finalized state: anything short of HR_FINAL_APPROVED is
// refused so a half-processed run can never leak into a printed manifest.

func loadFinalizedRequest(c *gin.Context) (*models.TransportRequest, bool) {
	req, ok := loadRequestByParam(c)
	if !ok {
		return nil, false
	}
	if req.Status != models.StatusHRFinalApproved {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "reports require status HR_FINAL_APPROVED, request is " + string(req.Status),
		})
		return nil, false
	}
	return req, true
}

// RouteRosterReport feeds the route-wise roster: one section per group, in
// the grouping engine's contractual order.
func RouteRosterReport(c *gin.Context) {
	req, ok := loadFinalizedRequest(c)
	if !ok {
		return
	}

	members, err := loadGroupMembers(config.DB, req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"request": req,
		"groups":  toGroupResponses(grouping.Compute(members)),
	})
}

// VehicleManifestReport feeds the per-vehicle manifest: each assignment with
// its vehicle, driver details and the passengers of the group it covers.
func VehicleManifestReport(c *gin.Context) {
	req, ok := loadFinalizedRequest(c)
	if !ok {
		return
	}

	members, err := loadGroupMembers(config.DB, req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	groups := grouping.Compute(members)

	var assignments []models.RequestAssignment
	if err := config.DB.Preload("Vehicle").Preload("Driver").
		Where("request_id = ?", req.ID).Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading assignments: " + err.Error()})
		return
	}

	type manifest struct {
		Assignment models.RequestAssignment `json:"assignment"`
		Seats      int                      `json:"seats"`
		Passengers []memberPayload          `json:"passengers"`
	}
	out := make([]manifest, 0, len(assignments))
	for _, a := range assignments {
		m := manifest{
			Assignment: a,
			Seats:      a.Vehicle.Capacity + a.OverbookAmount,
		}
		key := grouping.Key{RouteID: a.RouteID, SubRouteID: a.SubRouteID}
		for _, g := range groups {
			if !key.Covers(g.Key) {
				continue
			}
			for _, member := range g.Members {
				m.Passengers = append(m.Passengers, memberPayload{
					EmployeeID:   member.EmployeeID,
					EmpNo:        member.EmpNo,
					FullName:     member.FullName,
					DepartmentID: member.DepartmentID,
				})
			}
		}
		out = append(out, m)
	}
	c.JSON(http.StatusOK, gin.H{"request": req, "manifests": out})
}

// DepartmentRosterReport feeds the department-wise spreadsheet: passengers
// bucketed by owning department with their resolved routing.
func DepartmentRosterReport(c *gin.Context) {
	req, ok := loadFinalizedRequest(c)
	if !ok {
		return
	}

	members, err := loadGroupMembers(config.DB, req.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	var departments []models.Department
	if err := config.DB.Find(&departments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading departments: " + err.Error()})
		return
	}
	deptName := make(map[uint]string, len(departments))
	for _, d := range departments {
		deptName[d.ID] = d.Name
	}

	type passenger struct {
		memberPayload
		RouteNo *string `json:"route_no"`
		SubName *string `json:"sub_name"`
	}
	byDept := map[uint][]passenger{}
	for _, m := range members {
		byDept[m.DepartmentID] = append(byDept[m.DepartmentID], passenger{
			memberPayload: memberPayload{
				EmployeeID:   m.EmployeeID,
				EmpNo:        m.EmpNo,
				FullName:     m.FullName,
				DepartmentID: m.DepartmentID,
			},
			RouteNo: m.RouteNo,
			SubName: m.SubName,
		})
	}

	type deptSection struct {
		DepartmentID   uint        `json:"department_id"`
		DepartmentName string      `json:"department_name"`
		Headcount      int         `json:"headcount"`
		Passengers     interface{} `json:"passengers"`
	}
	out := make([]deptSection, 0, len(byDept))
	for id, list := range byDept {
		out = append(out, deptSection{
			DepartmentID:   id,
			DepartmentName: deptName[id],
			Headcount:      len(list),
			Passengers:     list,
		})
	}
	c.JSON(http.StatusOK, gin.H{"request": req, "departments": out})
}
