package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shuttle_desk/internal/capacity"
	"shuttle_desk/internal/config"
	"shuttle_desk/internal/grouping"
	"shuttle_desk/internal/models"
	"shuttle_desk/internal/workflow"
)

// ListAssignableRequests returns the requests currently in the TA's hands.
func ListAssignableRequests(c *gin.Context) {
	var requests []models.TransportRequest
	if err := config.DB.Where("status IN ?", []models.RequestStatus{
		models.StatusAdminApproved,
		models.StatusTAFixRequired,
		models.StatusTAAssignedPendingHR,
		models.StatusTAAssigned,
	}).Preload("Department").Order("request_date ASC").Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing requests: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

func loadRequestByParam(c *gin.Context) (*models.TransportRequest, bool) {
	reqID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID format."})
		return nil, false
	}
	var req models.TransportRequest
	if err := config.DB.First(&req, uint(reqID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return nil, false
	}
	return &req, true
}

// GetRequestGroups is the TA working view: each (route, sub-route) group with
// its headcount, plus the assignments already covering it and their summed
// seats.
func GetRequestGroups(c *gin.Context) {
	req, ok := loadRequestByParam(c)
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

	type groupWithAssignments struct {
		groupResponse
		Assignments []models.RequestAssignment `json:"assignments"`
		Seats       int                        `json:"seats"`
	}
	responses := toGroupResponses(groups)
	out := make([]groupWithAssignments, 0, len(groups))
	for i, g := range groups {
		covering := assignmentsForGroup(assignments, g.Key)
		seats := 0
		for _, a := range covering {
			seats += a.Vehicle.Capacity + a.OverbookAmount
		}
		out = append(out, groupWithAssignments{
			groupResponse: responses[i],
			Assignments:   covering,
			Seats:         seats,
		})
	}
	c.JSON(http.StatusOK, gin.H{"request": req, "groups": out})
}

// SaveAssignment puts one vehicle on one group. Overbook rules are enforced
// here at save time; overbook_status is always server-derived and starts at
// NONE no matter what the client sent.
func SaveAssignment(c *gin.Context) {
	req, ok := loadRequestByParam(c)
	if !ok {
		return
	}
	if !workflow.CanTASaveAssignment(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "assignments are not editable from status " + string(req.Status) +
				"; requires status ADMIN_APPROVED, TA_FIX_REQUIRED or TA_ASSIGNED_PENDING_HR",
		})
		return
	}

	var input struct {
		RouteID        *uint  `json:"route_id"`
		SubRouteID     *uint  `json:"sub_route_id"`
		VehicleID      uint   `json:"vehicle_id" binding:"required"`
		DriverID       *uint  `json:"driver_id"`
		DriverName     string `json:"driver_name"`
		DriverPhone    string `json:"driver_phone"`
		Instructions   string `json:"instructions"`
		OverbookAmount int    `json:"overbook_amount"`
		OverbookReason string `json:"overbook_reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment input: " + err.Error()})
		return
	}

	if err := capacity.CheckOverbook(input.OverbookAmount, input.OverbookReason); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := checkRoutingPair(config.DB, input.RouteID, input.SubRouteID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var vehicle models.Vehicle
	if err := config.DB.First(&vehicle, input.VehicleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found."})
		return
	}
	if input.RouteID != nil {
		var coverage models.VehicleRoute
		if err := config.DB.Where("vehicle_id = ? AND route_id = ?", vehicle.ID, *input.RouteID).
			First(&coverage).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle does not cover that route"})
			return
		}
	}
	if input.DriverID != nil {
		var driver models.Driver
		if err := config.DB.First(&driver, *input.DriverID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Driver not found."})
			return
		}
	}

	assignment := models.RequestAssignment{
		RequestID:      req.ID,
		RouteID:        input.RouteID,
		SubRouteID:     input.SubRouteID,
		VehicleID:      input.VehicleID,
		DriverID:       input.DriverID,
		DriverName:     input.DriverName,
		DriverPhone:    input.DriverPhone,
		Instructions:   input.Instructions,
		OverbookAmount: input.OverbookAmount,
		OverbookReason: input.OverbookReason,
		OverbookStatus: models.OverbookNone,
	}
	if err := config.DB.Create(&assignment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save assignment: " + err.Error()})
		return
	}

	config.DB.Preload("Vehicle").Preload("Driver").First(&assignment, assignment.ID)
	c.JSON(http.StatusCreated, gin.H{"assignment": assignment})
}

// DeleteAssignment removes a single vehicle assignment while the request is
// still editable by the TA. The assignment must belong to the request named
// in the path.
func DeleteAssignment(c *gin.Context) {
	reqID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID format."})
		return
	}
	assignID, err := strconv.ParseUint(c.Param("assignmentId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignment ID format."})
		return
	}

	var assignment models.RequestAssignment
	if err := config.DB.Where("id = ? AND request_id = ?", uint(assignID), uint(reqID)).
		First(&assignment).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Assignment not found on that request."})
		return
	}
	var req models.TransportRequest
	if err := config.DB.First(&req, assignment.RequestID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		return
	}
	if !workflow.CanTASaveAssignment(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "assignments are not editable from status " + string(req.Status),
		})
		return
	}

	config.DB.Delete(&assignment)
	c.JSON(http.StatusOK, gin.H{"message": "Assignment deleted"})
}

// SubmitAssignments runs the capacity check over every group and moves the
// request forward: TA_ASSIGNED when no overbook seat was used, or
// TA_ASSIGNED_PENDING_HR when any assignment leans on one. Which of the two
// events fires is derived from the stored rows, never from the client.
func SubmitAssignments(c *gin.Context) {
	who := callerIdentity(c)
	req, ok := loadRequestByParam(c)
	if !ok {
		return
	}
	if !workflow.CanTASubmit(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "cannot submit assignments from status " + string(req.Status) +
				"; requires status ADMIN_APPROVED, TA_FIX_REQUIRED or TA_ASSIGNED",
		})
		return
	}

	members, err := loadGroupMembers(config.DB, req.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	groups := grouping.Compute(members)

	var assignments []models.RequestAssignment
	if err := config.DB.Preload("Vehicle").
		Where("request_id = ?", req.ID).Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading assignments: " + err.Error()})
		return
	}

	for _, g := range groups {
		covering := assignmentsForGroup(assignments, g.Key)
		assigned := make([]capacity.Assigned, 0, len(covering))
		for _, a := range covering {
			assigned = append(assigned, capacity.Assigned{
				Capacity: a.Vehicle.Capacity,
				Overbook: a.OverbookAmount,
			})
		}
		if err := capacity.Validate(g.Headcount, assigned); err != nil {
			respondError(c, err)
			return
		}
	}

	overbookUsed := false
	for _, a := range assignments {
		if a.OverbookAmount > 0 {
			overbookUsed = true
			break
		}
	}
	event := workflow.EventTASubmit
	if overbookUsed {
		event = workflow.EventTASubmitOverbook
	}

	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := applyTransition(tx, req, event, who, ""); err != nil {
			return err
		}
		if overbookUsed {
			return tx.Model(&models.RequestAssignment{}).
				Where("request_id = ? AND overbook_amount > 0", req.ID).
				Update("overbook_status", models.OverbookPendingHR).Error
		}
		return nil
	})
	if txErr != nil {
		respondError(c, txErr)
		return
	}

	logrus.WithField("request_id", req.ID).WithField("status", req.Status).
		Info("SubmitAssignments: assignments submitted")
	c.JSON(http.StatusOK, gin.H{"request": req})
}
