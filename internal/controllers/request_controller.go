package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/grouping"
	"shuttle_desk/internal/models"
	"shuttle_desk/internal/workflow"
)

type rosterEntry struct {
	EmployeeID          uint  `json:"employee_id" binding:"required"`
	EffectiveRouteID    *uint `json:"effective_route_id"`
	EffectiveSubRouteID *uint `json:"effective_sub_route_id"`
}

// CreateRequest opens a DRAFT transport request for the HOD's department.
// Roster entries may override each employee's default routing; an entry
// without an override keeps the registered default.
func CreateRequest(c *gin.Context) {
	who := callerIdentity(c)
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}

	var input struct {
		RequestDate string        `json:"request_date" binding:"required"`
		RequestTime string        `json:"request_time"`
		Notes       string        `json:"notes"`
		Employees   []rosterEntry `json:"employees"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request input: " + err.Error()})
		return
	}
	if _, err := time.Parse("2006-01-02", input.RequestDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request_date must be YYYY-MM-DD"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}

	req := models.TransportRequest{
		RequestDate:     input.RequestDate,
		RequestTime:     input.RequestTime,
		DepartmentID:    &deptID,
		CreatedByUserID: who.UserID,
		Status:          models.StatusDraft,
		Notes:           input.Notes,
	}
	if err := tx.Create(&req).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Create request failed: " + err.Error()})
		return
	}
	if err := insertRoster(tx, req.ID, deptID, input.Employees); err != nil {
		tx.Rollback()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	config.DB.Preload("Employees").First(&req, req.ID)
	c.JSON(http.StatusCreated, gin.H{"request": req})
}

// insertRoster writes RequestEmployee rows after checking each employee is an
// active member of the HOD's department.
func insertRoster(tx *gorm.DB, requestID, deptID uint, entries []rosterEntry) error {
	for _, e := range entries {
		var employee models.Employee
		if err := tx.Where("id = ? AND department_id = ? AND is_active = ?",
			e.EmployeeID, deptID, true).First(&employee).Error; err != nil {
			return errors.New("employee " + strconv.FormatUint(uint64(e.EmployeeID), 10) + " is not an active member of your department")
		}
		if err := checkRoutingPair(tx, e.EffectiveRouteID, e.EffectiveSubRouteID); err != nil {
			return err
		}
		row := models.RequestEmployee{
			RequestID:           requestID,
			EmployeeID:          e.EmployeeID,
			EffectiveRouteID:    e.EffectiveRouteID,
			EffectiveSubRouteID: e.EffectiveSubRouteID,
		}
		if err := tx.Create(&row).Error; err != nil {
			return errors.New("could not add employee to roster: " + err.Error())
		}
	}
	return nil
}

// getDepartmentRequest loads a request owned by the caller's department.
func getDepartmentRequest(c *gin.Context, deptID uint) (*models.TransportRequest, bool) {
	reqID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID format."})
		return nil, false
	}
	var req models.TransportRequest
	if err := config.DB.Where("id = ? AND department_id = ? AND is_daily_master = ?",
		uint(reqID), deptID, false).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found in your department."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return nil, false
	}
	return &req, true
}

// GetRequest returns one department request with its roster and groups.
func GetRequest(c *gin.Context) {
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}
	req, ok := getDepartmentRequest(c, deptID)
	if !ok {
		return
	}

	config.DB.Preload("Employees.Employee").First(req, req.ID)

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

// ListDepartmentRequests returns the HOD's requests, newest first.
func ListDepartmentRequests(c *gin.Context) {
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}

	var requests []models.TransportRequest
	if err := config.DB.Where("department_id = ? AND is_daily_master = ?", deptID, false).
		Order("created_at DESC").Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing requests: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// UpdateRoster replaces the request's employee list wholesale. Allowed only
// while the request is still in the HOD-editable window; once an approval
// gate has passed the roster is frozen.
func UpdateRoster(c *gin.Context) {
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}
	req, ok := getDepartmentRequest(c, deptID)
	if !ok {
		return
	}
	if !workflow.CanHODEdit(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "roster is no longer editable from status " + string(req.Status) +
				"; requires status DRAFT or SUBMITTED",
		})
		return
	}

	var input struct {
		Employees []rosterEntry `json:"employees" binding:"required"`
		Notes     *string       `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start transaction"})
		return
	}
	// Hard delete so the (request_id, employee_id) unique index does not
	// trip over soft-deleted rows on re-add.
	if err := tx.Unscoped().Where("request_id = ?", req.ID).
		Delete(&models.RequestEmployee{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear roster: " + err.Error()})
		return
	}
	if err := insertRoster(tx, req.ID, deptID, input.Employees); err != nil {
		tx.Rollback()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Notes != nil {
		if err := tx.Model(req).Update("notes", *input.Notes).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notes: " + err.Error()})
			return
		}
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Transaction commit failed: " + err.Error()})
		return
	}

	config.DB.Preload("Employees").First(req, req.ID)
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// SubmitRequest moves a DRAFT (or already SUBMITTED) request to SUBMITTED.
func SubmitRequest(c *gin.Context) {
	who := callerIdentity(c)
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}
	req, ok := getDepartmentRequest(c, deptID)
	if !ok {
		return
	}

	var count int64
	config.DB.Model(&models.RequestEmployee{}).Where("request_id = ?", req.ID).Count(&count)
	if count == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot submit a request with an empty roster"})
		return
	}

	err := config.DB.Transaction(func(tx *gorm.DB) error {
		return applyTransition(tx, req, workflow.EventHODSubmit, who, "")
	})
	if err != nil {
		respondError(c, err)
		return
	}

	logrus.WithField("request_id", req.ID).Info("SubmitRequest: department request submitted")
	c.JSON(http.StatusOK, gin.H{"request": req})
}
