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
	"shuttle_desk/internal/consolidate"
	"shuttle_desk/internal/grouping"
	"shuttle_desk/internal/models"
	"shuttle_desk/internal/workflow"
)

// ListPendingUsers shows HOD/HR/TA signups awaiting admin approval.
func ListPendingUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Where("status = ?", models.UserPendingAdmin).
		Preload("Department").Preload("Employee").
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing pending users: " + err.Error()})
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, prepareUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// DecidePendingUser approves or rejects a PENDING_ADMIN signup.
func DecidePendingUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format."})
		return
	}
	var input struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid decision payload: " + err.Error()})
		return
	}

	var user models.User
	if err := config.DB.First(&user, uint(userID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found."})
		return
	}
	if user.Status != models.UserPendingAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is not awaiting admin approval (status " + string(user.Status) + ")"})
		return
	}

	newStatus := models.UserDisabled
	if input.Approve {
		newStatus = models.UserActive
	}
	res := config.DB.Model(&models.User{}).
		Where("id = ? AND status = ?", user.ID, models.UserPendingAdmin).
		Update("status", newStatus)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user: " + res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "user status changed concurrently"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "decision recorded", "status": newStatus})
}

// ListRequestsForApproval returns SUBMITTED department requests, optionally
// filtered to one date.
func ListRequestsForApproval(c *gin.Context) {
	q := config.DB.Where("is_daily_master = ? AND status = ?", false, models.StatusSubmitted)
	if date := c.Query("date"); date != "" {
		q = q.Where("request_date = ?", date)
	}
	var requests []models.TransportRequest
	if err := q.Preload("Department").Order("request_date ASC, created_at ASC").
		Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing requests: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ApproveRequest moves a single SUBMITTED request to ADMIN_APPROVED.
func ApproveRequest(c *gin.Context) {
	who := callerIdentity(c)
	reqID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID format."})
		return
	}

	var req models.TransportRequest
	if err := config.DB.Where("id = ? AND is_daily_master = ?", uint(reqID), false).
		First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}

	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		return applyTransition(tx, &req, workflow.EventAdminApprove, who, "")
	})
	if txErr != nil {
		respondError(c, txErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// LockDailyRun consolidates every department's submission for the date into
// the single daily master request.
func LockDailyRun(c *gin.Context) {
	who := callerIdentity(c)
	var input struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lock payload: " + err.Error()})
		return
	}
	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	result, err := consolidate.LockDailyRun(config.DB, input.Date, who.UserID)
	if err != nil {
		logrus.WithError(err).WithField("date", input.Date).Warn("LockDailyRun failed")
		respondError(c, err)
		return
	}

	logrus.WithField("date", input.Date).WithField("roster", result.RosterSize).
		Info("LockDailyRun: daily master locked")
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// RunSummary shows the daily master with its computed groups, assignments
// and audit trail.
func RunSummary(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	var master models.TransportRequest
	if err := config.DB.Where("request_date = ? AND is_daily_master = ?", date, true).
		Preload("Assignments.Vehicle").Preload("Assignments.Driver").
		First(&master).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No daily master for that date."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}

	members, err := loadGroupMembers(config.DB, master.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	var audits []models.ApprovalsAudit
	config.DB.Where("request_id = ?", master.ID).Order("created_at ASC").Find(&audits)

	c.JSON(http.StatusOK, gin.H{
		"master":      master,
		"groups":      toGroupResponses(grouping.Compute(members)),
		"assignments": master.Assignments,
		"audit":       audits,
	})
}

// ListAllUsers is the admin directory view.
func ListAllUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Preload("Department").Preload("Employee").
		Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing users: " + err.Error()})
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, prepareUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
