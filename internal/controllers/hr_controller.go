package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/models"
	"shuttle_desk/internal/workflow"
)

// ListPendingOverbookRequests shows requests parked at the HR capacity gate,
// each with the assignments that triggered it.
func ListPendingOverbookRequests(c *gin.Context) {
	var requests []models.TransportRequest
	if err := config.DB.Where("status = ?", models.StatusTAAssignedPendingHR).
		Preload("Department").
		Preload("Assignments", "overbook_amount > 0").
		Preload("Assignments.Vehicle").
		Order("request_date ASC").Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing requests: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// DecideOverbook resolves the capacity-exception gate. Approval sends the
// request on to TA_ASSIGNED; rejection routes it back to the TA as
// TA_FIX_REQUIRED. Every overbooked assignment row is stamped with the
// outcome in the same transaction.
func DecideOverbook(c *gin.Context) {
	who := callerIdentity(c)
	req, ok := loadRequestByParam(c)
	if !ok {
		return
	}

	var input struct {
		Approve bool   `json:"approve"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid decision payload: " + err.Error()})
		return
	}
	if !input.Approve && input.Comment == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a comment is required when rejecting an overbook"})
		return
	}

	event := workflow.EventHRRejectOverbook
	if input.Approve {
		event = workflow.EventHRApproveOverbook
	}
	resolution, _ := workflow.OverbookResolution(event)

	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := applyTransition(tx, req, event, who, input.Comment); err != nil {
			return err
		}
		return tx.Model(&models.RequestAssignment{}).
			Where("request_id = ? AND overbook_amount > 0", req.ID).
			Update("overbook_status", resolution).Error
	})
	if txErr != nil {
		respondError(c, txErr)
		return
	}

	logrus.WithField("request_id", req.ID).WithField("approved", input.Approve).
		Info("DecideOverbook: capacity exception resolved")
	c.JSON(http.StatusOK, gin.H{"request": req})
}

// ListFinalizableRequests shows requests ready for the final HR sign-off.
func ListFinalizableRequests(c *gin.Context) {
	var requests []models.TransportRequest
	if err := config.DB.Where("status = ?", models.StatusTAAssigned).
		Preload("Department").Order("request_date ASC").
		Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing requests: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// FinalApprove is the terminal HR sign-off; after it the request is frozen
// and reports may run.
func FinalApprove(c *gin.Context) {
	who := callerIdentity(c)
	req, ok := loadRequestByParam(c)
	if !ok {
		return
	}

	txErr := config.DB.Transaction(func(tx *gorm.DB) error {
		return applyTransition(tx, req, workflow.EventHRFinalApprove, who, "")
	})
	if txErr != nil {
		respondError(c, txErr)
		return
	}

	logrus.WithField("request_id", req.ID).Info("FinalApprove: request finalized")
	c.JSON(http.StatusOK, gin.H{"request": req})
}
