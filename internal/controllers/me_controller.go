package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/grouping"
	"shuttle_desk/internal/models"
)

// GetMyProfile returns the authenticated employee's record and defaults.
func GetMyProfile(c *gin.Context) {
	who := callerIdentity(c)
	if who.EmployeeID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no employee record linked to this account"})
		return
	}

	var employee models.Employee
	if err := config.DB.Preload("Department").
		Preload("DefaultRoute").Preload("DefaultSubRoute").
		First(&employee, *who.EmployeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Employee record not found."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": employee})
}

// GetMySchedule tells an employee their pickup for a date, once the daily
// run has been finalized: their group's route plus the vehicles covering it.
func GetMySchedule(c *gin.Context) {
	who := callerIdentity(c)
	if who.EmployeeID == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no employee record linked to this account"})
		return
	}
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	var master models.TransportRequest
	if err := config.DB.Where("request_date = ? AND is_daily_master = ? AND status = ?",
		date, true, models.StatusHRFinalApproved).First(&master).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no finalized run for that date"})
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
	var mine *grouping.Group
	for _, g := range grouping.Compute(members) {
		for _, m := range g.Members {
			if m.EmployeeID == *who.EmployeeID {
				mine = &g
				break
			}
		}
		if mine != nil {
			break
		}
	}
	if mine == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "you are not on the run for that date"})
		return
	}

	var assignments []models.RequestAssignment
	if err := config.DB.Preload("Vehicle").Preload("Driver").
		Where("request_id = ?", master.ID).Find(&assignments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error loading assignments: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":       date,
		"route_no":   mine.RouteNo,
		"route_name": mine.RouteName,
		"sub_name":   mine.SubName,
		"vehicles":   assignmentsForGroup(assignments, mine.Key),
	})
}
