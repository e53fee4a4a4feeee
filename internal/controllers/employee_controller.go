package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/models"
)

// --- HOD employee management, always scoped to the HOD's own department ---

func hodDepartment(c *gin.Context) (uint, bool) {
	who := callerIdentity(c)
	if who.DepartmentID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "no department scope on this account"})
		return 0, false
	}
	return *who.DepartmentID, true
}

// ListEmployees returns the HOD's department roster.
func ListEmployees(c *gin.Context) {
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}

	var employees []models.Employee
	if err := config.DB.Where("department_id = ?", deptID).
		Preload("DefaultRoute").Preload("DefaultSubRoute").
		Order("emp_no ASC").Find(&employees).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing employees: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employees": employees})
}

// CreateEmployee lets a HOD add a transported person directly (no login).
func CreateEmployee(c *gin.Context) {
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}

	var input struct {
		EmpNo             string `json:"emp_no" binding:"required"`
		FullName          string `json:"full_name" binding:"required"`
		DefaultRouteID    *uint  `json:"default_route_id"`
		DefaultSubRouteID *uint  `json:"default_sub_route_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee input: " + err.Error()})
		return
	}
	if err := checkRoutingPair(config.DB, input.DefaultRouteID, input.DefaultSubRouteID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	employee := models.Employee{
		EmpNo:             input.EmpNo,
		FullName:          input.FullName,
		DepartmentID:      deptID,
		DefaultRouteID:    input.DefaultRouteID,
		DefaultSubRouteID: input.DefaultSubRouteID,
		IsActive:          true,
	}
	if err := config.DB.Create(&employee).Error; err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "emp_no already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create employee: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"employee": employee})
}

// UpdateEmployee changes an employee's default routing or active flag.
func UpdateEmployee(c *gin.Context) {
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}
	empID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee ID format."})
		return
	}

	var employee models.Employee
	if err := config.DB.Where("id = ? AND department_id = ?", uint(empID), deptID).
		First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Employee not found in your department."})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error: " + err.Error()})
		}
		return
	}

	var input struct {
		FullName          *string `json:"full_name"`
		DefaultRouteID    *uint   `json:"default_route_id"`
		DefaultSubRouteID *uint   `json:"default_sub_route_id"`
		ClearRouting      bool    `json:"clear_routing"`
		IsActive          *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid update: " + err.Error()})
		return
	}

	if input.FullName != nil {
		employee.FullName = *input.FullName
	}
	if input.ClearRouting {
		employee.DefaultRouteID = nil
		employee.DefaultSubRouteID = nil
	}
	if input.DefaultRouteID != nil {
		employee.DefaultRouteID = input.DefaultRouteID
	}
	if input.DefaultSubRouteID != nil {
		employee.DefaultSubRouteID = input.DefaultSubRouteID
	}
	if err := checkRoutingPair(config.DB, employee.DefaultRouteID, employee.DefaultSubRouteID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}

	if err := config.DB.Save(&employee).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update employee: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"employee": employee})
}

// checkRoutingPair validates that referenced route/sub-route exist and that
// the sub-route actually belongs to the route.
func checkRoutingPair(db *gorm.DB, routeID, subRouteID *uint) error {
	if subRouteID != nil && routeID == nil {
		return errors.New("default_sub_route_id requires default_route_id")
	}
	if routeID != nil {
		var route models.Route
		if err := db.First(&route, *routeID).Error; err != nil {
			return errors.New("route does not exist")
		}
	}
	if subRouteID != nil {
		var sub models.SubRoute
		if err := db.Where("id = ? AND route_id = ?", *subRouteID, *routeID).First(&sub).Error; err != nil {
			return errors.New("sub-route does not exist on that route")
		}
	}
	return nil
}

// ListPendingEmployeeUsers shows EMP signups waiting on this HOD.
func ListPendingEmployeeUsers(c *gin.Context) {
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}

	var users []models.User
	if err := config.DB.Where("department_id = ? AND status = ? AND role = ?",
		deptID, models.UserPendingHOD, models.RoleEmp).
		Preload("Employee").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing pending users: " + err.Error()})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, prepareUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// DecideEmployeeUser approves or rejects a pending EMP signup in the HOD's
// department. Approval activates the login; rejection disables it.
func DecideEmployeeUser(c *gin.Context) {
	deptID, ok := hodDepartment(c)
	if !ok {
		return
	}
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
	if err := config.DB.Where("id = ? AND department_id = ? AND role = ?",
		uint(userID), deptID, models.RoleEmp).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pending user not found in your department."})
		return
	}
	if user.Status != models.UserPendingHOD {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is not awaiting HOD approval (status " + string(user.Status) + ")"})
		return
	}

	newStatus := models.UserDisabled
	if input.Approve {
		newStatus = models.UserActive
	}
	res := config.DB.Model(&models.User{}).
		Where("id = ? AND status = ?", user.ID, models.UserPendingHOD).
		Update("status", newStatus)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user: " + res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "user status changed concurrently"})
		return
	}

	logrus.WithField("user_id", user.ID).WithField("status", newStatus).
		Info("DecideEmployeeUser: pending signup resolved")
	c.JSON(http.StatusOK, gin.H{"message": "decision recorded", "status": newStatus})
}
