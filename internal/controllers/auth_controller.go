package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/models"
	"shuttle_desk/internal/notify"
)

type signupInput struct {
	FullName     string `json:"full_name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	Role         string `json:"role"`
	DepartmentID uint   `json:"department_id"`
	EmpNo        string `json:"emp_no"`
}

// SignupUser registers a new login. Accounts are never active on creation:
// EMP waits on its HOD, everything else waits on an Admin. EMP and HOD
// signups also create the linked Employee row.
func SignupUser(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := validateAndNormalizeRole(input.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if role == models.RoleEmp || role == models.RoleHOD {
		if input.DepartmentID == 0 || input.EmpNo == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "department_id and emp_no are required for employee and HOD signups"})
			return
		}
	}

	hashedPassword, err := hashPassword(input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	status := models.UserPendingAdmin
	if role == models.RoleEmp {
		status = models.UserPendingHOD
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transaction"})
		return
	}

	user := models.User{
		Email:    input.Email,
		Password: hashedPassword,
		Role:     role,
		Status:   status,
	}
	if input.DepartmentID != 0 {
		dept := input.DepartmentID
		var department models.Department
		if err := tx.First(&department, dept).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusNotFound, gin.H{"error": "department does not exist"})
			return
		}
		user.DepartmentID = &dept
	}
	if err := tx.Create(&user).Error; err != nil {
		tx.Rollback()
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "email already in use"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create user: " + err.Error()})
		return
	}

	if role == models.RoleEmp || role == models.RoleHOD {
		employee := models.Employee{
			EmpNo:        input.EmpNo,
			FullName:     input.FullName,
			DepartmentID: input.DepartmentID,
			IsActive:     true,
		}
		if err := tx.Create(&employee).Error; err != nil {
			tx.Rollback()
			if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "emp_no already registered"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create employee record: " + err.Error()})
			return
		}
		user.EmployeeID = &employee.ID
		if err := tx.Save(&user).Error; err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not link employee record: " + err.Error()})
			return
		}
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "registration received, awaiting approval",
		"user":    prepareUserResponse(user),
	})
}

// LoginUser authenticates an ACTIVE login and issues the workflow token.
func LoginUser(c *gin.Context) {
	var body struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	query := config.DB.Where("email = ?", body.Email).
		Preload("Department").
		Preload("Employee")
	if err := query.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found or invalid credentials"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(body.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password"})
		return
	}
	if user.Status != models.UserActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "account is not active (status " + string(user.Status) + ")"})
		return
	}

	token, err := middleware.GenerateToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  prepareUserResponse(user),
	})
}

// otpTTL bounds how long a delivered reset code stays redeemable.
const otpTTL = 15 * time.Minute

// RequestPasswordReset issues a one-time code and hands it to the notifier.
// The reset row and the delivery succeed or fail together: an undeliverable
// code must not be left redeemable in storage.
func RequestPasswordReset(c *gin.Context) {
	var body struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no account for that email"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error: " + err.Error()})
		}
		return
	}

	code := newOTPCode()

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start transaction"})
		return
	}
	reset := models.PasswordReset{
		UserID:    user.ID,
		Code:      code,
		ExpiresAt: time.Now().Add(otpTTL),
	}
	if err := tx.Create(&reset).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record reset request: " + err.Error()})
		return
	}
	if err := notify.Default.SendOTP(user.Email, code); err != nil {
		tx.Rollback()
		logrus.WithError(err).Error("RequestPasswordReset: delivery failed, rolling back")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deliver reset code"})
		return
	}
	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not commit transaction: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "reset code sent"})
}

// ConfirmPasswordReset redeems a delivered code and sets the new password.
func ConfirmPasswordReset(c *gin.Context) {
	var body struct {
		Email       string `json:"email" binding:"required,email"`
		Code        string `json:"code" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := config.DB.Where("email = ?", body.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no account for that email"})
		return
	}

	var reset models.PasswordReset
	if err := config.DB.Where("user_id = ? AND code = ? AND used_at IS NULL AND expires_at > ?",
		user.ID, strings.ToUpper(body.Code), time.Now()).
		Order("created_at DESC").
		First(&reset).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired reset code"})
		return
	}

	hashed, err := hashPassword(body.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	err = config.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		if err := tx.Model(&reset).Update("used_at", &now).Error; err != nil {
			return err
		}
		return tx.Model(&user).Update("password", hashed).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update password: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

func validateAndNormalizeRole(roleInput string) (models.UserRole, error) {
	role := strings.ToUpper(strings.TrimSpace(roleInput))
	if role == "" {
		role = string(models.RoleEmp)
	}
	parsed, err := models.ParseUserRole(role)
	if err != nil {
		return "", err
	}
	if parsed == models.RoleAdmin {
		return "", errors.New("admin accounts cannot self-register")
	}
	return parsed, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// newOTPCode derives a 6-character uppercase hex code from a fresh uuid.
func newOTPCode() string {
	id := uuid.New()
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:6])
}

func prepareUserResponse(user models.User) gin.H {
	responseUser := gin.H{
		"ID":        user.ID,
		"CreatedAt": user.CreatedAt,
		"UpdatedAt": user.UpdatedAt,
		"email":     user.Email,
		"role":      user.Role,
		"status":    user.Status,
	}
	if user.DepartmentID != nil {
		responseUser["department_id"] = *user.DepartmentID
	}
	if user.Department != nil {
		responseUser["department"] = gin.H{
			"ID":   user.Department.ID,
			"name": user.Department.Name,
		}
	}
	if user.EmployeeID != nil {
		responseUser["employee_id"] = *user.EmployeeID
	}
	if user.Employee != nil {
		responseUser["employee"] = gin.H{
			"ID":        user.Employee.ID,
			"emp_no":    user.Employee.EmpNo,
			"full_name": user.Employee.FullName,
			"is_active": user.Employee.IsActive,
		}
	}
	return responseUser
}
