package routes

import (
	"shuttle_desk/internal/controllers"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/models"

	"github.com/gin-gonic/gin"
)

func EmployeeRoutes(r *gin.Engine) {
	me := r.Group("/me")
	me.Use(middleware.RequireAuthWithRole(models.RoleEmp, models.RoleHOD))
	{
		me.GET("/profile", controllers.GetMyProfile)
		me.GET("/schedule/:date", controllers.GetMySchedule)
	}
}
