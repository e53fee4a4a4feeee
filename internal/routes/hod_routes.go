package routes

import (
	"shuttle_desk/internal/controllers"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/models"

	"github.com/gin-gonic/gin"
)

func HODRoutes(r *gin.Engine) {
	hod := r.Group("/hod")
	hod.Use(middleware.RequireAuthWithRole(models.RoleHOD))
	{
		hod.GET("/employees", controllers.ListEmployees)
		hod.POST("/employees", controllers.CreateEmployee)
		hod.PATCH("/employees/:id", controllers.UpdateEmployee)

		hod.GET("/users/pending", controllers.ListPendingEmployeeUsers)
		hod.POST("/users/:id/decision", controllers.DecideEmployeeUser)

		hod.POST("/requests", controllers.CreateRequest)
		hod.GET("/requests", controllers.ListDepartmentRequests)
		hod.GET("/requests/:id", controllers.GetRequest)
		hod.PUT("/requests/:id/roster", controllers.UpdateRoster)
		hod.POST("/requests/:id/submit", controllers.SubmitRequest)
	}
}
