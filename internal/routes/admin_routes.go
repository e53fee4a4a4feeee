package routes

import (
	"shuttle_desk/internal/controllers"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/models"

	"github.com/gin-gonic/gin"
)

func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuthWithRole(models.RoleAdmin))
	{
		admin.GET("/users", controllers.ListAllUsers)
		admin.GET("/users/pending", controllers.ListPendingUsers)
		admin.POST("/users/:id/decision", controllers.DecidePendingUser)

		admin.POST("/departments", controllers.CreateDepartment)
		admin.GET("/departments", controllers.ListDepartments)
		admin.POST("/routes", controllers.CreateRoute)
		admin.GET("/routes", controllers.ListRoutes)
		admin.PATCH("/routes/:id/sub-routes", controllers.AddSubRoutes)
		admin.POST("/vehicles", controllers.CreateVehicle)
		admin.GET("/vehicles", controllers.ListVehicles)
		admin.PUT("/vehicles/:id/routes", controllers.SetVehicleRoutes)
		admin.POST("/drivers", controllers.CreateDriver)
		admin.GET("/drivers", controllers.ListDrivers)

		admin.GET("/requests", controllers.ListRequestsForApproval)
		admin.POST("/requests/:id/approve", controllers.ApproveRequest)
		admin.POST("/runs/lock", controllers.LockDailyRun)
		admin.GET("/runs/:date", controllers.RunSummary)
	}
}
