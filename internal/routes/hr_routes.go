package routes

import (
	"shuttle_desk/internal/controllers"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/models"

	"github.com/gin-gonic/gin"
)

func HRRoutes(r *gin.Engine) {
	hr := r.Group("/hr")
	hr.Use(middleware.RequireAuthWithRole(models.RoleHR))
	{
		hr.GET("/overbooks", controllers.ListPendingOverbookRequests)
		hr.POST("/overbooks/:id/decision", controllers.DecideOverbook)
		hr.GET("/finalizable", controllers.ListFinalizableRequests)
		hr.POST("/requests/:id/final-approve", controllers.FinalApprove)
	}
}
