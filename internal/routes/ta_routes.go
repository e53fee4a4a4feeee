package routes

import (
	"shuttle_desk/internal/controllers"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/models"

	"github.com/gin-gonic/gin"
)

func TARoutes(r *gin.Engine) {
	ta := r.Group("/ta")
	ta.Use(middleware.RequireAuthWithRole(models.RoleTA))
	{
		ta.GET("/requests", controllers.ListAssignableRequests)
		ta.GET("/requests/:id/groups", controllers.GetRequestGroups)
		ta.POST("/requests/:id/assignments", controllers.SaveAssignment)
		ta.DELETE("/requests/:id/assignments/:assignmentId", controllers.DeleteAssignment)
		ta.POST("/requests/:id/submit", controllers.SubmitAssignments)
	}
}
