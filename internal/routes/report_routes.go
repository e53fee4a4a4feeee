package routes

import (
	"shuttle_desk/internal/controllers"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/models"

	"github.com/gin-gonic/gin"
)

func ReportRoutes(r *gin.Engine) {
	reports := r.Group("/reports")
	reports.Use(middleware.RequireAuthWithRole(models.RoleAdmin, models.RoleHR, models.RoleTA))
	{
		reports.GET("/requests/:id/route-roster", controllers.RouteRosterReport)
		reports.GET("/requests/:id/vehicle-manifest", controllers.VehicleManifestReport)
		reports.GET("/requests/:id/department-roster", controllers.DepartmentRosterReport)
	}
}
