package routes

import (
	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.New()

	// Recovery and request logging must be registered before any route
	r.Use(gin.Recovery())
	r.Use(ginlog.SetLogger())

	AuthRoutes(r)
	HODRoutes(r)
	AdminRoutes(r)
	TARoutes(r)
	HRRoutes(r)
	ReportRoutes(r)
	EmployeeRoutes(r)

	return r
}
