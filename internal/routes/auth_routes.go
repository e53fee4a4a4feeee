package routes

import (
	"shuttle_desk/internal/controllers"

	"github.com/gin-gonic/gin"
)

func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", controllers.SignupUser)
		auth.POST("/login", controllers.LoginUser)
		auth.POST("/reset/request", controllers.RequestPasswordReset)
		auth.POST("/reset/confirm", controllers.ConfirmPasswordReset)
	}
}
