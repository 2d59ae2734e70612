package routes

import (
	"github.com/gin-gonic/gin"

	"civix-be/controllers"
	"civix-be/middlewares"
	authUtils "civix-be/utils"
)

// AuthRoutes sets up the authentication and account routes.
func AuthRoutes(r *gin.Engine, ac *controllers.AuthController, tokens *authUtils.TokenService) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", ac.Register)
		auth.POST("/login", ac.Login)

		protected := auth.Group("", middlewares.AuthMiddleware(tokens))
		{
			protected.GET("/me", ac.Me)
			protected.PUT("/update", ac.UpdateProfile)
			protected.PUT("/change-password", ac.ChangePassword)
			protected.DELETE("/delete", ac.DeleteAccount)
		}
	}
}
