package users

import "github.com/gin-gonic/gin"

// SetupUserRoutes registers the registration endpoint.
func SetupUserRoutes(router gin.IRouter, controller *Controller) {
	router.POST("/user", controller.Register)
}
