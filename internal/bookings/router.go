package bookings

import "github.com/gin-gonic/gin"

// SetupBookingRoutes registers the booking HTTP surface,
// including GET /conference/:name/bookings since bookings owns conference
// name resolution for that endpoint.
func SetupBookingRoutes(router gin.IRouter, controller *Controller) {
	router.POST("/book", controller.Book)
	router.GET("/booking/:id", controller.Get)
	router.POST("/confirm", controller.Confirm)
	router.POST("/cancel", controller.Cancel)
	router.GET("/conference/:name/bookings", controller.ListByConference)
}
