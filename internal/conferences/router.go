package conferences

import "github.com/gin-gonic/gin"

// SetupConferenceRoutes registers the conference registration endpoint
// GET /conference/{name}/bookings is registered by the
// bookings package, which owns the Booking entity.
func SetupConferenceRoutes(router gin.IRouter, controller *Controller) {
	router.POST("/conference", controller.Create)
}
