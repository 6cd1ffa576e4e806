package users

import (
	"net/http"

	"seatline/internal/apperr"
	"seatline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// Register handles POST /user.
func (c *Controller) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	if _, err := c.service.Register(ctx.Request.Context(), req); err != nil {
		response.RespondJSON(ctx, "error", apperr.StatusCode(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "user registered", nil, nil)
}
