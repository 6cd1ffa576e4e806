package conferences

import (
	"net/http"
	"time"

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

// Create handles POST /conference.
func (c *Controller) Create(ctx *gin.Context) {
	var req CreateConferenceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	start, err := time.Parse(TimeLayout, req.Start)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid start timestamp", nil, nil)
		return
	}
	end, err := time.Parse(TimeLayout, req.End)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid end timestamp", nil, nil)
		return
	}

	_, err = c.service.Create(ctx.Request.Context(), CreateRequest{
		Name:     req.Name,
		Location: req.Location,
		Start:    start,
		End:      end,
		Slots:    req.Slots,
		Topics:   req.Topics,
	})
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.StatusCode(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "conference created", nil, nil)
}
