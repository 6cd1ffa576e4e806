package bookings

import (
	"net/http"

	"seatline/internal/apperr"
	"seatline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Controller struct {
	service *Service
}

func NewController(service *Service) *Controller {
	return &Controller{service: service}
}

// Book handles POST /book.
func (c *Controller) Book(ctx *gin.Context) {
	var req BookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	b, err := c.service.Book(ctx.Request.Context(), req.UserID, req.ConferenceName)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.StatusCode(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "booking created", toResponse(b, req.ConferenceName), nil)
}

// Get handles GET /booking/:id.
func (c *Controller) Get(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid booking id", nil, nil)
		return
	}

	b, confName, err := c.service.GetByID(ctx.Request.Context(), id)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.StatusCode(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "booking retrieved", toResponse(b, confName), nil)
}

// Confirm handles POST /confirm.
func (c *Controller) Confirm(ctx *gin.Context) {
	var req ConfirmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid booking id", nil, nil)
		return
	}

	if err := c.service.Confirm(ctx.Request.Context(), bookingID, req.UserID); err != nil {
		response.RespondJSON(ctx, "error", apperr.StatusCode(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "booking confirmed", nil, nil)
}

// Cancel handles POST /cancel. There is no owner check: any caller who
// knows the booking_id may cancel it.
func (c *Controller) Cancel(ctx *gin.Context) {
	var req CancelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid request body", nil, err.Error())
		return
	}

	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "invalid booking id", nil, nil)
		return
	}

	if err := c.service.Cancel(ctx.Request.Context(), bookingID); err != nil {
		response.RespondJSON(ctx, "error", apperr.StatusCode(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "booking canceled", nil, nil)
}

// ListByConference handles GET /conference/:name/bookings.
func (c *Controller) ListByConference(ctx *gin.Context) {
	name := ctx.Param("name")
	rows, err := c.service.ListByConferenceName(ctx.Request.Context(), name)
	if err != nil {
		response.RespondJSON(ctx, "error", apperr.StatusCode(err), err.Error(), nil, nil)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "bookings retrieved", toResponseList(rows, name), nil)
}
