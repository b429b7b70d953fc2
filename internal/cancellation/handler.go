package cancellation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/middleware"
)

// Handler handles HTTP requests for cancellations
type Handler struct {
	service *Service
}

// NewHandler creates a new cancellation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CancelBooking cancels a booking for either party
// POST /api/v1/bookings/:id/cancel
func (h *Handler) CancelBooking(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingErrorResponse(c, err)
		return
	}

	verdict, err := h.service.CancelBooking(c.Request.Context(), callerID, bookingID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to cancel booking")
		return
	}

	common.SuccessResponse(c, verdict)
}
