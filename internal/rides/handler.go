package rides

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/middleware"
)

// Handler handles HTTP requests for rides
type Handler struct {
	service *Service
}

// NewHandler creates a new rides handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateRide posts a new ride offering
// POST /api/v1/rides
func (h *Handler) CreateRide(c *gin.Context) {
	driverID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	var req CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingErrorResponse(c, err)
		return
	}

	ride, err := h.service.CreateRide(c.Request.Context(), driverID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to create ride")
		return
	}

	common.CreatedResponse(c, ride)
}

// GetRide retrieves a ride
// GET /api/v1/rides/:id
func (h *Handler) GetRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	ride, err := h.service.GetRide(c.Request.Context(), rideID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to load ride")
		return
	}

	common.SuccessResponse(c, ride)
}

// ListOpenRides lists bookable rides
// GET /api/v1/rides
func (h *Handler) ListOpenRides(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	result, err := h.service.ListOpenRides(c.Request.Context(), limit, offset)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list rides")
		return
	}

	common.SuccessResponse(c, result)
}
