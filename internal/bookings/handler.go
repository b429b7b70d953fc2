package bookings

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/middleware"
)

// Handler handles HTTP requests for bookings
type Handler struct {
	service *Service
}

// NewHandler creates a new bookings handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateBooking authorizes seats on a ride
// POST /api/v1/bookings
func (h *Handler) CreateBooking(c *gin.Context) {
	riderID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingErrorResponse(c, err)
		return
	}

	booking, err := h.service.CreateBooking(c.Request.Context(), riderID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to create booking")
		return
	}

	common.CreatedResponse(c, booking)
}

// GetBooking retrieves a booking for one of its parties
// GET /api/v1/bookings/:id
func (h *Handler) GetBooking(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	booking, err := h.service.GetBooking(c.Request.Context(), callerID, bookingID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to load booking")
		return
	}

	common.SuccessResponse(c, booking)
}

// ConfirmBooking lets the driver accept an authorized booking
// POST /api/v1/bookings/:id/confirm
func (h *Handler) ConfirmBooking(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	booking, err := h.service.ConfirmBooking(c.Request.Context(), callerID, bookingID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to confirm booking")
		return
	}

	common.SuccessResponse(c, booking)
}

// StartTrip verifies the rider's trip code and moves the booking in progress
// POST /api/v1/bookings/:id/start
func (h *Handler) StartTrip(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req StartTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingErrorResponse(c, err)
		return
	}

	if err := h.service.StartTrip(c.Request.Context(), callerID, bookingID, req.Code); err != nil {
		common.HandleServiceError(c, err, "failed to start trip")
		return
	}

	common.SuccessResponse(c, gin.H{"status": BookingStatusInProgress})
}

// CompleteTrip settles the ride and returns each rider's final share
// POST /api/v1/rides/:id/complete
func (h *Handler) CompleteTrip(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	shares, err := h.service.CompleteTrip(c.Request.Context(), callerID, rideID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to complete trip")
		return
	}

	common.SuccessResponse(c, gin.H{"settled": shares})
}

// MarkPaid records the rider's side of the payment handshake
// POST /api/v1/bookings/:id/mark-paid
func (h *Handler) MarkPaid(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req MarkPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingErrorResponse(c, err)
		return
	}

	if err := h.service.MarkPaid(c.Request.Context(), callerID, bookingID, &req); err != nil {
		common.HandleServiceError(c, err, "failed to mark booking paid")
		return
	}

	common.SuccessResponse(c, gin.H{"paid_by_rider": true})
}

// ConfirmPayment records the driver's side of the payment handshake
// POST /api/v1/bookings/:id/confirm-payment
func (h *Handler) ConfirmPayment(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	if err := h.service.ConfirmPayment(c.Request.Context(), callerID, bookingID); err != nil {
		common.HandleServiceError(c, err, "failed to confirm payment")
		return
	}

	common.SuccessResponse(c, gin.H{"confirmed_by_driver": true})
}

// ListRideBookings lists a ride's bookings for its driver
// GET /api/v1/rides/:id/bookings
func (h *Handler) ListRideBookings(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid ride ID")
		return
	}

	bookings, err := h.service.ListRideBookings(c.Request.Context(), callerID, rideID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list bookings")
		return
	}

	common.SuccessResponse(c, bookings)
}

// ListMyBookings lists the caller's bookings
// GET /api/v1/bookings
func (h *Handler) ListMyBookings(c *gin.Context) {
	riderID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	bookings, err := h.service.ListMyBookings(c.Request.Context(), riderID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list bookings")
		return
	}

	common.SuccessResponse(c, bookings)
}
