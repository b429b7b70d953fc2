package disputes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/middleware"
)

// Handler handles HTTP requests for disputes and contact logs
type Handler struct {
	service *Service
}

// NewHandler creates a new disputes handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// OpenDispute raises a dispute against a booking
// POST /api/v1/bookings/:id/disputes
func (h *Handler) OpenDispute(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req OpenDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingErrorResponse(c, err)
		return
	}

	dispute, err := h.service.OpenDispute(c.Request.Context(), callerID, bookingID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to open dispute")
		return
	}

	common.CreatedResponse(c, dispute)
}

// GetDispute retrieves a dispute for one of the booking's parties
// GET /api/v1/disputes/:id
func (h *Handler) GetDispute(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid dispute ID")
		return
	}

	dispute, err := h.service.GetDispute(c.Request.Context(), callerID, disputeID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to load dispute")
		return
	}

	common.SuccessResponse(c, dispute)
}

// ResolveDispute closes an open dispute, moderators only
// POST /api/v1/disputes/:id/resolve
func (h *Handler) ResolveDispute(c *gin.Context) {
	resolverID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	disputeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid dispute ID")
		return
	}

	var req ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingErrorResponse(c, err)
		return
	}

	if err := h.service.ResolveDispute(c.Request.Context(), resolverID, disputeID, &req); err != nil {
		common.HandleServiceError(c, err, "failed to resolve dispute")
		return
	}

	common.SuccessResponse(c, gin.H{"status": req.Outcome})
}

// AppendContactLog records a contact attempt between the parties
// POST /api/v1/bookings/:id/contact-logs
func (h *Handler) AppendContactLog(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	var req AppendContactLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.BindingErrorResponse(c, err)
		return
	}

	entry, err := h.service.AppendContactLog(c.Request.Context(), callerID, bookingID, &req)
	if err != nil {
		common.HandleServiceError(c, err, "failed to append contact log")
		return
	}

	common.CreatedResponse(c, entry)
}

// ListContactLogs lists a booking's recent contact attempts
// GET /api/v1/bookings/:id/contact-logs
func (h *Handler) ListContactLogs(c *gin.Context) {
	callerID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "invalid booking ID")
		return
	}

	entries, err := h.service.ListContactLogs(c.Request.Context(), callerID, bookingID)
	if err != nil {
		common.HandleServiceError(c, err, "failed to list contact logs")
		return
	}

	common.SuccessResponse(c, entries)
}
