package rides

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuspool/backend/pkg/common"
	"github.com/campuspool/backend/pkg/logger"
)

// Service handles ride business logic. Ride creation is thin glue; the
// interesting inventory mutations run inside the booking transactions.
type Service struct {
	repo RepositoryInterface
}

// NewService creates a new rides service
func NewService(repo RepositoryInterface) *Service {
	return &Service{repo: repo}
}

// CreateRide posts a new ride offering. The total cost is fixed at creation
// and never changes afterwards.
func (s *Service) CreateRide(ctx context.Context, driverID uuid.UUID, req *CreateRideRequest) (*Ride, error) {
	departAt := req.DepartAt.UTC()
	if !departAt.After(time.Now().UTC()) {
		return nil, common.NewValidationError("depart_at must be in the future", nil)
	}

	now := time.Now().UTC()
	ride := &Ride{
		ID:             uuid.New(),
		DriverID:       driverID,
		OriginText:     req.OriginText,
		DestText:       req.DestText,
		DepartAt:       departAt,
		TotalCostCents: req.TotalCostCents,
		SeatsTotal:     req.SeatsTotal,
		SeatsAvailable: req.SeatsTotal,
		Status:         RideStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, ride); err != nil {
		logger.Error("Failed to create ride", zap.Error(err), zap.String("driver_id", driverID.String()))
		return nil, common.NewInternalError("failed to create ride", err)
	}

	logger.Info("Ride created",
		zap.String("ride_id", ride.ID.String()),
		zap.String("driver_id", driverID.String()),
		zap.Int("seats_total", ride.SeatsTotal),
		zap.Int64("total_cost_cents", ride.TotalCostCents),
	)

	return ride, nil
}

// GetRide retrieves a ride by ID
func (s *Service) GetRide(ctx context.Context, rideID uuid.UUID) (*Ride, error) {
	ride, err := s.repo.GetByID(ctx, rideID)
	if err != nil {
		return nil, common.NewInternalError("failed to load ride", err)
	}
	if ride == nil {
		return nil, common.NewNotFoundError("ride not found", nil)
	}
	return ride, nil
}

// ListOpenRides lists bookable rides
func (s *Service) ListOpenRides(ctx context.Context, limit, offset int) ([]*Ride, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	result, err := s.repo.ListOpen(ctx, limit, offset)
	if err != nil {
		return nil, common.NewInternalError("failed to list rides", err)
	}
	return result, nil
}
