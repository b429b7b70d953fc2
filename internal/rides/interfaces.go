package rides

import (
	"context"

	"github.com/google/uuid"
)

// RepositoryInterface defines the interface for ride repository operations
// used by the service layer
type RepositoryInterface interface {
	Create(ctx context.Context, ride *Ride) error
	GetByID(ctx context.Context, id uuid.UUID) (*Ride, error)
	ListOpen(ctx context.Context, limit, offset int) ([]*Ride, error)
}
