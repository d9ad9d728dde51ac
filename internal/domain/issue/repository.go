package issue

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines the interface for issue repository operations
type Repository interface {
	Create(ctx context.Context, iss *Issue) error
	GetByID(ctx context.Context, issueID uuid.UUID) (*Issue, error)
	Update(ctx context.Context, iss *Issue) error
	UpdateStatus(ctx context.Context, issueID uuid.UUID, status Status) error
	Delete(ctx context.Context, issueID uuid.UUID) error
	List(ctx context.Context, filter *Filter) ([]*Issue, int64, error)
	GetStatistics(ctx context.Context) (*Statistics, error)
}
