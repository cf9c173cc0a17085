package ports

import (
	"context"

	"github.com/quickloan/lending-system/internal/core/domain"
)

// UserRepository defines persistence operations for user accounts. Auth and
// KYC share the same collection, so a single repository serves both.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// Update persists the full user document (profile, documents, KYC state).
	Update(ctx context.Context, user *domain.User) error
	// FindByIDs returns the users matching the given ids, in no particular order.
	FindByIDs(ctx context.Context, ids []string) ([]*domain.User, error)
	// FindByVerificationStatus returns users whose KYC state is one of statuses.
	FindByVerificationStatus(ctx context.Context, statuses []domain.VerificationStatus) ([]*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// CountByVerificationStatus aggregates user counts per KYC state.
	CountByVerificationStatus(ctx context.Context) (map[domain.VerificationStatus]int64, error)
}
