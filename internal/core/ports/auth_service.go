package ports

import (
	"context"

	"github.com/quickloan/lending-system/internal/core/domain"
)

// AuthService implements registration, login and profile retrieval.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*domain.User, error)
	// Login returns a signed JWT and the authenticated user.
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	Me(ctx context.Context, userID string) (*domain.User, error)
}
