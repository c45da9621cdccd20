package repositories

import (
	"context"

	"github.com/wememory/backend/internal/models"
)

// UserRepository defines the data access contract for accounts.
// Implementations surface auth.ErrAccountNotFound and auth.ErrAccountExists
// so the session service stays decoupled from this package.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}
