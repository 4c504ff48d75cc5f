package http

import (
	"context"

	"github.com/go-user-directory/internal/domain"
	"github.com/go-user-directory/internal/pagination"
)

// UserRepository is the minimal interface the router requires from a user
// store. The postgres implementation satisfies it; tests substitute mocks.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	Delete(ctx context.Context, userID string) error
	// ListOrdered returns one ordered window of the directory plus the total
	// count. Ordering, skip and take happen store-side.
	ListOrdered(ctx context.Context, field pagination.Field, desc bool, offset, limit int) ([]domain.User, int, error)
}
