package repository

import (
	"context"

	"github.com/helpdeskhq/helpdesk/internal/domain"
	"github.com/helpdeskhq/helpdesk/internal/persistence"
)

// UserRepository defines persistence access for users.
type UserRepository interface {
	List(ctx context.Context) []domain.User
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	store persistence.RecordStore[domain.User]
}

// NewUserRepository returns a repository over the users record store.
func NewUserRepository(store persistence.RecordStore[domain.User]) UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) List(ctx context.Context) []domain.User {
	return r.store.LoadAll(ctx)
}

// GetByEmail returns the first user whose email matches exactly. The comparison
// is case-sensitive.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range r.store.LoadAll(ctx) {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, ErrNotFound
}

// Create appends user to the collection, rechecking email uniqueness against the
// freshly loaded records.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	users := r.store.LoadAll(ctx)
	for _, existing := range users {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}
	return r.store.SaveAll(ctx, append(users, *user))
}
