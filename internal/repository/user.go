package repository

import (
	"context"

	"rideshare/internal/domain"
)

// UserRepository defines the persistence operations for user accounts and
// their credentials.
type UserRepository interface {
	// NextID reserves and returns the next incrementing user id.
	NextID(ctx context.Context) (string, error)

	// Create persists a new user together with its bcrypt password hash.
	// Returns ErrDuplicateEmail if the email is already registered.
	Create(ctx context.Context, user *domain.User, passwordHash []byte) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// Update overwrites mutable profile fields of an existing user.
	Update(ctx context.Context, user *domain.User) error

	// CredentialHash returns the stored bcrypt hash for an email.
	CredentialHash(ctx context.Context, email string) ([]byte, error)
}
