package memory

import (
	"context"
	"strconv"
	"sync"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// UserStore is an in-memory implementation of repository.UserRepository.
// Password hashes live in a parallel map keyed by email, mirroring the
// user directory.
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]*domain.User
	byEmail map[string]string // email -> user id
	hashes  map[string][]byte // email -> bcrypt hash
	order   []string
	counter int
}

var _ repository.UserRepository = (*UserStore)(nil)

// NewUserStore creates an empty in-memory user store.
func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
		hashes:  make(map[string][]byte),
	}
}

// NextID reserves and returns the next incrementing user id.
func (s *UserStore) NextID(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return strconv.Itoa(s.counter), nil
}

// Create persists a new user together with its bcrypt password hash.
func (s *UserStore) Create(ctx context.Context, user *domain.User, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[user.Email]; exists {
		return repository.ErrDuplicateEmail
	}

	cp := *user
	s.users[user.ID] = &cp
	s.byEmail[user.Email] = user.ID
	s.hashes[user.Email] = append([]byte(nil), passwordHash...)
	s.order = append(s.order, user.ID)
	return nil
}

// GetByID retrieves a user by ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

// GetByEmail retrieves a user by email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

// GetAll retrieves all users in creation order.
func (s *UserStore) GetAll(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*domain.User, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.users[id]
		result = append(result, &cp)
	}
	return result, nil
}

// Update overwrites mutable profile fields of an existing user.
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	existing.Name = user.Name
	existing.Phone = user.Phone
	existing.ProfilePicture = user.ProfilePicture
	existing.IsVerified = user.IsVerified
	existing.UpdatedAt = user.UpdatedAt
	return nil
}

// CredentialHash returns the stored bcrypt hash for an email.
func (s *UserStore) CredentialHash(ctx context.Context, email string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	hash, ok := s.hashes[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]byte(nil), hash...), nil
}
