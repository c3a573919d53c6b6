package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/lib/pq"

	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

// UserRepository is a PostgreSQL implementation of repository.UserRepository.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

const userColumns = `id, email, name, phone, role, profile_picture, is_verified, created_at, updated_at`

// NextID reserves and returns the next incrementing user id.
func (r *UserRepository) NextID(ctx context.Context) (string, error) {
	var n int64
	if err := r.q.QueryRowContext(ctx, `SELECT nextval('user_id_seq')`).Scan(&n); err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

// Create persists a new user together with its bcrypt password hash.
func (r *UserRepository) Create(ctx context.Context, user *domain.User, passwordHash []byte) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users (id, email, name, phone, role, profile_picture, is_verified, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		user.ID, user.Email, user.Name, nullString(user.Phone),
		string(user.Role), nullString(user.ProfilePicture), user.IsVerified,
		passwordHash, user.CreatedAt, user.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return repository.ErrDuplicateEmail
	}
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Update overwrites mutable profile fields of an existing user.
func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	result, err := r.q.ExecContext(ctx, `
		UPDATE users
		SET name = $1, phone = $2, profile_picture = $3, is_verified = $4, updated_at = $5
		WHERE id = $6`,
		user.Name, nullString(user.Phone), nullString(user.ProfilePicture),
		user.IsVerified, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CredentialHash returns the stored bcrypt hash for an email.
func (r *UserRepository) CredentialHash(ctx context.Context, email string) ([]byte, error) {
	var hash []byte
	err := r.q.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE email = $1`, email).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return hash, nil
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user    domain.User
		phone   sql.NullString
		picture sql.NullString
	)

	err := row.Scan(
		&user.ID, &user.Email, &user.Name, &phone, &user.Role,
		&picture, &user.IsVerified, &user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.Phone = phone.String
	user.ProfilePicture = picture.String
	return &user, nil
}
