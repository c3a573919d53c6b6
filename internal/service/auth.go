package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"rideshare/internal/config"
	"rideshare/internal/domain"
	"rideshare/internal/repository"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s]{2,50}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-\(\)]{10,}$`)
)

// Claims are the JWT claims issued for a session.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// SignupRequest carries the inputs for account creation.
type SignupRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     domain.Role
}

// AuthResult is a successful login or signup: the user plus a token pair.
type AuthResult struct {
	User         *domain.User
	Token        string
	RefreshToken string
}

// AuthService implements login, signup, and token verification.
type AuthService struct {
	userRepo repository.UserRepository
	cfg      config.JWTConfig
	log      *logrus.Logger
	now      func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, cfg config.JWTConfig, log *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// Login authenticates an email/password pair. Unknown email and wrong
// password both return ErrInvalidCredentials so the response does not
// reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	hash, err := s.userRepo.CredentialHash(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user logged in")

	return result, nil
}

// Signup validates the request, creates the account, and returns a token
// pair so the client is signed in immediately.
func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = domain.RolePassenger
	}

	if !emailPattern.MatchString(req.Email) {
		return nil, ErrInvalidEmail
	}
	if !validPassword(req.Password) {
		return nil, ErrWeakPassword
	}
	if !namePattern.MatchString(req.Name) {
		return nil, ErrInvalidName
	}
	if req.Phone != "" && !phonePattern.MatchString(req.Phone) {
		return nil, ErrInvalidPhone
	}
	if !req.Role.IsValid() {
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	id, err := s.userRepo.NextID(ctx)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:        id,
		Email:     req.Email,
		Name:      req.Name,
		Phone:     req.Phone,
		Role:      req.Role,
		CreatedAt: s.now(),
		UpdatedAt: s.now(),
	}

	if err := s.userRepo.Create(ctx, user, hash); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	result, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("user signed up")

	return result, nil
}

// VerifyToken parses and validates an access token, returning the user it
// was issued for.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*domain.User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) issueTokens(user *domain.User) (*AuthResult, error) {
	token, err := s.signToken(user, s.cfg.Expiry)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signToken(user, s.cfg.RefreshExpiry)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, RefreshToken: refresh}, nil
}

func (s *AuthService) signToken(user *domain.User, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

// validPassword requires 8-128 characters with at least one lowercase,
// one uppercase, and one digit.
func validPassword(password string) bool {
	if len(password) < 8 || len(password) > 128 {
		return false
	}
	var lower, upper, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}
