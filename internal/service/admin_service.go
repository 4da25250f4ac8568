package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skybound/internal/domain"
	"skybound/internal/repository"
	"skybound/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for admin password hashes
	BcryptCost = 10

	minPasswordLen = 8
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// Claims represents the JWT claims of a back-office session
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

// AdminService defines back-office authentication
type AdminService interface {
	Login(ctx context.Context, email, password string) (accessToken string, expiresAt time.Time, err error)
	// Provision creates the account or resets its password. created reports
	// whether a new account was inserted.
	Provision(ctx context.Context, email, password string) (user *domain.AdminUser, created bool, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

type adminService struct {
	repo         repository.AdminUserRepository
	jwtSecret    string
	accessExpiry time.Duration
	now          func() time.Time
}

// NewAdminService creates a new instance of AdminService
func NewAdminService(repo repository.AdminUserRepository, jwtSecret string, accessExpiry time.Duration) AdminService {
	return &adminService{
		repo:         repo,
		jwtSecret:    jwtSecret,
		accessExpiry: accessExpiry,
		now:          time.Now,
	}
}

// Login authenticates an admin and returns a signed access token
func (s *adminService) Login(ctx context.Context, email, password string) (string, time.Time, error) {
	user, err := s.repo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrAdminNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("failed to find admin user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	return s.generateAccessToken(user)
}

func (s *adminService) Provision(ctx context.Context, email, password string) (*domain.AdminUser, bool, error) {
	email = domain.NormalizeEmail(email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, false, ErrInvalidEmail
	}
	if len(password) < minPasswordLen {
		return nil, false, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return nil, false, fmt.Errorf("failed to hash password: %w", err)
	}

	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.repo.UpdatePassword(ctx, existing.ID, string(hash)); err != nil {
			return nil, false, err
		}
		existing.PasswordHash = string(hash)
		return existing, false, nil
	case !errors.Is(err, repository.ErrAdminNotFound):
		return nil, false, fmt.Errorf("failed to check existing admin: %w", err)
	}

	now := s.now().UTC()
	user := &domain.AdminUser{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin user: %w", err)
	}

	return user, true, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *adminService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == uuid.Nil || claims.Role == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// AccessTokenValidator adapts ValidateToken to the shape the auth
// middleware expects.
func AccessTokenValidator(admins AdminService) func(token string) (userID, role string, err error) {
	return func(token string) (string, string, error) {
		claims, err := admins.ValidateToken(token)
		if err != nil {
			return "", "", err
		}
		return claims.UserID.String(), claims.Role, nil
	}
}

func (s *adminService) generateAccessToken(user *domain.AdminUser) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.accessExpiry)
	claims := &Claims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, expiresAt, nil
}
