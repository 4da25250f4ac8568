package repository

import (
	"context"
	"database/sql"
	"fmt"

	"skybound/internal/domain"

	"github.com/google/uuid"
)

const adminColumns = `id, email, password_hash, role, created_at, updated_at`

// AdminUserRepository defines the interface for back-office account access
type AdminUserRepository interface {
	Create(ctx context.Context, user *domain.AdminUser) error
	FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.AdminUser, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type adminUserRepository struct {
	db *sql.DB
}

// NewAdminUserRepository creates a new instance of AdminUserRepository
func NewAdminUserRepository(db *sql.DB) AdminUserRepository {
	return &adminUserRepository{db: db}
}

// Create inserts a new admin account using parameterized queries
func (r *adminUserRepository) Create(ctx context.Context, user *domain.AdminUser) error {
	query := `
		INSERT INTO admin_users (id, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "admin_users_email_key") {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	return nil
}

// FindByEmail retrieves an admin account by email
func (r *adminUserRepository) FindByEmail(ctx context.Context, email string) (*domain.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE email = $1`

	user, err := scanAdmin(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to find admin user by email: %w", err)
	}

	return user, nil
}

// FindByID retrieves an admin account by ID
func (r *adminUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.AdminUser, error) {
	query := `SELECT ` + adminColumns + ` FROM admin_users WHERE id = $1`

	user, err := scanAdmin(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to find admin user by ID: %w", err)
	}

	return user, nil
}

// UpdatePassword replaces the stored bcrypt hash
func (r *adminUserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admin_users SET password_hash = $2 WHERE id = $1`,
		id, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrAdminNotFound
	}

	return nil
}

func scanAdmin(row scanner) (*domain.AdminUser, error) {
	user := &domain.AdminUser{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}
