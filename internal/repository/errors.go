package repository

import (
	"errors"
	"fmt"

	"skybound/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var (
	ErrProductNotFound      = fmt.Errorf("product %w", domain.ErrNotFound)
	ErrCategoryNotFound     = fmt.Errorf("category %w", domain.ErrNotFound)
	ErrSubscriptionNotFound = fmt.Errorf("subscription %w", domain.ErrNotFound)
	ErrAdminNotFound        = fmt.Errorf("admin user %w", domain.ErrNotFound)

	ErrSlugTaken         = errors.New("slug is already in use")
	ErrCategoryNameTaken = errors.New("category with this name already exists")
	ErrEmailTaken        = errors.New("email is already registered")
)

// isUniqueViolation reports whether err is a PostgreSQL unique violation on
// the named constraint. An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// nullableUUID converts an optional reference to a driver argument.
func nullableUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}
