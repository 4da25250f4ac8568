package domain

import (
	"time"

	"github.com/google/uuid"
)

// RoleAdmin is the only role allowed into the back office.
const RoleAdmin = "admin"

// AdminUser is a back-office account.
type AdminUser struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
