package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultSubscriptionSource tags subscriptions that did not name a source.
const DefaultSubscriptionSource = "website"

// MaxSourceLen is the longest source tag that is stored; longer tags are cut.
const MaxSourceLen = 50

// Subscription is a newsletter signup. At most one row exists per email.
type Subscription struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	Source    string    `json:"source" db:"source"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Deactivate soft-deletes the subscription.
func (s *Subscription) Deactivate() {
	s.IsActive = false
}

func (s *Subscription) String() string {
	state := "active"
	if !s.IsActive {
		state = "inactive"
	}
	return s.Email + " (" + state + ")"
}
