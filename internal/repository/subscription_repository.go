package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"skybound/internal/domain"

	"github.com/google/uuid"
)

// SubscribeOutcome tells what CreateOrReactivate did with the address.
type SubscribeOutcome int

const (
	// SubscriptionCreated means a new row was inserted.
	SubscriptionCreated SubscribeOutcome = iota
	// SubscriptionReactivated means an inactive row was switched back on
	// and its source replaced.
	SubscriptionReactivated
	// SubscriptionAlreadyActive means nothing changed.
	SubscriptionAlreadyActive
)

func (o SubscribeOutcome) String() string {
	switch o {
	case SubscriptionCreated:
		return "created"
	case SubscriptionReactivated:
		return "reactivated"
	default:
		return "already_active"
	}
}

const subscriptionColumns = `id, email, is_active, source, created_at, updated_at`

// SubscriptionFilter narrows the back-office subscription list.
type SubscriptionFilter struct {
	Active *bool
	Source string
	Query  string
	Since  time.Time
	// Days, when set, is resolved by the service into Since relative to
	// its clock. The repository only reads Since.
	Days *int
}

// SubscriptionRepository defines the interface for subscription data access
type SubscriptionRepository interface {
	CreateOrReactivate(ctx context.Context, email, source string) (*domain.Subscription, SubscribeOutcome, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)
	FindByEmail(ctx context.Context, email string) (*domain.Subscription, error)
	List(ctx context.Context, filter SubscriptionFilter) ([]*domain.Subscription, error)
	SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, activeOnly bool) (int, error)
}

type subscriptionRepository struct {
	db *sql.DB
}

// NewSubscriptionRepository creates a new instance of SubscriptionRepository
func NewSubscriptionRepository(db *sql.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// CreateOrReactivate guarantees one row per email. Concurrent calls for the
// same address serialize on the unique constraint and the row lock, so at
// most one of them observes SubscriptionCreated.
func (r *subscriptionRepository) CreateOrReactivate(ctx context.Context, email, source string) (*domain.Subscription, SubscribeOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	insert := `
		INSERT INTO subscriptions (id, email, is_active, source, created_at, updated_at)
		VALUES ($1, $2, TRUE, $3, $4, $4)
		ON CONFLICT (email) DO NOTHING
		RETURNING ` + subscriptionColumns

	sub, err := scanSubscription(tx.QueryRowContext(ctx, insert, uuid.New(), email, source, now))
	if err == nil {
		if err := tx.Commit(); err != nil {
			return nil, 0, fmt.Errorf("failed to commit subscription: %w", err)
		}
		return sub, SubscriptionCreated, nil
	}
	if err != sql.ErrNoRows {
		return nil, 0, fmt.Errorf("failed to insert subscription: %w", err)
	}

	lock := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE email = $1 FOR UPDATE`
	sub, err = scanSubscription(tx.QueryRowContext(ctx, lock, email))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to lock subscription: %w", err)
	}

	if sub.IsActive {
		if err := tx.Commit(); err != nil {
			return nil, 0, fmt.Errorf("failed to commit subscription: %w", err)
		}
		return sub, SubscriptionAlreadyActive, nil
	}

	reactivate := `
		UPDATE subscriptions SET is_active = TRUE, source = $2, updated_at = $3
		WHERE id = $1
		RETURNING ` + subscriptionColumns
	sub, err = scanSubscription(tx.QueryRowContext(ctx, reactivate, sub.ID, source, now))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to reactivate subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit subscription: %w", err)
	}
	return sub, SubscriptionReactivated, nil
}

// FindByID retrieves a subscription by ID
func (r *subscriptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return r.findOne(ctx, query, id)
}

// FindByEmail retrieves a subscription by its normalized email
func (r *subscriptionRepository) FindByEmail(ctx context.Context, email string) (*domain.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE email = $1`
	return r.findOne(ctx, query, email)
}

// List retrieves subscriptions, newest first, with optional filters
func (r *subscriptionRepository) List(ctx context.Context, filter SubscriptionFilter) ([]*domain.Subscription, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *filter.Active)
		argIndex++
	}

	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argIndex))
		args = append(args, filter.Source)
		argIndex++
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf("email ILIKE $%d", argIndex))
		args = append(args, "%"+q+"%")
		argIndex++
	}

	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, filter.Since)
		argIndex++
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	subs := []*domain.Subscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscriptions: %w", err)
	}

	return subs, nil
}

// SetActive toggles is_active on every listed subscription
func (r *subscriptionRepository) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE subscriptions SET is_active = $1 WHERE id::text = ANY($2)`,
		active, idStrings(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update subscriptions: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

// Delete hard-deletes a subscription
func (r *subscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrSubscriptionNotFound
	}

	return nil
}

// Count returns the number of subscriptions, optionally only active ones
func (r *subscriptionRepository) Count(ctx context.Context, activeOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM subscriptions`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}

	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return n, nil
}

func (r *subscriptionRepository) findOne(ctx context.Context, query string, arg any) (*domain.Subscription, error) {
	sub, err := scanSubscription(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return sub, nil
}

func scanSubscription(row scanner) (*domain.Subscription, error) {
	sub := &domain.Subscription{}
	err := row.Scan(
		&sub.ID,
		&sub.Email,
		&sub.IsActive,
		&sub.Source,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
