package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"skybound/internal/domain"
	"skybound/internal/repository"
	"skybound/internal/validation"

	"github.com/google/uuid"
)

var (
	ErrEmptyEmail   = errors.New("email is required")
	ErrInvalidEmail = errors.New("invalid email address")
)

// SubscriptionService defines the newsletter signup business logic
type SubscriptionService interface {
	// Subscribe creates or reactivates the subscription for emailRaw.
	// created is true for new rows and for reactivated ones.
	Subscribe(ctx context.Context, emailRaw, source string) (sub *domain.Subscription, created bool, err error)
	Recent(ctx context.Context, days int) ([]*domain.Subscription, error)
	List(ctx context.Context, filter repository.SubscriptionFilter) ([]*domain.Subscription, error)
	BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type subscriptionService struct {
	repo repository.SubscriptionRepository
	now  func() time.Time
}

// NewSubscriptionService creates a new instance of SubscriptionService
func NewSubscriptionService(repo repository.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{repo: repo, now: time.Now}
}

func (s *subscriptionService) Subscribe(ctx context.Context, emailRaw, source string) (*domain.Subscription, bool, error) {
	email := domain.NormalizeEmail(emailRaw)
	if email == "" {
		return nil, false, ErrEmptyEmail
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, false, ErrInvalidEmail
	}

	source = strings.TrimSpace(source)
	if source == "" {
		source = domain.DefaultSubscriptionSource
	}
	if utf8.RuneCountInString(source) > domain.MaxSourceLen {
		source = string([]rune(source)[:domain.MaxSourceLen])
	}

	sub, outcome, err := s.repo.CreateOrReactivate(ctx, email, source)
	if err != nil {
		return nil, false, fmt.Errorf("failed to subscribe: %w", err)
	}

	return sub, outcome != repository.SubscriptionAlreadyActive, nil
}

// Recent returns subscriptions created within the last days days
func (s *subscriptionService) Recent(ctx context.Context, days int) ([]*domain.Subscription, error) {
	return s.List(ctx, repository.SubscriptionFilter{Days: &days})
}

func (s *subscriptionService) List(ctx context.Context, filter repository.SubscriptionFilter) ([]*domain.Subscription, error) {
	if filter.Days != nil {
		filter.Since = s.now().AddDate(0, 0, -*filter.Days)
	}

	subs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

func (s *subscriptionService) BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error) {
	switch action {
	case ActionActivate:
		return s.repo.SetActive(ctx, ids, true)
	case ActionDeactivate:
		return s.repo.SetActive(ctx, ids, false)
	default:
		return 0, ErrUnknownAction
	}
}

func (s *subscriptionService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
