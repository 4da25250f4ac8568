package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skybound/internal/domain"
	"skybound/internal/repository"
	"skybound/internal/slug"

	"github.com/google/uuid"
)

const fallbackCategorySlug = "category"

// CategoryService defines the category write path
type CategoryService interface {
	// Save validates and persists c. A zero ID creates a new category. The
	// slug is derived from the name only while it is empty.
	Save(ctx context.Context, c *domain.ProductCategory) (*domain.ProductCategory, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ProductCategory, error)
	List(ctx context.Context) ([]*domain.ProductCategory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error)
}

type categoryService struct {
	repo repository.CategoryRepository
	now  func() time.Time
}

// NewCategoryService creates a new instance of CategoryService
func NewCategoryService(repo repository.CategoryRepository) CategoryService {
	return &categoryService{repo: repo, now: time.Now}
}

func (s *categoryService) Save(ctx context.Context, c *domain.ProductCategory) (*domain.ProductCategory, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	suppliedSlug := c.Slug != ""
	if suppliedSlug && slug.Slugify(c.Slug) != c.Slug {
		return nil, domain.NewValidationError("slug", "Slug may only contain lowercase letters, digits and hyphens")
	}

	isNew := c.ID == uuid.Nil
	if isNew {
		c.ID = uuid.New()
		c.CreatedAt = s.now().UTC()
	}

	var exclude *uuid.UUID
	if !isNew {
		exclude = &c.ID
	}

	base := slug.Slugify(c.Name)
	if base == "" {
		base = fallbackCategorySlug
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		if !suppliedSlug {
			existing, err := s.repo.SlugsWithPrefix(ctx, base, exclude)
			if err != nil {
				return nil, fmt.Errorf("failed to check slug: %w", err)
			}
			c.Slug = slug.EnsureUnique(base, existing)
		}

		var err error
		if isNew {
			err = s.repo.Create(ctx, c)
		} else {
			err = s.repo.Update(ctx, c)
		}

		switch {
		case err == nil:
			return c, nil
		case errors.Is(err, repository.ErrCategoryNameTaken):
			return nil, domain.NewValidationError("name", "A category with this name already exists")
		case errors.Is(err, repository.ErrSlugTaken):
			if suppliedSlug {
				return nil, domain.NewValidationError("slug", "A category with this slug already exists")
			}
			continue
		default:
			return nil, fmt.Errorf("failed to save category: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to save category: %w", repository.ErrSlugTaken)
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*domain.ProductCategory, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *categoryService) List(ctx context.Context) ([]*domain.ProductCategory, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// Delete removes the category; its products lose the reference but remain.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *categoryService) BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error) {
	switch action {
	case ActionActivate:
		return s.repo.SetActive(ctx, ids, true)
	case ActionDeactivate:
		return s.repo.SetActive(ctx, ids, false)
	default:
		return 0, ErrUnknownAction
	}
}
