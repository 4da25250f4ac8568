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

const fallbackProductSlug = "product"

// ProductService defines the product write path and back-office reads
type ProductService interface {
	// Save validates p, fills its derived fields and persists it. A zero ID
	// creates a new product.
	Save(ctx context.Context, p *domain.Product) (*domain.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error)
}

type productService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	brandName  string
	now        func() time.Time
}

// NewProductService creates a new instance of ProductService
func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository, brandName string) ProductService {
	return &productService{
		products:   products,
		categories: categories,
		brandName:  brandName,
		now:        time.Now,
	}
}

func (s *productService) Save(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	verr := &domain.ValidationError{}
	if ve, ok := domain.AsValidationError(p.Validate()); ok {
		verr.Fields = append(verr.Fields, ve.Fields...)
	}

	suppliedSlug := p.Slug != ""
	if suppliedSlug && slug.Slugify(p.Slug) != p.Slug {
		verr.Add("slug", "Slug may only contain lowercase letters, digits and hyphens")
	}

	if p.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *p.CategoryID); err != nil {
			if !errors.Is(err, repository.ErrCategoryNotFound) {
				return nil, fmt.Errorf("failed to load category: %w", err)
			}
			verr.Add("category_id", "Category does not exist")
		}
	}

	if err := verr.Err(); err != nil {
		return nil, err
	}

	isNew := p.ID == uuid.Nil
	now := s.now().UTC()
	if isNew {
		p.ID = uuid.New()
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.ApplyDerivedFields(s.brandName)

	var exclude *uuid.UUID
	if !isNew {
		exclude = &p.ID
	}

	base := slug.Slugify(p.Title)
	if base == "" {
		base = fallbackProductSlug
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		if !suppliedSlug {
			existing, err := s.products.SlugsWithPrefix(ctx, base, exclude)
			if err != nil {
				return nil, fmt.Errorf("failed to check slug: %w", err)
			}
			p.Slug = slug.EnsureUnique(base, existing)
		}

		var err error
		if isNew {
			err = s.products.Create(ctx, p)
		} else {
			err = s.products.Update(ctx, p)
		}

		switch {
		case err == nil:
			return p, nil
		case errors.Is(err, repository.ErrSlugTaken):
			if suppliedSlug {
				return nil, domain.NewValidationError("slug", "A product with this slug already exists")
			}
			continue
		default:
			return nil, fmt.Errorf("failed to save product: %w", err)
		}
	}

	return nil, fmt.Errorf("failed to save product: %w", repository.ErrSlugTaken)
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.products.FindByID(ctx, id)
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, error) {
	products, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.products.Delete(ctx, id)
}

func (s *productService) BulkAction(ctx context.Context, action string, ids []uuid.UUID) (int, error) {
	switch action {
	case ActionActivate:
		return s.products.SetActive(ctx, ids, true)
	case ActionDeactivate:
		return s.products.SetActive(ctx, ids, false)
	case ActionFeature:
		return s.products.SetFeatured(ctx, ids, true)
	case ActionUnfeature:
		return s.products.SetFeatured(ctx, ids, false)
	default:
		return 0, ErrUnknownAction
	}
}
