package service

import (
	"context"
	"fmt"

	"skybound/internal/domain"
	"skybound/internal/repository"
)

const (
	// FeaturedLimit caps the featured block on the home page.
	FeaturedLimit = 3
	// RelatedLimit caps the related products on a detail page.
	RelatedLimit = 3
)

// HomePage is the data behind "/".
type HomePage struct {
	Products   []*domain.Product
	Featured   []*domain.Product
	Categories []*domain.ProductCategory
}

// ProgramsPage is the data behind "/programs".
type ProgramsPage struct {
	Products   []*domain.Product
	Categories []*domain.ProductCategory
}

// ProductPage is the data behind "/products/{slug}".
type ProductPage struct {
	Product *domain.Product
	Related []*domain.Product
}

// CatalogService defines the read-only queries used by the public site
type CatalogService interface {
	Home(ctx context.Context, categorySlug string) (*HomePage, error)
	Programs(ctx context.Context, categorySlug string) (*ProgramsPage, error)
	Product(ctx context.Context, slug string) (*ProductPage, error)
	Pricing(ctx context.Context) ([]*domain.Product, error)
	ActiveProducts(ctx context.Context) ([]*domain.Product, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository) CatalogService {
	return &catalogService{products: products, categories: categories}
}

func (s *catalogService) Home(ctx context.Context, categorySlug string) (*HomePage, error) {
	products, err := s.products.ListActive(ctx, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	featured, err := s.products.ListFeatured(ctx, FeaturedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load featured products: %w", err)
	}

	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	return &HomePage{Products: products, Featured: featured, Categories: categories}, nil
}

func (s *catalogService) Programs(ctx context.Context, categorySlug string) (*ProgramsPage, error) {
	products, err := s.products.ListActive(ctx, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	return &ProgramsPage{Products: products, Categories: categories}, nil
}

// Product returns an active product and its related products. Inactive or
// unknown slugs yield repository.ErrProductNotFound.
func (s *catalogService) Product(ctx context.Context, slug string) (*ProductPage, error) {
	product, err := s.products.FindActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	related, err := s.products.ListRelated(ctx, product, RelatedLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load related products: %w", err)
	}

	return &ProductPage{Product: product, Related: related}, nil
}

func (s *catalogService) Pricing(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.ListPriced(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load priced products: %w", err)
	}
	return products, nil
}

func (s *catalogService) ActiveProducts(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.ListActive(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}
