package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"skybound/internal/domain"
	"skybound/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draftProduct(title string) *domain.Product {
	p := domain.NewProduct()
	p.Title = title
	p.Description = "Ten or more characters of description"
	p.ImageURL = "https://cdn.example.com/img.jpg"
	return p
}

func TestProductSave_SequentialDuplicateTitles(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo, newMockCategoryRepository(), "Skybound")
	ctx := context.Background()

	var slugs []string
	for i := 0; i < 3; i++ {
		p, err := svc.Save(ctx, draftProduct("Tandem Jump"))
		require.NoError(t, err)
		slugs = append(slugs, p.Slug)
	}

	assert.Equal(t, []string{"tandem-jump", "tandem-jump-1", "tandem-jump-2"}, slugs)
}

func TestProductSave_DerivedFields(t *testing.T) {
	svc := NewProductService(newMockProductRepository(), newMockCategoryRepository(), "Skybound")
	ctx := context.Background()

	draft := draftProduct("Прыжок с парашютом")
	draft.Description = strings.Repeat("а", 200)
	draft.ButtonText = ""

	p, err := svc.Save(ctx, draft)
	require.NoError(t, err)
	assert.Equal(t, "pryzhok-s-parashyutom", p.Slug)
	assert.Equal(t, "Прыжок с парашютом — Skybound", p.MetaTitle)
	assert.Equal(t, strings.Repeat("а", 150)+"...", p.ShortDescription)
	assert.Equal(t, p.ShortDescription, p.MetaDescription)
	assert.Equal(t, domain.DefaultButtonText, p.ButtonText)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestProductSave_DerivedFieldsFrozenOnUpdate(t *testing.T) {
	svc := NewProductService(newMockProductRepository(), newMockCategoryRepository(), "Skybound")
	ctx := context.Background()

	p, err := svc.Save(ctx, draftProduct("Tandem Jump"))
	require.NoError(t, err)

	p.Title = "Tandem Jump Deluxe"
	updated, err := svc.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "Tandem Jump — Skybound", updated.MetaTitle)
	assert.Equal(t, "tandem-jump", updated.Slug)
}

func TestProductSave_ResaveWithEmptySlugDoesNotCollideWithItself(t *testing.T) {
	svc := NewProductService(newMockProductRepository(), newMockCategoryRepository(), "Skybound")
	ctx := context.Background()

	p, err := svc.Save(ctx, draftProduct("Solo Jump"))
	require.NoError(t, err)

	p.Slug = ""
	resaved, err := svc.Save(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "solo-jump", resaved.Slug)
}

func TestProductSave_RetriesAfterConcurrentSlugClaim(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo, newMockCategoryRepository(), "Skybound")

	raced := false
	repo.beforeWrite = func(p *domain.Product) {
		if raced {
			return
		}
		raced = true
		other := draftProduct("Tandem Jump")
		other.ID = uuid.New()
		other.Slug = p.Slug
		repo.products[other.ID] = other
	}

	p, err := svc.Save(context.Background(), draftProduct("Tandem Jump"))
	require.NoError(t, err)
	assert.Equal(t, "tandem-jump-1", p.Slug)
	assert.Equal(t, 2, repo.writes)
}

func TestProductSave_GivesUpAfterRepeatedCollisions(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo, newMockCategoryRepository(), "Skybound")

	repo.beforeWrite = func(p *domain.Product) {
		other := draftProduct("Tandem Jump")
		other.ID = uuid.New()
		other.Slug = p.Slug
		repo.products[other.ID] = other
	}

	_, err := svc.Save(context.Background(), draftProduct("Tandem Jump"))
	assert.ErrorIs(t, err, repository.ErrSlugTaken)
	assert.Equal(t, maxSlugAttempts, repo.writes)
}

func TestProductSave_SuppliedDuplicateSlug(t *testing.T) {
	svc := NewProductService(newMockProductRepository(), newMockCategoryRepository(), "Skybound")
	ctx := context.Background()

	_, err := svc.Save(ctx, draftProduct("Tandem Jump"))
	require.NoError(t, err)

	dup := draftProduct("Something else")
	dup.Slug = "tandem-jump"
	_, err = svc.Save(ctx, dup)

	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "slug", verr.Fields[0].Field)
}

func TestProductSave_ValidationErrors(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo, newMockCategoryRepository(), "Skybound")

	missing := uuid.New()
	draft := domain.NewProduct()
	draft.Title = "ab"
	draft.Description = "short"
	draft.ButtonLink = "not-a-url"
	draft.ImageURL = "ftp://example.com/x.png"
	draft.Slug = "Bad Slug"
	draft.CategoryID = &missing

	_, err := svc.Save(context.Background(), draft)
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)

	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	for _, name := range []string{"title", "description", "button_link", "image_url", "slug", "category_id"} {
		assert.True(t, fields[name], "expected error on %s", name)
	}
	assert.Zero(t, repo.writes)
}

func TestProductSave_OutOfRangeNumbersRejectedBeforeWrite(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo, newMockCategoryRepository(), "Skybound")

	draft := draftProduct("Expensive Jump")
	price := 1e9
	draft.Price = &price

	_, err := svc.Save(context.Background(), draft)
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected ValidationError, got %v", err)
	require.Len(t, verr.Fields, 1)
	assert.Equal(t, "price", verr.Fields[0].Field)
	assert.Zero(t, repo.writes)
}

func TestProductSave_FallbackSlug(t *testing.T) {
	svc := NewProductService(newMockProductRepository(), newMockCategoryRepository(), "Skybound")

	p, err := svc.Save(context.Background(), draftProduct("!!!"))
	require.NoError(t, err)
	assert.Equal(t, "product", p.Slug)
}

func TestProductBulkAction(t *testing.T) {
	repo := newMockProductRepository()
	svc := NewProductService(repo, newMockCategoryRepository(), "Skybound")
	ctx := context.Background()

	p, err := svc.Save(ctx, draftProduct("Night Jump"))
	require.NoError(t, err)

	n, err := svc.BulkAction(ctx, ActionFeature, []uuid.UUID{p.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, repo.products[p.ID].IsFeatured)

	_, err = svc.BulkAction(ctx, ActionDeactivate, []uuid.UUID{p.ID})
	require.NoError(t, err)
	assert.False(t, repo.products[p.ID].IsActive)

	_, err = svc.BulkAction(ctx, "explode", []uuid.UUID{p.ID})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestProductSave_UsesClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &productService{
		products:   newMockProductRepository(),
		categories: newMockCategoryRepository(),
		brandName:  "Skybound",
		now:        func() time.Time { return fixed },
	}

	p, err := svc.Save(context.Background(), draftProduct("Clocked"))
	require.NoError(t, err)
	assert.Equal(t, fixed, p.CreatedAt)
	assert.Equal(t, fixed, p.UpdatedAt)
}
