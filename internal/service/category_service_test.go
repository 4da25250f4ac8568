package service

import (
	"context"
	"testing"

	"skybound/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorySave_DerivesSlugOnce(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepository())
	ctx := context.Background()

	c := domain.NewProductCategory()
	c.Name = "  Обучение  "
	saved, err := svc.Save(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, "Обучение", saved.Name)
	assert.Equal(t, "obuchenie", saved.Slug)

	saved.Name = "Курсы"
	renamed, err := svc.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, "obuchenie", renamed.Slug)
}

func TestCategorySave_Conflicts(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepository())
	ctx := context.Background()

	first := domain.NewProductCategory()
	first.Name = "Jumps"
	_, err := svc.Save(ctx, first)
	require.NoError(t, err)

	sameName := domain.NewProductCategory()
	sameName.Name = "Jumps"
	_, err = svc.Save(ctx, sameName)
	verr, ok := domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "name", verr.Fields[0].Field)

	sameSlug := domain.NewProductCategory()
	sameSlug.Name = "Other"
	sameSlug.Slug = "jumps"
	_, err = svc.Save(ctx, sameSlug)
	verr, ok = domain.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "slug", verr.Fields[0].Field)

	derived := domain.NewProductCategory()
	derived.Name = "JUMPS!"
	saved, err := svc.Save(ctx, derived)
	require.NoError(t, err)
	assert.Equal(t, "jumps-1", saved.Slug)
}

func TestCategorySave_EmptyName(t *testing.T) {
	svc := NewCategoryService(newMockCategoryRepository())

	c := domain.NewProductCategory()
	c.Name = "   "
	_, err := svc.Save(context.Background(), c)
	_, ok := domain.AsValidationError(err)
	assert.True(t, ok)
}

func TestCategoryBulkAndDelete(t *testing.T) {
	repo := newMockCategoryRepository()
	svc := NewCategoryService(repo)
	ctx := context.Background()

	c := domain.NewProductCategory()
	c.Name = "Courses"
	saved, err := svc.Save(ctx, c)
	require.NoError(t, err)

	n, err := svc.BulkAction(ctx, ActionDeactivate, []uuid.UUID{saved.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, repo.categories[saved.ID].IsActive)

	_, err = svc.BulkAction(ctx, ActionFeature, []uuid.UUID{saved.ID})
	assert.ErrorIs(t, err, ErrUnknownAction)

	require.NoError(t, svc.Delete(ctx, saved.ID))
	assert.ErrorIs(t, svc.Delete(ctx, saved.ID), domain.ErrNotFound)
}
