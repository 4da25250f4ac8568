package repository

import (
	"context"
	"database/sql"
	"fmt"

	"skybound/internal/domain"

	"github.com/google/uuid"
)

const categoryColumns = `id, name, slug, description, is_active, created_at`

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.ProductCategory) error
	Update(ctx context.Context, category *domain.ProductCategory) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductCategory, error)
	List(ctx context.Context) ([]*domain.ProductCategory, error)
	ListActive(ctx context.Context) ([]*domain.ProductCategory, error)
	SlugsWithPrefix(ctx context.Context, base string, exclude *uuid.UUID) ([]string, error)
	SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

// Create inserts a new category; name and slug collisions map to sentinel errors
func (r *categoryRepository) Create(ctx context.Context, category *domain.ProductCategory) error {
	query := `
		INSERT INTO product_categories (id, name, slug, description, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.IsActive,
		category.CreatedAt,
	)

	if err != nil {
		return categoryWriteError("create", err)
	}

	return nil
}

// Update stores the editable fields of a category
func (r *categoryRepository) Update(ctx context.Context, category *domain.ProductCategory) error {
	query := `
		UPDATE product_categories
		SET name = $2, slug = $3, description = $4, is_active = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		category.ID,
		category.Name,
		category.Slug,
		category.Description,
		category.IsActive,
	)
	if err != nil {
		return categoryWriteError("update", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// Delete removes a category. Referencing products keep existing with their
// category cleared by the ON DELETE SET NULL foreign key.
func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM product_categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCategoryNotFound
	}

	return nil
}

// FindByID retrieves a category by ID using parameterized queries
func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.ProductCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM product_categories WHERE id = $1`

	category, err := scanCategory(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to find category by ID: %w", err)
	}

	return category, nil
}

// List retrieves all categories ordered by name
func (r *categoryRepository) List(ctx context.Context) ([]*domain.ProductCategory, error) {
	return r.list(ctx, `SELECT `+categoryColumns+` FROM product_categories ORDER BY name ASC`)
}

// ListActive retrieves active categories ordered by name
func (r *categoryRepository) ListActive(ctx context.Context) ([]*domain.ProductCategory, error) {
	return r.list(ctx, `SELECT `+categoryColumns+` FROM product_categories WHERE is_active = TRUE ORDER BY name ASC`)
}

// SlugsWithPrefix returns base and every base-N slug already stored,
// ignoring the row identified by exclude.
func (r *categoryRepository) SlugsWithPrefix(ctx context.Context, base string, exclude *uuid.UUID) ([]string, error) {
	query := `
		SELECT slug FROM product_categories
		WHERE (slug = $1 OR slug LIKE $2)
		  AND ($3::uuid IS NULL OR id <> $3)
	`
	return querySlugs(ctx, r.db, query, base, nullableUUID(exclude))
}

// SetActive toggles is_active on every listed category
func (r *categoryRepository) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE product_categories SET is_active = $1 WHERE id::text = ANY($2)`,
		active, idStrings(ids),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update categories: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (r *categoryRepository) list(ctx context.Context, query string, args ...any) ([]*domain.ProductCategory, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.ProductCategory{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, category)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

func scanCategory(row scanner) (*domain.ProductCategory, error) {
	category := &domain.ProductCategory{}
	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.Slug,
		&category.Description,
		&category.IsActive,
		&category.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return category, nil
}

func categoryWriteError(op string, err error) error {
	switch {
	case isUniqueViolation(err, "product_categories_name_key"):
		return ErrCategoryNameTaken
	case isUniqueViolation(err, "product_categories_slug_key"):
		return ErrSlugTaken
	}
	return fmt.Errorf("failed to %s category: %w", op, err)
}

// querySlugs runs a slug prefix query where $1 is the base slug and $2 the
// LIKE pattern for numbered variants.
func querySlugs(ctx context.Context, db *sql.DB, query, base string, exclude uuid.NullUUID) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, base, base+"-%", exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to query slugs: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan slug: %w", err)
		}
		slugs = append(slugs, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating slugs: %w", err)
	}

	return slugs, nil
}
