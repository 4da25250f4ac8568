package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"skybound/internal/domain"

	"github.com/google/uuid"
)

// Active products are always listed in this order.
const productOrdering = `ORDER BY p.sort_order ASC, p.created_at ASC`

const productSelect = `
	SELECT p.id, p.title, p.description, p.short_description, p.category_id,
	       p.price, p.duration_hours, p.difficulty, p.button_text, p.button_link,
	       p.image_url, p.slug, p.is_active, p.is_featured, p.sort_order,
	       p.meta_title, p.meta_description, p.keywords, p.created_at, p.updated_at,
	       c.id, c.name, c.slug, c.description, c.is_active, c.created_at
	FROM products p
	LEFT JOIN product_categories c ON c.id = p.category_id
`

// ProductFilter narrows the back-office product list. Nil fields are ignored.
type ProductFilter struct {
	Active       *bool
	Featured     *bool
	CategorySlug string
	Query        string
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FindActiveBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListActive(ctx context.Context, categorySlug string) ([]*domain.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error)
	ListRelated(ctx context.Context, product *domain.Product, limit int) ([]*domain.Product, error)
	ListPriced(ctx context.Context) ([]*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error)
	SlugsWithPrefix(ctx context.Context, base string, exclude *uuid.UUID) ([]string, error)
	SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error)
	SetFeatured(ctx context.Context, ids []uuid.UUID, featured bool) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create inserts a new product; a slug collision is reported as ErrSlugTaken
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	query := `
		INSERT INTO products (
			id, title, description, short_description, category_id, price, duration_hours,
			difficulty, button_text, button_link, image_url, slug, is_active, is_featured,
			sort_order, meta_title, meta_description, keywords, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Title,
		product.Description,
		product.ShortDescription,
		nullableUUID(product.CategoryID),
		nullableFloat(product.Price),
		nullableInt(product.DurationHours),
		string(product.Difficulty),
		product.ButtonText,
		product.ButtonLink,
		product.ImageURL,
		product.Slug,
		product.IsActive,
		product.IsFeatured,
		product.SortOrder,
		product.MetaTitle,
		product.MetaDescription,
		product.Keywords,
		product.CreatedAt,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update stores every editable column of an existing product
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	query := `
		UPDATE products
		SET title = $2, description = $3, short_description = $4, category_id = $5,
		    price = $6, duration_hours = $7, difficulty = $8, button_text = $9,
		    button_link = $10, image_url = $11, slug = $12, is_active = $13,
		    is_featured = $14, sort_order = $15, meta_title = $16,
		    meta_description = $17, keywords = $18, updated_at = $19
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Title,
		product.Description,
		product.ShortDescription,
		nullableUUID(product.CategoryID),
		nullableFloat(product.Price),
		nullableInt(product.DurationHours),
		string(product.Difficulty),
		product.ButtonText,
		product.ButtonLink,
		product.ImageURL,
		product.Slug,
		product.IsActive,
		product.IsFeatured,
		product.SortOrder,
		product.MetaTitle,
		product.MetaDescription,
		product.Keywords,
		product.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "products_slug_key") {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product from the database using parameterized queries
func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product regardless of its active flag
func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := scanProduct(r.db.QueryRowContext(ctx, productSelect+` WHERE p.id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}

	return product, nil
}

// FindActiveBySlug retrieves an active product for its detail page
func (r *productRepository) FindActiveBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := productSelect + ` WHERE p.slug = $1 AND p.is_active = TRUE`

	product, err := scanProduct(r.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by slug: %w", err)
	}

	return product, nil
}

// ListActive returns active products, optionally limited to one category slug
func (r *productRepository) ListActive(ctx context.Context, categorySlug string) ([]*domain.Product, error) {
	if categorySlug == "" {
		return r.list(ctx, productSelect+` WHERE p.is_active = TRUE `+productOrdering)
	}

	query := productSelect + ` WHERE p.is_active = TRUE AND c.slug = $1 ` + productOrdering
	return r.list(ctx, query, categorySlug)
}

// ListFeatured returns at most limit active featured products
func (r *productRepository) ListFeatured(ctx context.Context, limit int) ([]*domain.Product, error) {
	query := productSelect + ` WHERE p.is_active = TRUE AND p.is_featured = TRUE ` + productOrdering + ` LIMIT $1`
	return r.list(ctx, query, limit)
}

// ListRelated returns active products sharing the product's category,
// excluding the product itself. Products without a category have no relations.
func (r *productRepository) ListRelated(ctx context.Context, product *domain.Product, limit int) ([]*domain.Product, error) {
	if product.CategoryID == nil {
		return []*domain.Product{}, nil
	}

	query := productSelect + `
		WHERE p.is_active = TRUE AND p.category_id = $1 AND p.id <> $2
	` + productOrdering + ` LIMIT $3`
	return r.list(ctx, query, *product.CategoryID, product.ID, limit)
}

// ListPriced returns active products that carry a price
func (r *productRepository) ListPriced(ctx context.Context) ([]*domain.Product, error) {
	return r.list(ctx, productSelect+` WHERE p.is_active = TRUE AND p.price IS NOT NULL `+productOrdering)
}

// List retrieves products for the back office with optional filters
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_active = $%d", argIndex))
		args = append(args, *filter.Active)
		argIndex++
	}

	if filter.Featured != nil {
		conditions = append(conditions, fmt.Sprintf("p.is_featured = $%d", argIndex))
		args = append(args, *filter.Featured)
		argIndex++
	}

	if filter.CategorySlug != "" {
		conditions = append(conditions, fmt.Sprintf("c.slug = $%d", argIndex))
		args = append(args, filter.CategorySlug)
		argIndex++
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		// Use ILIKE for case-insensitive search
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE $%d OR p.description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+q+"%")
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	return r.list(ctx, productSelect+whereClause+" "+productOrdering, args...)
}

// SlugsWithPrefix returns base and every base-N slug already stored,
// ignoring the row identified by exclude.
func (r *productRepository) SlugsWithPrefix(ctx context.Context, base string, exclude *uuid.UUID) ([]string, error) {
	query := `
		SELECT slug FROM products
		WHERE (slug = $1 OR slug LIKE $2)
		  AND ($3::uuid IS NULL OR id <> $3)
	`
	return querySlugs(ctx, r.db, query, base, nullableUUID(exclude))
}

// SetActive toggles is_active on every listed product
func (r *productRepository) SetActive(ctx context.Context, ids []uuid.UUID, active bool) (int, error) {
	return r.bulkSet(ctx, "is_active", ids, active)
}

// SetFeatured toggles is_featured on every listed product
func (r *productRepository) SetFeatured(ctx context.Context, ids []uuid.UUID, featured bool) (int, error) {
	return r.bulkSet(ctx, "is_featured", ids, featured)
}

// bulkSet updates a boolean column; column is never user input.
func (r *productRepository) bulkSet(ctx context.Context, column string, ids []uuid.UUID, value bool) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`UPDATE products SET %s = $1, updated_at = NOW() WHERE id::text = ANY($2)`, column)
	result, err := r.db.ExecContext(ctx, query, value, idStrings(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to update products: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (r *productRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

func scanProduct(row scanner) (*domain.Product, error) {
	var (
		product    domain.Product
		difficulty string
		categoryID uuid.NullUUID
		price      sql.NullFloat64
		duration   sql.NullInt64

		catID        uuid.NullUUID
		catName      sql.NullString
		catSlug      sql.NullString
		catDesc      sql.NullString
		catActive    sql.NullBool
		catCreatedAt sql.NullTime
	)

	err := row.Scan(
		&product.ID,
		&product.Title,
		&product.Description,
		&product.ShortDescription,
		&categoryID,
		&price,
		&duration,
		&difficulty,
		&product.ButtonText,
		&product.ButtonLink,
		&product.ImageURL,
		&product.Slug,
		&product.IsActive,
		&product.IsFeatured,
		&product.SortOrder,
		&product.MetaTitle,
		&product.MetaDescription,
		&product.Keywords,
		&product.CreatedAt,
		&product.UpdatedAt,
		&catID,
		&catName,
		&catSlug,
		&catDesc,
		&catActive,
		&catCreatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.Difficulty = domain.Difficulty(difficulty)
	if categoryID.Valid {
		id := categoryID.UUID
		product.CategoryID = &id
	}
	if price.Valid {
		v := price.Float64
		product.Price = &v
	}
	if duration.Valid {
		v := int(duration.Int64)
		product.DurationHours = &v
	}
	if catID.Valid {
		product.Category = &domain.ProductCategory{
			ID:          catID.UUID,
			Name:        catName.String,
			Slug:        catSlug.String,
			Description: catDesc.String,
			IsActive:    catActive.Bool,
			CreatedAt:   catCreatedAt.Time,
		}
	}

	return &product, nil
}

func nullableFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
