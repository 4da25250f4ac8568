package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxCategoryNameLen = 100

// ProductCategory groups products on the catalog pages.
type ProductCategory struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// NewProductCategory returns a category with default flags set.
func NewProductCategory() *ProductCategory {
	return &ProductCategory{IsActive: true}
}

// Validate trims the name and checks it is present and short enough.
func (c *ProductCategory) Validate() error {
	verr := &ValidationError{}

	c.Name = strings.TrimSpace(c.Name)
	switch {
	case c.Name == "":
		verr.Add("name", "Name is required")
	case utf8.RuneCountInString(c.Name) > maxCategoryNameLen:
		verr.Add("name", "Name is too long (max 100 characters)")
	}

	return verr.Err()
}

func (c *ProductCategory) String() string {
	return c.Name
}
