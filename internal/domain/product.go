package domain

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"skybound/internal/validation"

	"github.com/google/uuid"
)

// Difficulty is the skill level a product is aimed at.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

var difficultyLabels = map[Difficulty]string{
	DifficultyBeginner:     "Начальный",
	DifficultyIntermediate: "Средний",
	DifficultyAdvanced:     "Продвинутый",
	DifficultyExpert:       "Эксперт",
}

// Valid reports whether d is one of the known levels.
func (d Difficulty) Valid() bool {
	_, ok := difficultyLabels[d]
	return ok
}

// Label returns the display name of the level.
func (d Difficulty) Label() string {
	if label, ok := difficultyLabels[d]; ok {
		return label
	}
	return string(d)
}

const (
	// DefaultButtonText is the call-to-action label used when none is set.
	DefaultButtonText = "Записаться"

	// ShortDescriptionLimit is the number of characters kept when a short
	// description is derived from the full description.
	ShortDescriptionLimit = 150
	ellipsis              = "..."

	minTitleLen       = 3
	maxTitleLen       = 200
	minDescriptionLen = 10
	maxButtonTextLen  = 100
	maxButtonLinkLen  = 200
	maxMetaTitleLen   = 255
	maxMetaDescLen    = 300
	maxKeywordsLen    = 300

	// maxPrice is the exclusive upper bound of a DECIMAL(10,2) column.
	maxPrice         = 1e8
	priceDecimals    = 2
	maxDurationHours = math.MaxInt32
)

// Product is a catalog entry: a course, jump or experience.
type Product struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	Title            string           `json:"title" db:"title"`
	Description      string           `json:"description" db:"description"`
	ShortDescription string           `json:"short_description" db:"short_description"`
	CategoryID       *uuid.UUID       `json:"category_id,omitempty" db:"category_id"`
	Category         *ProductCategory `json:"category,omitempty" db:"-"`
	Price            *float64         `json:"price,omitempty" db:"price"`
	DurationHours    *int             `json:"duration_hours,omitempty" db:"duration_hours"`
	Difficulty       Difficulty       `json:"difficulty" db:"difficulty"`
	ButtonText       string           `json:"button_text" db:"button_text"`
	ButtonLink       string           `json:"button_link" db:"button_link"`
	ImageURL         string           `json:"image_url" db:"image_url"`
	Slug             string           `json:"slug" db:"slug"`
	IsActive         bool             `json:"is_active" db:"is_active"`
	IsFeatured       bool             `json:"is_featured" db:"is_featured"`
	SortOrder        int              `json:"sort_order" db:"sort_order"`
	MetaTitle        string           `json:"meta_title" db:"meta_title"`
	MetaDescription  string           `json:"meta_description" db:"meta_description"`
	Keywords         string           `json:"keywords" db:"keywords"`
	CreatedAt        time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" db:"updated_at"`
}

// NewProduct returns a product with the catalog defaults applied.
func NewProduct() *Product {
	return &Product{
		Difficulty: DifficultyBeginner,
		ButtonText: DefaultButtonText,
		IsActive:   true,
	}
}

// Validate checks every user-supplied field and reports all violations at once.
func (p *Product) Validate() error {
	verr := &ValidationError{}

	p.Title = strings.TrimSpace(p.Title)
	switch n := utf8.RuneCountInString(p.Title); {
	case n < minTitleLen:
		verr.Add("title", "Title must be at least 3 characters")
	case n > maxTitleLen:
		verr.Add("title", "Title is too long (max 200 characters)")
	}

	p.Description = strings.TrimSpace(p.Description)
	if utf8.RuneCountInString(p.Description) < minDescriptionLen {
		verr.Add("description", "Description must be at least 10 characters")
	}

	if utf8.RuneCountInString(p.ButtonLink) > maxButtonLinkLen {
		verr.Add("button_link", "Button link is too long (max 200 characters)")
	} else if err := validation.ValidateButtonLink(p.ButtonLink); err != nil {
		verr.Add("button_link", "Enter a valid URL, mailto: address or a path starting with /")
	}

	if err := validation.ValidateHTTPURL(p.ImageURL); err != nil {
		verr.Add("image_url", "Enter a valid http or https image URL")
	}

	if p.Price != nil {
		switch v := *p.Price; {
		case math.IsNaN(v) || math.IsInf(v, 0):
			verr.Add("price", "Price must be a number")
		case v < 0:
			verr.Add("price", "Price cannot be negative")
		case v >= maxPrice:
			verr.Add("price", "Price is too large (max 99 999 999.99)")
		case !hasCents(v):
			verr.Add("price", "Price may have at most 2 decimal places")
		}
	}
	if p.DurationHours != nil {
		switch d := *p.DurationHours; {
		case d < 0:
			verr.Add("duration_hours", "Duration cannot be negative")
		case int64(d) > maxDurationHours:
			verr.Add("duration_hours", "Duration is too large")
		}
	}

	if p.Difficulty == "" {
		p.Difficulty = DifficultyBeginner
	}
	if !p.Difficulty.Valid() {
		verr.Add("difficulty", "Difficulty must be one of beginner, intermediate, advanced, expert")
	}

	if utf8.RuneCountInString(p.ButtonText) > maxButtonTextLen {
		verr.Add("button_text", "Button text is too long (max 100 characters)")
	}
	if utf8.RuneCountInString(p.MetaTitle) > maxMetaTitleLen {
		verr.Add("meta_title", "Meta title is too long (max 255 characters)")
	}
	if utf8.RuneCountInString(p.MetaDescription) > maxMetaDescLen {
		verr.Add("meta_description", "Meta description is too long (max 300 characters)")
	}
	if utf8.RuneCountInString(p.Keywords) > maxKeywordsLen {
		verr.Add("keywords", "Keywords are too long (max 300 characters)")
	}

	return verr.Err()
}

// hasCents reports whether the shortest decimal form of v has at most two
// fractional digits.
func hasCents(v float64) bool {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	_, frac, _ := strings.Cut(s, ".")
	return len(frac) <= priceDecimals
}

// ApplyDerivedFields fills the derived text fields that are still empty.
// Fields that already hold a value are left alone, so edits to the title or
// description after the first save do not propagate.
func (p *Product) ApplyDerivedFields(brandName string) {
	if p.ButtonText == "" {
		p.ButtonText = DefaultButtonText
	}
	if p.ShortDescription == "" {
		p.ShortDescription = TruncateDescription(p.Description)
	}
	if p.MetaTitle == "" {
		p.MetaTitle = p.Title + " — " + brandName
	}
	if p.MetaDescription == "" {
		p.MetaDescription = p.ShortDescription
	}
}

// TruncateDescription keeps the first ShortDescriptionLimit characters of
// description and appends an ellipsis when anything was cut.
func TruncateDescription(description string) string {
	if utf8.RuneCountInString(description) <= ShortDescriptionLimit {
		return description
	}
	runes := []rune(description)
	return string(runes[:ShortDescriptionLimit]) + ellipsis
}

// URL returns the site path of the product detail page.
func (p *Product) URL() string {
	return "/products/" + p.Slug
}

// PriceDisplay formats the price for cards and detail pages.
func (p *Product) PriceDisplay() string {
	return FormatPrice(p.Price)
}

// HasPrice reports whether the product shows a concrete price.
func (p *Product) HasPrice() bool {
	return p.Price != nil
}

func (p *Product) String() string {
	return p.Title
}
