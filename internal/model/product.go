package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a sellable item in the catalogue.
type Product struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Slug           string     `json:"slug" db:"slug"`
	Description    string     `json:"description" db:"description"`
	Price          float64    `json:"price" db:"price"`
	CompareAtPrice *float64   `json:"compareAtPrice,omitempty" db:"compare_at_price"`
	Stock          int        `json:"stock" db:"stock"`
	Images         []string   `json:"images" db:"images"`
	BrandID        *uuid.UUID `json:"brandId,omitempty" db:"brand_id"`
	CategoryID     *uuid.UUID `json:"categoryId,omitempty" db:"category_id"`
	ModelID        *uuid.UUID `json:"modelId,omitempty" db:"model_id"`
	BrandName      *string    `json:"brandName,omitempty" db:"brand_name"`
	CategoryName   *string    `json:"categoryName,omitempty" db:"category_name"`
	ModelName      *string    `json:"modelName,omitempty" db:"model_name"`
	Active         bool       `json:"active" db:"active"`
	Featured       bool       `json:"featured" db:"featured"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
}

// ProductInput is the admin payload for creating or replacing a product.
type ProductInput struct {
	Name           string     `json:"name" validate:"required,min=2,max=200"`
	Slug           string     `json:"slug" validate:"omitempty,slug,max=200"`
	Description    string     `json:"description" validate:"max=5000"`
	Price          float64    `json:"price" validate:"gt=0"`
	CompareAtPrice *float64   `json:"compareAtPrice,omitempty" validate:"omitempty,gtfield=Price"`
	Stock          int        `json:"stock" validate:"gte=0"`
	Images         []string   `json:"images" validate:"max=10,dive,required,max=500"`
	BrandID        *uuid.UUID `json:"brandId,omitempty"`
	CategoryID     *uuid.UUID `json:"categoryId,omitempty"`
	ModelID        *uuid.UUID `json:"modelId,omitempty"`
	Active         bool       `json:"active"`
	Featured       bool       `json:"featured"`
}

// ProductFilter narrows product listings.
type ProductFilter struct {
	Search          string
	CategorySlug    string
	BrandSlug       string
	ModelID         *uuid.UUID
	Featured        *bool
	IncludeInactive bool
	Sort            string // "newest", "price_asc", "price_desc", "name"
	Limit           int
	Offset          int
}

// ProductPage is a paginated product listing.
type ProductPage struct {
	Items  []Product `json:"items"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}
