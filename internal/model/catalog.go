package model

import (
	"time"

	"github.com/google/uuid"
)

// Brand is a product manufacturer.
type Brand struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	LogoURL   string    `json:"logoUrl,omitempty" db:"logo_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// BrandInput is the admin payload for a brand.
type BrandInput struct {
	Name    string `json:"name" validate:"required,min=1,max=100"`
	Slug    string `json:"slug" validate:"omitempty,slug,max=100"`
	LogoURL string `json:"logoUrl" validate:"max=500"`
}

// Category groups products; categories may be nested one level through ParentID.
type Category struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Name      string     `json:"name" db:"name"`
	Slug      string     `json:"slug" db:"slug"`
	ParentID  *uuid.UUID `json:"parentId,omitempty" db:"parent_id"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
}

// CategoryInput is the admin payload for a category.
type CategoryInput struct {
	Name     string     `json:"name" validate:"required,min=1,max=100"`
	Slug     string     `json:"slug" validate:"omitempty,slug,max=100"`
	ParentID *uuid.UUID `json:"parentId,omitempty"`
}

// ProductModel is a device model products are compatible with, owned by a brand.
type ProductModel struct {
	ID        uuid.UUID `json:"id" db:"id"`
	BrandID   uuid.UUID `json:"brandId" db:"brand_id"`
	Name      string    `json:"name" db:"name"`
	Slug      string    `json:"slug" db:"slug"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ProductModelInput is the admin payload for a product model.
type ProductModelInput struct {
	BrandID uuid.UUID `json:"brandId" validate:"required"`
	Name    string    `json:"name" validate:"required,min=1,max=100"`
	Slug    string    `json:"slug" validate:"omitempty,slug,max=100"`
}
