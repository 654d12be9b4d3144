package model

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer's rating of a product. Reviews are hidden until approved.
type Review struct {
	ID         uuid.UUID `json:"id" db:"id"`
	ProductID  uuid.UUID `json:"productId" db:"product_id"`
	UserID     uuid.UUID `json:"-" db:"user_id"`
	AuthorName string    `json:"authorName" db:"author_name"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	Approved   bool      `json:"approved" db:"approved"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// ReviewInput is the payload for submitting a review.
type ReviewInput struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewSummary aggregates the approved reviews of a product.
type ReviewSummary struct {
	Average float64  `json:"average"`
	Count   int      `json:"count"`
	Reviews []Review `json:"reviews"`
}

// Testimonial is a curated customer quote shown on the storefront.
type Testimonial struct {
	ID         uuid.UUID `json:"id" db:"id"`
	AuthorName string    `json:"authorName" db:"author_name"`
	Content    string    `json:"content" db:"content"`
	Rating     int       `json:"rating" db:"rating"`
	AvatarURL  string    `json:"avatarUrl,omitempty" db:"avatar_url"`
	Position   int       `json:"position" db:"position"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// TestimonialInput is the admin payload for a testimonial.
type TestimonialInput struct {
	AuthorName string `json:"authorName" validate:"required,max=120"`
	Content    string `json:"content" validate:"required,max=2000"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	AvatarURL  string `json:"avatarUrl" validate:"max=500"`
	Position   int    `json:"position" validate:"gte=0"`
	Active     bool   `json:"active"`
}

// Banner is a promotional slide on the storefront home page.
type Banner struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Subtitle  string    `json:"subtitle" db:"subtitle"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	LinkURL   string    `json:"linkUrl,omitempty" db:"link_url"`
	Position  int       `json:"position" db:"position"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// BannerInput is the admin payload for a banner.
type BannerInput struct {
	Title    string `json:"title" validate:"required,max=150"`
	Subtitle string `json:"subtitle" validate:"max=300"`
	ImageURL string `json:"imageUrl" validate:"required,max=500"`
	LinkURL  string `json:"linkUrl" validate:"max=500"`
	Position int    `json:"position" validate:"gte=0"`
	Active   bool   `json:"active"`
}

// SettingsUpdate is the admin payload for upserting site settings.
type SettingsUpdate struct {
	Values map[string]string `json:"values" validate:"required,min=1,dive,keys,required,max=100,endkeys,max=5000"`
}

// HomePage aggregates everything the storefront landing page needs.
type HomePage struct {
	Banners      []Banner          `json:"banners"`
	Featured     []Product         `json:"featured"`
	Testimonials []Testimonial     `json:"testimonials"`
	Settings     map[string]string `json:"settings"`
}

// UploadResult describes a stored media file.
type UploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}
