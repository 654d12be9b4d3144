package model

import (
	"time"

	"github.com/google/uuid"
)

// Address is an entry in a user's address book.
// RecipientName, Phone, Street, Number and Complement are encrypted at rest.
type Address struct {
	ID            uuid.UUID `json:"id" db:"id"`
	UserID        uuid.UUID `json:"-" db:"user_id"`
	Label         string    `json:"label" db:"label"`
	RecipientName string    `json:"recipientName" db:"recipient_name"`
	Phone         string    `json:"phone" db:"phone"`
	Street        string    `json:"street" db:"street"`
	Number        string    `json:"number" db:"number"`
	Complement    string    `json:"complement" db:"complement"`
	District      string    `json:"district" db:"district"`
	City          string    `json:"city" db:"city"`
	State         string    `json:"state" db:"state"`
	PostalCode    string    `json:"postalCode" db:"postal_code"`
	IsDefault     bool      `json:"isDefault" db:"is_default"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// AddressInput is the payload for creating or replacing an address.
type AddressInput struct {
	Label         string `json:"label" validate:"max=50"`
	RecipientName string `json:"recipientName" validate:"required,min=3,max=120"`
	Phone         string `json:"phone" validate:"omitempty,phone_br"`
	Street        string `json:"street" validate:"required,max=200"`
	Number        string `json:"number" validate:"required,max=20"`
	Complement    string `json:"complement" validate:"max=100"`
	District      string `json:"district" validate:"required,max=100"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"required,len=2,alpha"`
	PostalCode    string `json:"postalCode" validate:"required,cep"`
	IsDefault     bool   `json:"isDefault"`
}

// ShippingAddress converts an address book entry into an order shipping address.
func (a *Address) ShippingAddress() ShippingAddress {
	return ShippingAddress{
		RecipientName: a.RecipientName,
		Street:        a.Street,
		Number:        a.Number,
		Complement:    a.Complement,
		District:      a.District,
		City:          a.City,
		State:         a.State,
		PostalCode:    a.PostalCode,
	}
}
