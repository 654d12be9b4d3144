package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// orderTransitions lists the statuses reachable from each status.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusPaid, OrderStatusCancelled},
	OrderStatusPaid:    {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped: {OrderStatusDelivered, OrderStatusCancelled},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Final reports whether no further transitions are possible.
func (s OrderStatus) Final() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// CanTransitionTo reports whether an order may move from s to next.
// Re-applying the current status is allowed so tracking codes can be amended.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return !s.Final()
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ShippingAddress is the delivery address captured on an order.
type ShippingAddress struct {
	RecipientName string `json:"recipientName" validate:"required,min=3,max=120"`
	Street        string `json:"street" validate:"required,max=200"`
	Number        string `json:"number" validate:"required,max=20"`
	Complement    string `json:"complement" validate:"max=100"`
	District      string `json:"district" validate:"required,max=100"`
	City          string `json:"city" validate:"required,max=100"`
	State         string `json:"state" validate:"required,len=2,alpha"`
	PostalCode    string `json:"postalCode" validate:"required,cep"`
}

// Order represents a customer order header.
// Customer fields and the shipping address hold plaintext in memory and are
// encrypted only at rest.
type Order struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	Number           string          `json:"number" db:"number"`
	UserID           *uuid.UUID      `json:"userId,omitempty" db:"user_id"`
	CustomerName     string          `json:"customerName" db:"customer_name"`
	CustomerEmail    string          `json:"customerEmail" db:"customer_email"`
	CustomerCPF      string          `json:"customerCpf" db:"customer_cpf"`
	CustomerPhone    string          `json:"customerPhone" db:"customer_phone"`
	ShippingAddress  ShippingAddress `json:"shippingAddress" db:"shipping_address"`
	Subtotal         float64         `json:"subtotal" db:"subtotal"`
	ShippingFee      float64         `json:"shippingFee" db:"shipping_fee"`
	Total            float64         `json:"total" db:"total"`
	Status           OrderStatus     `json:"status" db:"status"`
	PaymentMethod    string          `json:"paymentMethod" db:"payment_method"`
	PaymentReference *string         `json:"paymentReference,omitempty" db:"payment_reference"`
	TrackingCode     *string         `json:"trackingCode,omitempty" db:"tracking_code"`
	Notes            string          `json:"notes,omitempty" db:"notes"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order, priced at checkout time.
type OrderItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrderID     uuid.UUID `json:"-" db:"order_id"`
	ProductID   uuid.UUID `json:"productId" db:"product_id"`
	ProductName string    `json:"productName" db:"product_name"`
	UnitPrice   float64   `json:"unitPrice" db:"unit_price"`
	Quantity    int       `json:"quantity" db:"quantity"`
	LineTotal   float64   `json:"lineTotal" db:"line_total"`
}

// OrderDetail is an order together with its line items.
type OrderDetail struct {
	Order
	Items []OrderItem `json:"items"`
}

// CheckoutCustomer holds the buyer identification collected at checkout.
type CheckoutCustomer struct {
	Name  string `json:"name" validate:"required,min=3,max=120"`
	Email string `json:"email" validate:"required,email,max=254"`
	CPF   string `json:"cpf" validate:"required,cpf"`
	Phone string `json:"phone" validate:"required,phone_br"`
}

// CheckoutItem is a single cart line submitted at checkout.
type CheckoutItem struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gt=0,lte=100"`
}

// CheckoutRequest represents the request payload for placing an order.
type CheckoutRequest struct {
	Customer      CheckoutCustomer `json:"customer"`
	Address       ShippingAddress  `json:"address"`
	Items         []CheckoutItem   `json:"items" validate:"required,min=1,max=50,dive"`
	PaymentMethod string           `json:"paymentMethod" validate:"omitempty,oneof=pix card boleto"`
	Notes         string           `json:"notes" validate:"max=500"`
}

// CheckoutResponse is returned after an order has been placed.
// RedirectURL points at the payment provider's hosted checkout when one was created.
type CheckoutResponse struct {
	Order       *OrderDetail `json:"order"`
	RedirectURL string       `json:"redirectUrl,omitempty"`
}

// OrderStatusUpdate is the admin payload for moving an order through its lifecycle.
type OrderStatusUpdate struct {
	Status       OrderStatus `json:"status" validate:"required,oneof=pending paid shipped delivered cancelled"`
	TrackingCode *string     `json:"trackingCode,omitempty" validate:"omitempty,tracking_code"`
}

// OrderLookupRequest lets a guest find an order by number and email.
type OrderLookupRequest struct {
	Number string `json:"number" validate:"required,max=32"`
	Email  string `json:"email" validate:"required,email"`
}

// OrderLookupResponse is the public view of an order found by lookup.
type OrderLookupResponse struct {
	Number       string        `json:"number"`
	Status       OrderStatus   `json:"status"`
	Total        float64       `json:"total"`
	TrackingCode *string       `json:"trackingCode,omitempty"`
	Tracking     *TrackingInfo `json:"tracking,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// OrderFilter narrows admin order listings.
type OrderFilter struct {
	Status OrderStatus
	Limit  int
	Offset int
}

// TrackingInfo is the carrier's view of a shipment.
type TrackingInfo struct {
	Code   string          `json:"code"`
	Status string          `json:"status"`
	Events []TrackingEvent `json:"events"`
}

// TrackingEvent is a single carrier scan.
type TrackingEvent struct {
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
}

// OrderPage is a paginated order listing for the back office.
type OrderPage struct {
	Items  []Order `json:"items"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}
