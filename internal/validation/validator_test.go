package validation

import (
	"testing"

	"storefront/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidCPF(t *testing.T) {
	tests := []struct {
		cpf   string
		valid bool
	}{
		{"52998224725", true},
		{"529.982.247-25", true},
		{"52998224724", false},
		{"11111111111", false},
		{"1234567890", false},
		{"5299822472a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.cpf, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidCPF(tt.cpf))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "11987654321", NormalizePhone("+55 (11) 98765-4321"))
	assert.Equal(t, "1133334444", NormalizePhone("(11) 3333-4444"))
	assert.Equal(t, "123", NormalizePhone("123"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "capa-para-iphone-15-pro", Slugify("Capa para iPhone 15 Pro"))
	assert.Equal(t, "acessorios-eletronicos", Slugify("  Acessórios & Eletrônicos "))
	assert.Equal(t, "", Slugify("!!!"))
}

func validCheckout() *model.CheckoutRequest {
	return &model.CheckoutRequest{
		Customer: model.CheckoutCustomer{
			Name:  "Maria Souza",
			Email: "maria@example.com",
			CPF:   "529.982.247-25",
			Phone: "(11) 98765-4321",
		},
		Address: model.ShippingAddress{
			RecipientName: "Maria Souza",
			Street:        "Rua das Flores",
			Number:        "100",
			District:      "Centro",
			City:          "São Paulo",
			State:         "SP",
			PostalCode:    "01001-000",
		},
		Items:         []model.CheckoutItem{{ProductID: uuid.New(), Quantity: 1}},
		PaymentMethod: "pix",
	}
}

func TestValidator_Checkout(t *testing.T) {
	v := New()

	tests := []struct {
		name   string
		mutate func(r *model.CheckoutRequest)
		field  string
	}{
		{name: "Valid request", mutate: func(r *model.CheckoutRequest) {}},
		{name: "Invalid CPF", mutate: func(r *model.CheckoutRequest) { r.Customer.CPF = "123.456.789-00" }, field: "customer.cpf"},
		{name: "Invalid email", mutate: func(r *model.CheckoutRequest) { r.Customer.Email = "not-an-email" }, field: "customer.email"},
		{name: "Invalid phone", mutate: func(r *model.CheckoutRequest) { r.Customer.Phone = "12345" }, field: "customer.phone"},
		{name: "Invalid CEP", mutate: func(r *model.CheckoutRequest) { r.Address.PostalCode = "1234" }, field: "address.postalCode"},
		{name: "Invalid state", mutate: func(r *model.CheckoutRequest) { r.Address.State = "SPX" }, field: "address.state"},
		{name: "Empty cart", mutate: func(r *model.CheckoutRequest) { r.Items = nil }, field: "items"},
		{name: "Zero quantity", mutate: func(r *model.CheckoutRequest) { r.Items[0].Quantity = 0 }, field: "items[0].quantity"},
		{name: "Missing product", mutate: func(r *model.CheckoutRequest) { r.Items[0].ProductID = uuid.Nil }, field: "items[0].productId"},
		{name: "Unknown payment method", mutate: func(r *model.CheckoutRequest) { r.PaymentMethod = "cash" }, field: "paymentMethod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCheckout()
			tt.mutate(req)

			err := v.Validate(req)

			if tt.field == "" {
				require.NoError(t, err)
				return
			}

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestValidator_Messages(t *testing.T) {
	v := New()

	err := v.Validate(&model.RegisterRequest{Name: "Jo", Email: "jo@example.com", Password: "short"})

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "must be at least 3 characters", verr.Fields["name"])
	assert.Equal(t, "must be at least 8 characters and contain a letter and a digit", verr.Fields["password"])
	assert.NotContains(t, verr.Fields, "email")
}

func TestValidator_ProductCompareAtPrice(t *testing.T) {
	v := New()
	lower := 5.0
	higher := 50.0

	input := &model.ProductInput{Name: "Cabo USB-C", Price: 10, CompareAtPrice: &lower}
	var verr *model.ValidationError
	require.ErrorAs(t, v.Validate(input), &verr)
	assert.Contains(t, verr.Fields, "compareAtPrice")

	input.CompareAtPrice = &higher
	assert.NoError(t, v.Validate(input))
}

func TestValidator_Var(t *testing.T) {
	v := New()

	assert.NoError(t, v.Var("code", "AA123456789BR", "tracking_code"))

	var verr *model.ValidationError
	require.ErrorAs(t, v.Var("code", "AA123", "tracking_code"), &verr)
	assert.Equal(t, "must be a valid tracking code (AA123456789BR)", verr.Fields["code"])
}

func TestMustRegister(t *testing.T) {
	assert.NotPanics(t, func() { New() })

	v := validator.New()
	assert.PanicsWithValue(t, `validation: register "": function Key cannot be empty`, func() {
		mustRegister(v, "", validateSlug)
	})
}
