// Package payment creates hosted-checkout sessions with the payment provider.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/model"
)

// ErrPaymentDisabled is returned when no provider access token is configured.
var ErrPaymentDisabled = errors.New("payment provider not configured")

// Session is a created hosted-checkout session.
type Session struct {
	ID          string
	RedirectURL string
}

// Gateway creates checkout sessions for orders.
type Gateway interface {
	CreateCheckout(ctx context.Context, order *model.OrderDetail) (*Session, error)
}

// Options configures NewClient.
type Options struct {
	APIURL      string
	AccessToken string
	SuccessURL  string
	FailureURL  string
	Timeout     time.Duration
}

type client struct {
	http   *http.Client
	opts   Options
	logger zerolog.Logger
}

// NewClient returns a Gateway for the provider's preference API.
func NewClient(opts Options, logger zerolog.Logger) Gateway {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &client{
		http:   &http.Client{Timeout: opts.Timeout},
		opts:   opts,
		logger: logger.With().Str("component", "payment-client").Logger(),
	}
}

type preferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type preferencePayer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type preferenceRequest struct {
	ExternalReference string           `json:"external_reference"`
	Items             []preferenceItem `json:"items"`
	Payer             preferencePayer  `json:"payer"`
	BackURLs          backURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
	Shipments         *shipmentCost    `json:"shipments,omitempty"`
}

type shipmentCost struct {
	Cost float64 `json:"cost"`
	Mode string  `json:"mode"`
}

type preferenceResponse struct {
	ID        string `json:"id"`
	InitPoint string `json:"init_point"`
}

func (c *client) CreateCheckout(ctx context.Context, order *model.OrderDetail) (*Session, error) {
	if c.opts.AccessToken == "" {
		return nil, ErrPaymentDisabled
	}

	body, err := json.Marshal(c.buildPreference(order))
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment preference: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.APIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.AccessToken)
	req.Header.Set("X-Idempotency-Key", order.ID.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call payment provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error().
			Int("status", resp.StatusCode).
			Str("order_number", order.Number).
			Str("body", string(snippet)).
			Msg("payment provider rejected preference")
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode)
	}

	var pref preferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("failed to decode payment response: %w", err)
	}
	if pref.ID == "" || pref.InitPoint == "" {
		return nil, errors.New("payment provider response missing id or init_point")
	}

	c.logger.Info().
		Str("order_number", order.Number).
		Str("preference_id", pref.ID).
		Msg("checkout session created")

	return &Session{ID: pref.ID, RedirectURL: pref.InitPoint}, nil
}

func (c *client) buildPreference(order *model.OrderDetail) preferenceRequest {
	items := make([]preferenceItem, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, preferenceItem{
			ID:         item.ProductID.String(),
			Title:      item.ProductName,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			CurrencyID: "BRL",
		})
	}

	pref := preferenceRequest{
		ExternalReference: order.Number,
		Items:             items,
		Payer:             preferencePayer{Name: order.CustomerName, Email: order.CustomerEmail},
		BackURLs: backURLs{
			Success: c.opts.SuccessURL,
			Failure: c.opts.FailureURL,
			Pending: c.opts.SuccessURL,
		},
		AutoReturn: "approved",
	}
	if order.ShippingFee > 0 {
		pref.Shipments = &shipmentCost{Cost: order.ShippingFee, Mode: "not_specified"}
	}
	return pref
}
