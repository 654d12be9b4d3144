package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/email"
	"storefront/internal/model"
	"storefront/internal/payment"
	"storefront/internal/repository"
	"storefront/internal/tracking"
)

const orderNumberAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ShippingRule is the flat-fee shipping policy: free at or above FreeThreshold.
type ShippingRule struct {
	FlatFee       float64
	FreeThreshold float64
}

// Fee returns the shipping charged for an order with the given subtotal.
func (r ShippingRule) Fee(subtotal float64) float64 {
	if subtotal >= r.FreeThreshold {
		return 0
	}
	return r.FlatFee
}

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	payments    payment.Gateway
	tracker     tracking.Tracker
	notifier    email.Notifier
	shipping    ShippingRule
	logger      zerolog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	payments payment.Gateway,
	tracker tracking.Tracker,
	notifier email.Notifier,
	shipping ShippingRule,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		payments:    payments,
		tracker:     tracker,
		notifier:    notifier,
		shipping:    shipping,
		logger:      logger.With().Str("service", "order").Logger(),
		now:         time.Now,
	}
}

// Checkout places an order priced from the catalogue.
func (s *orderService) Checkout(ctx context.Context, userID *uuid.UUID, req *model.CheckoutRequest) (*model.CheckoutResponse, error) {
	lines, err := s.validateCheckout(req)
	if err != nil {
		return nil, err
	}

	productIDs := make([]uuid.UUID, len(lines))
	for i, line := range lines {
		productIDs[i] = line.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Int("product_count", len(productIDs)).Msg("failed to load products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := make(map[uuid.UUID]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	now := s.now().UTC()
	number, err := newOrderNumber(now)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:              uuid.New(),
		Number:          number,
		UserID:          userID,
		CustomerName:    req.Customer.Name,
		CustomerEmail:   strings.ToLower(strings.TrimSpace(req.Customer.Email)),
		CustomerCPF:     req.Customer.CPF,
		CustomerPhone:   req.Customer.Phone,
		ShippingAddress: req.Address,
		Status:          model.OrderStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	items := make([]model.OrderItem, 0, len(lines))
	var subtotal float64
	for _, line := range lines {
		p, ok := byID[line.ProductID]
		if !ok {
			s.logger.Warn().Str("product_id", line.ProductID.String()).Msg("checkout references unknown product")
			return nil, model.ErrProductNotFound
		}
		if !p.Active {
			return nil, model.ErrProductUnavailable
		}
		if p.Stock < line.Quantity {
			s.logger.Warn().
				Str("product_id", p.ID.String()).
				Int("requested", line.Quantity).
				Int("available", p.Stock).
				Msg("insufficient stock at checkout")
			return nil, model.ErrOutOfStock
		}

		lineTotal := roundMoney(p.Price * float64(line.Quantity))
		items = append(items, model.OrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			ProductID:   p.ID,
			ProductName: p.Name,
			UnitPrice:   p.Price,
			Quantity:    line.Quantity,
			LineTotal:   lineTotal,
		})
		subtotal += lineTotal
	}

	order.Subtotal = roundMoney(subtotal)
	order.ShippingFee = s.shipping.Fee(order.Subtotal)
	order.Total = roundMoney(order.Subtotal + order.ShippingFee)

	if err := s.place(ctx, order, items); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.Number).
		Int("item_count", len(items)).
		Float64("total", order.Total).
		Msg("order placed")

	detail := &model.OrderDetail{Order: *order, Items: items}
	resp := &model.CheckoutResponse{Order: detail}

	session, err := s.payments.CreateCheckout(ctx, detail)
	switch {
	case errors.Is(err, payment.ErrPaymentDisabled):
		s.logger.Debug().Str("order_number", order.Number).Msg("payment provider disabled, no redirect")
	case err != nil:
		s.logger.Error().Err(err).Str("order_number", order.Number).Msg("failed to create payment session")
	default:
		if err := s.orderRepo.SetPaymentReference(ctx, order.ID, session.ID); err != nil {
			s.logger.Error().Err(err).Str("order_number", order.Number).Msg("failed to store payment reference")
		} else {
			detail.PaymentReference = &session.ID
		}
		resp.RedirectURL = session.RedirectURL
	}

	if err := s.notifier.OrderConfirmation(ctx, detail); err != nil {
		s.logger.Warn().Err(err).Str("order_number", order.Number).Msg("failed to queue order confirmation")
	}

	return resp, nil
}

// place writes the order, its items and the stock decrements in one transaction.
func (s *orderService) place(ctx context.Context, order *model.Order, items []model.OrderItem) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	for _, item := range items {
		if err = s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, model.ErrOutOfStock) {
				return err
			}
			return fmt.Errorf("failed to reserve stock: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// validateCheckout checks the cart and merges repeated products into one line.
func (s *orderService) validateCheckout(req *model.CheckoutRequest) ([]model.CheckoutItem, error) {
	if req == nil || len(req.Items) == 0 {
		return nil, model.ErrEmptyCart
	}

	lines := make([]model.CheckoutItem, 0, len(req.Items))
	index := make(map[uuid.UUID]int, len(req.Items))
	for i, item := range req.Items {
		if item.ProductID == uuid.Nil {
			return nil, model.NewValidationError(fmt.Sprintf("items[%d].productId", i), "is required")
		}
		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID.String()).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return nil, model.ErrInvalidQuantity
		}
		if j, seen := index[item.ProductID]; seen {
			lines[j].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(lines)
		lines = append(lines, item)
	}

	return lines, nil
}

// Get retrieves an order with its items for its owner or an administrator.
func (s *orderService) Get(ctx context.Context, id uuid.UUID, viewer *auth.Claims) (*model.OrderDetail, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || !canView(order, viewer) {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return &model.OrderDetail{Order: *order, Items: items}, nil
}

// canView hides other customers' orders as not found.
func canView(order *model.Order, viewer *auth.Claims) bool {
	if viewer == nil {
		return false
	}
	if viewer.IsAdmin() {
		return true
	}
	return order.UserID != nil && *order.UserID == viewer.UserID
}

func (s *orderService) ListMine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.Order, error) {
	limit, offset = pageBounds(limit, offset)
	orders, err := s.orderRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list user orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *orderService) List(ctx context.Context, filter model.OrderFilter) (*model.OrderPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, model.NewValidationError("status", "is not a known order status")
	}
	filter.Limit, filter.Offset = pageBounds(filter.Limit, filter.Offset)

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &model.OrderPage{Items: orders, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// UpdateStatus applies an admin status change under a row lock.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, update *model.OrderStatusUpdate) (*model.Order, error) {
	if !update.Status.Valid() {
		return nil, model.ErrInvalidStatus
	}
	if update.TrackingCode != nil {
		code := strings.ToUpper(strings.TrimSpace(*update.TrackingCode))
		update.TrackingCode = &code
	}

	order, previous, err := s.applyStatus(ctx, id, update)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(previous)).
		Str("to", string(order.Status)).
		Msg("order status updated")

	if previous != order.Status {
		if err := s.notifier.OrderStatusChanged(ctx, order); err != nil {
			s.logger.Warn().Err(err).Str("order_number", order.Number).Msg("failed to queue status email")
		}
	}

	return order, nil
}

func (s *orderService) applyStatus(ctx context.Context, id uuid.UUID, update *model.OrderStatusUpdate) (order *model.Order, previous model.OrderStatus, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to update order: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, items, err := s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load order: %w", err)
	}
	if order == nil {
		err = model.ErrOrderNotFound
		return nil, "", err
	}

	previous = order.Status
	if !previous.CanTransitionTo(update.Status) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Str("from", string(previous)).
			Str("to", string(update.Status)).
			Msg("rejected order status transition")
		err = model.ErrInvalidStatus
		return nil, "", err
	}

	if update.Status == model.OrderStatusCancelled && previous != model.OrderStatusCancelled {
		for _, item := range items {
			if err = s.productRepo.IncrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return nil, "", fmt.Errorf("failed to restock order: %w", err)
			}
		}
	}

	if err = s.orderRepo.UpdateStatus(ctx, tx, id, update.Status, update.TrackingCode); err != nil {
		return nil, "", err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, "", fmt.Errorf("failed to update order: %w", err)
	}

	order.Status = update.Status
	if update.TrackingCode != nil {
		order.TrackingCode = update.TrackingCode
	}
	order.UpdatedAt = s.now().UTC()
	return order, previous, nil
}

// Lookup finds an order by number for the customer who placed it. A wrong
// email is indistinguishable from an unknown number.
func (s *orderService) Lookup(ctx context.Context, req *model.OrderLookupRequest) (*model.OrderLookupResponse, error) {
	order, _, err := s.orderRepo.GetByNumber(ctx, strings.TrimSpace(req.Number))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to look up order")
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if order == nil || !strings.EqualFold(order.CustomerEmail, strings.TrimSpace(req.Email)) {
		return nil, model.ErrOrderNotFound
	}

	resp := &model.OrderLookupResponse{
		Number:       order.Number,
		Status:       order.Status,
		Total:        order.Total,
		TrackingCode: order.TrackingCode,
		CreatedAt:    order.CreatedAt,
	}

	if order.TrackingCode != nil && *order.TrackingCode != "" {
		info, err := s.tracker.Track(ctx, *order.TrackingCode)
		if err != nil {
			s.logger.Warn().Err(err).Str("order_number", order.Number).Msg("tracking lookup failed")
		} else {
			resp.Tracking = info
		}
	}

	return resp, nil
}

func (s *orderService) Track(ctx context.Context, code string) (*model.TrackingInfo, error) {
	info, err := s.tracker.Track(ctx, code)
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("code", code).Msg("tracking lookup failed")
		return nil, fmt.Errorf("failed to track shipment: %w", err)
	}
	return info, nil
}

// newOrderNumber returns ORD-YYYYMMDD-XXXXXX with a random alphanumeric suffix.
func newOrderNumber(now time.Time) (string, error) {
	raw := make([]byte, 6)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	suffix := make([]byte, len(raw))
	for i, b := range raw {
		suffix[i] = orderNumberAlphabet[int(b)%len(orderNumberAlphabet)]
	}
	return "ORD-" + now.Format("20060102") + "-" + string(suffix), nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
