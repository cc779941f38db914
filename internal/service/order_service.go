package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"payment-reconciler/internal/core/domain"
	"payment-reconciler/internal/core/ports"
	"payment-reconciler/pkg/apperror"

	"github.com/rs/zerolog"
)

// OrderServiceImpl implements ports.OrderService.
type OrderServiceImpl struct {
	orderRepo ports.OrderRepository
	snapshot  ports.OrderSnapshotCache
	log       zerolog.Logger
}

// NewOrderService creates a new OrderServiceImpl.
func NewOrderService(orderRepo ports.OrderRepository, snapshot ports.OrderSnapshotCache, log zerolog.Logger) *OrderServiceImpl {
	return &OrderServiceImpl{
		orderRepo: orderRepo,
		snapshot:  snapshot,
		log:       log,
	}
}

// PlaceOrder persists a new CREATED order and stamps it with the payment
// reference handed to the gateway. The reference embeds the store-assigned
// order id, so it is attached in a second step after the insert.
func (s *OrderServiceImpl) PlaceOrder(ctx context.Context, req ports.PlaceOrderRequest) (*domain.Order, error) {
	if req.AmountMinor <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, apperror.Validation("customer name is required")
	}

	now := time.Now().UTC()
	order := &domain.Order{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		AmountMinor:   req.AmountMinor,
		Status:        domain.OrderStatusCreated,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create order: %w", err))
	}

	ref := domain.NewReference(order.ID)
	order, err := s.orderRepo.Merge(ctx, order.ID, domain.OrderPatch{PaymentReference: &ref})
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("attach payment reference: %w", err))
	}

	if err := s.snapshot.Set(ctx, order, snapshotTTL); err != nil {
		s.log.Warn().Err(err).Int64("order_id", order.ID).Msg("snapshot write failed")
	}
	s.log.Info().
		Int64("order_id", order.ID).
		Str("payment_reference", ref).
		Int64("amount_minor", order.AmountMinor).
		Msg("order placed")
	return order, nil
}

// GetOrder fetches an order, snapshot cache first.
func (s *OrderServiceImpl) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := s.snapshot.Get(ctx, orderID)
	if err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("snapshot read failed, falling through to store")
	}
	if order != nil {
		return order, nil
	}

	order, err = s.orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get order: %w", err))
	}
	if order == nil {
		return nil, apperror.ErrOrderNotFound(orderID)
	}

	if err := s.snapshot.Set(ctx, order, snapshotTTL); err != nil {
		s.log.Warn().Err(err).Int64("order_id", orderID).Msg("snapshot write failed")
	}
	return order, nil
}
