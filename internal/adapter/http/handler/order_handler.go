package handler

import (
	"strconv"
	"time"

	"payment-reconciler/internal/adapter/http/dto"
	"payment-reconciler/internal/core/domain"
	"payment-reconciler/internal/core/ports"
	"payment-reconciler/pkg/apperror"
	"payment-reconciler/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrderHandler handles order placement and reads.
type OrderHandler struct {
	orderSvc ports.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(orderSvc ports.OrderService) *OrderHandler {
	return &OrderHandler{orderSvc: orderSvc}
}

// PlaceOrder handles POST /api/v1/orders.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var req dto.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	order, err := h.orderSvc.PlaceOrder(c.Request.Context(), ports.PlaceOrderRequest{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		AmountMinor:   req.AmountMinor,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, toOrderResponse(order))
}

// GetOrder handles GET /api/v1/orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, apperror.Validation("order id must be an integer"))
		return
	}

	order, err := h.orderSvc.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toOrderResponse(order))
}

func toOrderResponse(o *domain.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:               o.ID,
		CustomerName:     o.CustomerName,
		CustomerEmail:    o.CustomerEmail,
		AmountMinor:      o.AmountMinor,
		Status:           string(o.Status),
		TransactionID:    o.TransactionID,
		PaymentReference: o.PaymentReference,
		CreatedAt:        o.CreatedAt.Format(time.RFC3339),
	}
	if o.PaymentDate != nil {
		d := o.PaymentDate.Format(time.RFC3339)
		resp.PaymentDate = &d
	}
	return resp
}
