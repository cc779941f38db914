package handler

import (
	"time"

	"payment-reconciler/internal/adapter/http/dto"
	"payment-reconciler/internal/core/domain"
	"payment-reconciler/internal/core/ports"
	"payment-reconciler/pkg/apperror"
	"payment-reconciler/pkg/response"

	"github.com/gin-gonic/gin"
)

// CallbackHandler handles the gateway's payment return redirect.
type CallbackHandler struct {
	reconcileSvc ports.ReconcileService
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(reconcileSvc ports.ReconcileService) *CallbackHandler {
	return &CallbackHandler{reconcileSvc: reconcileSvc}
}

// HandleReturn handles GET /api/v1/payments/return. The gateway appends its
// result as query parameters when redirecting the payer back. The redirect
// carries no signature; authenticity must be established upstream before
// these parameters are trusted.
func (h *CallbackHandler) HandleReturn(c *gin.Context) {
	var req dto.CallbackRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.reconcileSvc.Reconcile(c.Request.Context(), domain.CallbackParams{
		ResponseCode:         req.ResponseCode,
		GatewayTransactionID: req.TransactionID,
		MerchantReference:    req.Reference,
		AmountMinorUnits:     req.Amount,
		OrderInfo:            req.OrderInfo,
		BankCode:             req.BankCode,
		CardType:             req.CardType,
		PayDateRaw:           req.PayDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, toReconciliationResponse(result))
}

func toReconciliationResponse(r *domain.ReconciliationResult) dto.ReconciliationResponse {
	resp := dto.ReconciliationResponse{
		AttemptID:         r.AttemptID.String(),
		Outcome:           string(r.Outcome),
		OrderID:           r.OrderID,
		TransactionID:     r.TransactionID,
		MerchantReference: r.MerchantReference,
		Amount:            r.Amount,
		BankCode:          r.BankCode,
		CardType:          r.CardType,
		OrderInfo:         r.OrderInfo,
		ErrorCategory:     string(r.ErrorCategory),
		ErrorMessage:      r.ErrorMessage,
		Anomaly:           string(r.Anomaly),
	}
	if r.PaymentDate != nil {
		d := r.PaymentDate.Format(time.RFC3339)
		resp.PaymentDate = &d
	}
	return resp
}
