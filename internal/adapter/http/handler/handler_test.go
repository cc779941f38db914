package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"payment-reconciler/internal/adapter/http/dto"
	"payment-reconciler/internal/core/domain"
	"payment-reconciler/internal/core/ports"
	"payment-reconciler/internal/core/ports/mocks"
	"payment-reconciler/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Callback Handler Tests ---

func TestHandleReturn_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockReconcileService(ctrl)
	h := NewCallbackHandler(mockSvc)

	orderID := int64(42)
	mockSvc.EXPECT().
		Reconcile(gomock.Any(), domain.CallbackParams{
			ResponseCode:         "00",
			GatewayTransactionID: "G1",
			MerchantReference:    "42000123",
			AmountMinorUnits:     "4500000",
			BankCode:             "NCB",
			PayDateRaw:           "20250316143025",
		}).
		Return(&domain.ReconciliationResult{
			AttemptID:         uuid.New(),
			Outcome:           domain.OutcomeSuccess,
			OrderID:           &orderID,
			TransactionID:     "G1",
			MerchantReference: "42000123",
			Amount:            45000,
		}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/api/v1/payments/return?responseCode=00&transactionId=G1&reference=42000123&amount=4500000&bankCode=NCB&payDate=20250316143025", nil)

	h.HandleReturn(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "SUCCESS", data["outcome"])
	assert.Equal(t, float64(42), data["order_id"])
	assert.Equal(t, "G1", data["transaction_id"])
}

func TestHandleReturn_MissingResponseCode(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockReconcileService(ctrl)
	h := NewCallbackHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?transactionId=G1", nil)

	h.HandleReturn(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleReturn_FailureOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockReconcileService(ctrl)
	h := NewCallbackHandler(mockSvc)

	mockSvc.EXPECT().
		Reconcile(gomock.Any(), gomock.Any()).
		Return(&domain.ReconciliationResult{
			AttemptID:     uuid.New(),
			Outcome:       domain.OutcomeFailure,
			ErrorCategory: domain.CategoryUserCancelled,
			ErrorMessage:  "Payer cancelled the transaction",
		}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?responseCode=24", nil)

	h.HandleReturn(c)

	// A gateway-reported failure is still a processed callback.
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "FAILURE", data["outcome"])
	assert.Equal(t, "USER_CANCELLED", data["error_category"])
}

func TestHandleReturn_ServiceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockReconcileService(ctrl)
	h := NewCallbackHandler(mockSvc)

	mockSvc.EXPECT().
		Reconcile(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrDatabaseError(errors.New("pg: connection closed")))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/payments/return?responseCode=00", nil)

	h.HandleReturn(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// --- Order Handler Tests ---

func TestPlaceOrder_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockSvc)

	ref := "42000123"
	mockSvc.EXPECT().
		PlaceOrder(gomock.Any(), ports.PlaceOrderRequest{
			CustomerName:  "Nguyen Van A",
			CustomerEmail: "a@example.com",
			AmountMinor:   4500000,
		}).
		Return(&domain.Order{
			ID:               42,
			CustomerName:     "Nguyen Van A",
			CustomerEmail:    "a@example.com",
			AmountMinor:      4500000,
			Status:           domain.OrderStatusCreated,
			PaymentReference: &ref,
			CreatedAt:        time.Now().UTC(),
		}, nil)

	body, _ := json.Marshal(dto.PlaceOrderRequest{
		CustomerName:  "Nguyen Van A",
		CustomerEmail: "a@example.com",
		AmountMinor:   4500000,
	})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.PlaceOrder(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["id"])
	assert.Equal(t, "42000123", data["payment_reference"])
}

func TestPlaceOrder_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewReader([]byte("{}")))
	c.Request.Header.Set("Content-Type", "application/json")

	h.PlaceOrder(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrder_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockSvc)

	mockSvc.EXPECT().
		GetOrder(gomock.Any(), int64(42)).
		Return(&domain.Order{
			ID:          42,
			Status:      domain.OrderStatusCreated,
			AmountMinor: 4500000,
			CreatedAt:   time.Now().UTC(),
		}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil)
	c.Params = gin.Params{{Key: "id", Value: "42"}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetOrder_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetOrder_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockOrderService(ctrl)
	h := NewOrderHandler(mockSvc)

	mockSvc.EXPECT().
		GetOrder(gomock.Any(), int64(99)).
		Return(nil, apperror.ErrOrderNotFound(99))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/orders/99", nil)
	c.Params = gin.Params{{Key: "id", Value: "99"}}

	h.GetOrder(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Health Handler Tests ---

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Ping(_ context.Context) error { return s.err }
func (s stubChecker) Name() string                 { return s.name }

func TestHealthCheck_AllHealthy(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(stubChecker{name: "postgresql"}, stubChecker{name: "redis"})(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestHealthCheck_Degraded(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	HealthCheck(
		stubChecker{name: "postgresql"},
		stubChecker{name: "redis", err: errors.New("connection refused")},
	)(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp["status"])
}
