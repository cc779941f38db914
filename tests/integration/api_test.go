package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	httpHandler "payment-reconciler/internal/adapter/http/handler"
	redisStorage "payment-reconciler/internal/adapter/storage/redis"
	"payment-reconciler/internal/core/ports"
	"payment-reconciler/internal/service"
	"payment-reconciler/internal/telemetry"
	"payment-reconciler/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp builds the full application stack with an in-memory order store,
// miniredis-backed snapshot cache and a programmable verifier. It exercises
// the real HTTP layer, middleware, handlers, services and Redis stores
// end-to-end.
type testApp struct {
	server   *httptest.Server
	redis    *miniredis.Miniredis
	repo     *inMemoryOrderRepo
	verifier *stubVerifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})

	orderCache := redisStorage.NewOrderCache(rdb)
	rateLimitStore := redisStorage.NewRateLimitStore(rdb)

	repo := newInMemoryOrderRepo()
	verifier := newStubVerifier()

	log := logger.New("debug", false)
	metricsReg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(metricsReg)

	reconcileSvc := service.NewReconcileService(repo, orderCache, verifier, metrics, log)
	orderSvc := service.NewOrderService(repo, orderCache, log)

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		ReconcileSvc:   reconcileSvc,
		OrderSvc:       orderSvc,
		RateLimitStore: rateLimitStore,
		MetricsReg:     metricsReg,
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &testApp{
		server:   server,
		redis:    mr,
		repo:     repo,
		verifier: verifier,
	}
}

func (a *testApp) close() {
	a.server.Close()
	a.redis.Close()
}

// placeOrder creates an order via the API and returns its id and payment
// reference.
func (a *testApp) placeOrder(t *testing.T, amountMinor int64) (int64, string) {
	t.Helper()
	body := fmt.Sprintf(`{"customer_name":"Nguyen Van A","customer_email":"a@example.com","amount_minor":%d}`, amountMinor)
	resp, err := http.Post(a.server.URL+"/api/v1/orders", "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Data struct {
			ID               int64  `json:"id"`
			PaymentReference string `json:"payment_reference"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotZero(t, result.Data.ID)
	require.NotEmpty(t, result.Data.PaymentReference)
	return result.Data.ID, result.Data.PaymentReference
}

// callback hits the return endpoint with the given query parameters and
// decodes the reconciliation payload.
func (a *testApp) callback(t *testing.T, params url.Values) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(a.server.URL + "/api/v1/payments/return?" + params.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.Data
}

func (a *testApp) getOrder(t *testing.T, orderID int64) map[string]interface{} {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/api/v1/orders/%d", a.server.URL, orderID))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.Data
}

func successParams(reference, txnID string) url.Values {
	return url.Values{
		"responseCode":  {"00"},
		"transactionId": {txnID},
		"reference":     {reference},
		"amount":        {"450000000"},
		"orderInfo":     {"Thanh toan don hang"},
		"bankCode":      {"NCB"},
		"cardType":      {"ATM"},
		"payDate":       {"20250316143025"},
	}
}

// --- Integration Tests ---

func TestIntegration_HealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	// No health checkers wired in the test app, so the check is trivially healthy.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIntegration_SuccessfulPaymentFlow(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderID, ref := app.placeOrder(t, 4500000)
	app.verifier.register("GTXN1", verifiedPaid("GTXN1"))

	data := app.callback(t, successParams(ref, "GTXN1"))

	assert.Equal(t, "SUCCESS", data["outcome"])
	assert.Equal(t, float64(orderID), data["order_id"])
	assert.Equal(t, "GTXN1", data["transaction_id"])
	assert.Nil(t, data["anomaly"])

	order := app.getOrder(t, orderID)
	assert.Equal(t, "PAID", order["status"])
	assert.Equal(t, "GTXN1", order["transaction_id"])
	assert.NotNil(t, order["payment_date"])
}

func TestIntegration_RepeatDeliveryIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderID, ref := app.placeOrder(t, 4500000)
	app.verifier.register("GTXN1", verifiedPaid("GTXN1"))

	first := app.callback(t, successParams(ref, "GTXN1"))
	second := app.callback(t, successParams(ref, "GTXN1"))

	assert.Equal(t, "SUCCESS", first["outcome"])
	assert.Equal(t, "SUCCESS", second["outcome"])
	assert.Nil(t, second["anomaly"])

	order := app.getOrder(t, orderID)
	assert.Equal(t, "PAID", order["status"])
	assert.Equal(t, "GTXN1", order["transaction_id"])
}

func TestIntegration_GatewayFailureLeavesOrderUntouched(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderID, ref := app.placeOrder(t, 4500000)

	params := successParams(ref, "GTXN1")
	params.Set("responseCode", "24")
	data := app.callback(t, params)

	assert.Equal(t, "FAILURE", data["outcome"])
	assert.Equal(t, "USER_CANCELLED", data["error_category"])

	order := app.getOrder(t, orderID)
	assert.Equal(t, "CREATED", order["status"])
}

func TestIntegration_VerificationMissDegradesResult(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderID, ref := app.placeOrder(t, 4500000)

	data := app.callback(t, successParams(ref, "GTXN1"))

	assert.Equal(t, "SUCCESS", data["outcome"])
	assert.Equal(t, "VERIFICATION_MISS", data["anomaly"])

	order := app.getOrder(t, orderID)
	assert.Equal(t, "CREATED", order["status"])
}

func TestIntegration_ConflictingTransactionIsFlagged(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderID, ref := app.placeOrder(t, 4500000)
	app.verifier.register("T1", verifiedPaid("T1"))
	app.callback(t, successParams(ref, "T1"))

	// A later callback carries a different, also-verified transaction id.
	app.verifier.forget("T1")
	app.verifier.register("T2", verifiedPaid("T2"))
	data := app.callback(t, successParams(ref, "T2"))

	assert.Equal(t, "SUCCESS", data["outcome"])
	assert.Equal(t, "MERGE_CONFLICT", data["anomaly"])

	order := app.getOrder(t, orderID)
	assert.Equal(t, "T1", order["transaction_id"])
}

func TestIntegration_UndecodableReference(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	app.verifier.register("GTXN1", verifiedPaid("GTXN1"))
	data := app.callback(t, successParams("not-a-reference", "GTXN1"))

	assert.Equal(t, "SUCCESS", data["outcome"])
	assert.Nil(t, data["order_id"])
	assert.Equal(t, "GTXN1", data["transaction_id"])
}

func TestIntegration_ReferenceFallbackCandidate(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderID, ref := app.placeOrder(t, 4500000)
	// The gateway transaction id is unknown, but the merchant reference is.
	app.verifier.register(ref, verifiedPaid("GTXN9"))

	data := app.callback(t, successParams(ref, "bogus"))

	assert.Equal(t, "SUCCESS", data["outcome"])
	assert.Equal(t, "GTXN9", data["transaction_id"])

	order := app.getOrder(t, orderID)
	assert.Equal(t, "PAID", order["status"])
	assert.Equal(t, "GTXN9", order["transaction_id"])
}

func TestIntegration_TransportErrorFallsBack(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	orderID, ref := app.placeOrder(t, 4500000)
	app.verifier.register("GTXN1", ports.VerificationOutcome{
		Kind: ports.VerificationTransportError,
		Err:  fmt.Errorf("dial tcp: i/o timeout"),
	})
	app.verifier.register(ref, verifiedPaid("GTXN1"))

	data := app.callback(t, successParams(ref, "GTXN1"))

	assert.Equal(t, "SUCCESS", data["outcome"])
	assert.Nil(t, data["anomaly"])

	order := app.getOrder(t, orderID)
	assert.Equal(t, "PAID", order["status"])
}

func TestIntegration_GetOrderNotFound(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	resp, err := http.Get(app.server.URL + "/api/v1/orders/999")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_MetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	defer app.close()

	_, ref := app.placeOrder(t, 4500000)
	app.verifier.register("GTXN1", verifiedPaid("GTXN1"))
	app.callback(t, successParams(ref, "GTXN1"))

	resp, err := http.Get(app.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "reconciler_callbacks_total")
}
