package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"payment-reconciler/config"
	"payment-reconciler/internal/core/domain"
	"payment-reconciler/internal/core/ports"
	"payment-reconciler/pkg/apperror"

	"github.com/rs/zerolog"
)

// HTTPClient interface for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// queryRequest is the JSON body sent to the gateway's status query endpoint.
type queryRequest struct {
	MerchantCode  string `json:"merchant_code"`
	TransactionID string `json:"transaction_id"`
}

// queryResponse is the gateway's answer. The gateway reuses its callback
// response codes here: "00" means the transaction exists and Status is
// authoritative, "01" means it is unknown.
type queryResponse struct {
	ResponseCode  string `json:"response_code"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
}

// VerificationClientImpl implements ports.VerificationClient against the
// gateway's backend of record.
type VerificationClientImpl struct {
	baseURL      string
	merchantCode string
	timeout      time.Duration
	httpClient   HTTPClient
	log          zerolog.Logger
}

// NewVerificationClient creates a new VerificationClientImpl.
func NewVerificationClient(cfg config.GatewayConfig, httpClient HTTPClient, log zerolog.Logger) *VerificationClientImpl {
	return &VerificationClientImpl{
		baseURL:      cfg.BaseURL,
		merchantCode: cfg.MerchantCode,
		timeout:      cfg.Timeout,
		httpClient:   httpClient,
		log:          log,
	}
}

// Query asks the gateway whether it knows candidateID. Transport and protocol
// problems are reported as TRANSPORT_ERROR so the caller can try its next
// candidate; only an explicit "unknown transaction" answer is NOT_FOUND.
func (c *VerificationClientImpl) Query(ctx context.Context, candidateID string) ports.VerificationOutcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(queryRequest{
		MerchantCode:  c.merchantCode,
		TransactionID: candidateID,
	})
	if err != nil {
		return transportError(fmt.Errorf("marshal query request: %w", err))
	}

	url := c.baseURL + "/api/v1/transactions/query"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return transportError(fmt.Errorf("build query request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(fmt.Errorf("query gateway: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ports.VerificationOutcome{Kind: ports.VerificationNotFound}
	case resp.StatusCode != http.StatusOK:
		return transportError(fmt.Errorf("gateway returned status %d", resp.StatusCode))
	}

	var qr queryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&qr); err != nil {
		return transportError(fmt.Errorf("decode query response: %w", err))
	}

	switch qr.ResponseCode {
	case domain.ResponseCodeSuccess:
		return ports.VerificationOutcome{
			Kind:          ports.VerificationVerified,
			TransactionID: qr.TransactionID,
			Status:        mapGatewayStatus(qr.Status),
		}
	case "01":
		return ports.VerificationOutcome{Kind: ports.VerificationNotFound}
	default:
		return transportError(fmt.Errorf("gateway query failed with code %q", qr.ResponseCode))
	}
}

func transportError(err error) ports.VerificationOutcome {
	return ports.VerificationOutcome{
		Kind: ports.VerificationTransportError,
		Err:  apperror.ErrVerificationUnavailable(err),
	}
}

// mapGatewayStatus translates the gateway's status vocabulary into the order
// lifecycle. Anything unrecognized is treated as failed rather than paid.
func mapGatewayStatus(status string) domain.OrderStatus {
	switch status {
	case "SUCCESS", "PAID":
		return domain.OrderStatusPaid
	case "PENDING", "CREATED":
		return domain.OrderStatusCreated
	default:
		return domain.OrderStatusFailed
	}
}
