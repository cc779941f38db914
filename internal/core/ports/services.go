package ports

import (
	"context"

	"payment-reconciler/internal/core/domain"
)

//go:generate mockgen -source=services.go -destination=mocks/mock_services.go -package=mocks

// VerificationKind discriminates the possible answers of a status query.
type VerificationKind string

const (
	VerificationVerified       VerificationKind = "VERIFIED"
	VerificationNotFound       VerificationKind = "NOT_FOUND"
	VerificationTransportError VerificationKind = "TRANSPORT_ERROR"
)

// VerificationOutcome is the result of asking the gateway's backend of record
// for the authoritative status of one transaction.
type VerificationOutcome struct {
	Kind          VerificationKind
	TransactionID string             // Canonical gateway id, set when Kind is VERIFIED
	Status        domain.OrderStatus // Authoritative status, set when Kind is VERIFIED
	Err           error              // Transport detail, set when Kind is TRANSPORT_ERROR
}

// VerificationClient queries the authoritative status of a transaction by a
// candidate identifier. The remote query is idempotent: the engine may issue
// it several times with different candidates for the same callback.
type VerificationClient interface {
	Query(ctx context.Context, candidateID string) VerificationOutcome
}

// ReconcileService merges one gateway callback into local order state.
type ReconcileService interface {
	// Reconcile performs a single bounded pass over the callback. It is safe
	// to invoke repeatedly and concurrently for the same order.
	Reconcile(ctx context.Context, params domain.CallbackParams) (*domain.ReconciliationResult, error)
}

// OrderService owns order placement and reads.
type OrderService interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
}

// PlaceOrderRequest holds validated input for order placement.
type PlaceOrderRequest struct {
	CustomerName  string
	CustomerEmail string
	AmountMinor   int64
}
