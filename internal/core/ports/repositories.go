package ports

import (
	"context"
	"time"

	"payment-reconciler/internal/core/domain"
)

//go:generate mockgen -source=repositories.go -destination=mocks/mock_repositories.go -package=mocks

// OrderRepository is the durable keyed order store the reconciliation engine
// reads from and merges into. It never deletes orders.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	// Get returns nil, nil when the order does not exist.
	Get(ctx context.Context, orderID int64) (*domain.Order, error)
	// Merge applies a field-level patch under a per-order write lock and
	// returns the resulting record. A patch that would replace the
	// transaction id of a PAID order fails with apperror REC_002 and leaves
	// the record untouched.
	Merge(ctx context.Context, orderID int64, patch domain.OrderPatch) (*domain.Order, error)
}

// OrderSnapshotCache is a fast-path read cache of order records. A cache
// error or miss always degrades to the durable store.
type OrderSnapshotCache interface {
	// Get returns nil, nil on a cache miss.
	Get(ctx context.Context, orderID int64) (*domain.Order, error)
	Set(ctx context.Context, order *domain.Order, ttl time.Duration) error
}
