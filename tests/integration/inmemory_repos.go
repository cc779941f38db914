package integration

import (
	"context"
	"sync"
	"time"

	"payment-reconciler/internal/core/domain"
	"payment-reconciler/internal/core/ports"
	"payment-reconciler/pkg/apperror"
)

// inMemoryOrderRepo is a mutex-guarded OrderRepository. Merge holds the lock
// for the whole read-patch-write cycle, mirroring the row lock the postgres
// adapter takes.
type inMemoryOrderRepo struct {
	mu     sync.Mutex
	nextID int64
	orders map[int64]*domain.Order
}

func newInMemoryOrderRepo() *inMemoryOrderRepo {
	return &inMemoryOrderRepo{orders: make(map[int64]*domain.Order)}
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	if o.PaymentDate != nil {
		d := *o.PaymentDate
		c.PaymentDate = &d
	}
	if o.TransactionID != nil {
		id := *o.TransactionID
		c.TransactionID = &id
	}
	if o.PaymentReference != nil {
		ref := *o.PaymentReference
		c.PaymentReference = &ref
	}
	return &c
}

func (r *inMemoryOrderRepo) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	o.ID = r.nextID
	r.orders[o.ID] = cloneOrder(o)
	return nil
}

func (r *inMemoryOrderRepo) Get(_ context.Context, orderID int64) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, nil
	}
	return cloneOrder(o), nil
}

func (r *inMemoryOrderRepo) Merge(_ context.Context, orderID int64, patch domain.OrderPatch) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[orderID]
	if !ok {
		return nil, apperror.ErrOrderNotFound(orderID)
	}

	merged := cloneOrder(stored)
	if err := merged.ApplyPatch(patch); err != nil {
		recorded := ""
		if stored.TransactionID != nil {
			recorded = *stored.TransactionID
		}
		incoming := ""
		if patch.TransactionID != nil {
			incoming = *patch.TransactionID
		}
		return nil, apperror.ErrMergeConflict(orderID, recorded, incoming, err)
	}
	merged.UpdatedAt = time.Now().UTC()
	r.orders[orderID] = merged
	return cloneOrder(merged), nil
}

// stubVerifier is a programmable VerificationClient. Unregistered candidates
// answer NOT_FOUND.
type stubVerifier struct {
	mu       sync.Mutex
	outcomes map[string]ports.VerificationOutcome
	queries  int
}

func newStubVerifier() *stubVerifier {
	return &stubVerifier{outcomes: make(map[string]ports.VerificationOutcome)}
}

func (v *stubVerifier) register(candidateID string, outcome ports.VerificationOutcome) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.outcomes[candidateID] = outcome
}

func (v *stubVerifier) forget(candidateID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.outcomes, candidateID)
}

func (v *stubVerifier) Query(_ context.Context, candidateID string) ports.VerificationOutcome {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.queries++
	if outcome, ok := v.outcomes[candidateID]; ok {
		return outcome
	}
	return ports.VerificationOutcome{Kind: ports.VerificationNotFound}
}

func verifiedPaid(txnID string) ports.VerificationOutcome {
	return ports.VerificationOutcome{
		Kind:          ports.VerificationVerified,
		TransactionID: txnID,
		Status:        domain.OrderStatusPaid,
	}
}
