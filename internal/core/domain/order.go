package domain

import (
	"errors"
	"time"
)

// OrderStatus represents the payment lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "CREATED"
	OrderStatusPaid    OrderStatus = "PAID"
	OrderStatusFailed  OrderStatus = "FAILED"
)

// ErrTransactionConflict is returned by ApplyPatch when an order already paid
// under one gateway transaction id receives a patch carrying a different one.
// The record is left untouched; the conflict is reported, never auto-resolved.
var ErrTransactionConflict = errors.New("order already paid with a different transaction id")

// Order is the persisted order record, keyed by ID.
// Customer and amount fields are owned by order placement; the reconciliation
// merge only ever writes Status, PaymentDate, TransactionID and PaymentReference.
type Order struct {
	ID               int64       `json:"id"`
	CustomerName     string      `json:"customer_name"`
	CustomerEmail    string      `json:"customer_email"`
	AmountMinor      int64       `json:"amount_minor"` // In smallest currency unit
	Status           OrderStatus `json:"status"`
	PaymentDate      *time.Time  `json:"payment_date,omitempty"`
	TransactionID    *string     `json:"transaction_id,omitempty"`    // Authoritative gateway id
	PaymentReference *string     `json:"payment_reference,omitempty"` // Merchant reference sent to the gateway
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// IsPaid returns true if the order has reached its terminal paid state.
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// OrderPatch is a field-level partial update. Nil fields are left untouched.
type OrderPatch struct {
	Status           *OrderStatus
	PaymentDate      *time.Time
	TransactionID    *string
	PaymentReference *string
}

// IsZero returns true if the patch carries no fields.
func (p OrderPatch) IsZero() bool {
	return p.Status == nil && p.PaymentDate == nil && p.TransactionID == nil && p.PaymentReference == nil
}

// ApplyPatch merges the patch into the order, field by field. Applying the
// same patch twice yields the same record as applying it once.
//
// Invariant: once Status is PAID with a non-nil TransactionID, that pair is
// immutable. A patch carrying a different transaction id returns
// ErrTransactionConflict and leaves every field unchanged.
func (o *Order) ApplyPatch(p OrderPatch) error {
	if o.Status == OrderStatusPaid && o.TransactionID != nil &&
		p.TransactionID != nil && *p.TransactionID != *o.TransactionID {
		return ErrTransactionConflict
	}
	if o.Status == OrderStatusPaid && p.Status != nil && *p.Status != OrderStatusPaid {
		// A later callback must not regress a paid order.
		return ErrTransactionConflict
	}

	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.PaymentDate != nil {
		d := *p.PaymentDate
		o.PaymentDate = &d
	}
	if p.TransactionID != nil {
		id := *p.TransactionID
		o.TransactionID = &id
	}
	if p.PaymentReference != nil {
		ref := *p.PaymentReference
		o.PaymentReference = &ref
	}
	return nil
}
