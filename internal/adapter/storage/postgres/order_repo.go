package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payment-reconciler/internal/core/domain"
	"payment-reconciler/pkg/apperror"

	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	pool Pool
}

// NewOrderRepo creates a new OrderRepo.
func NewOrderRepo(pool Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

const orderColumns = `id, customer_name, customer_email, amount_minor, status,
	payment_date, transaction_id, payment_reference, created_at, updated_at`

// Create inserts a new order and fills in the store-assigned id.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (customer_name, customer_email, amount_minor, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		o.CustomerName, o.CustomerEmail, o.AmountMinor, o.Status,
		o.CreatedAt, o.UpdatedAt,
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get fetches an order by id. A missing order is (nil, nil).
func (r *OrderRepo) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.pool.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// Merge applies a field-level patch to one order under a row lock, so
// concurrent callbacks for the same order serialize here. The conflict rules
// live in domain.Order.ApplyPatch; a rejected patch leaves the row untouched
// and surfaces as an ErrMergeConflict.
func (r *OrderRepo) Merge(ctx context.Context, orderID int64, patch domain.OrderPatch) (*domain.Order, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin merge: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	o, err := scanOrder(tx.QueryRow(ctx, query, orderID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.ErrOrderNotFound(orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("lock order for merge: %w", err)
	}

	if err := o.ApplyPatch(patch); err != nil {
		recorded := ""
		if o.TransactionID != nil {
			recorded = *o.TransactionID
		}
		incoming := ""
		if patch.TransactionID != nil {
			incoming = *patch.TransactionID
		}
		return nil, apperror.ErrMergeConflict(orderID, recorded, incoming, err)
	}
	o.UpdatedAt = time.Now().UTC()

	update := `UPDATE orders SET status = $1, payment_date = $2, transaction_id = $3,
		payment_reference = $4, updated_at = $5 WHERE id = $6`
	if _, err := tx.Exec(ctx, update,
		o.Status, o.PaymentDate, o.TransactionID, o.PaymentReference,
		o.UpdatedAt, o.ID,
	); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit merge: %w", err)
	}
	return o, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.CustomerEmail, &o.AmountMinor, &o.Status,
		&o.PaymentDate, &o.TransactionID, &o.PaymentReference,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}
