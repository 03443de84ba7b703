package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Itskartike/globaleats/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

var ErrOrderNotFound = errors.New("order not found")

// StatusConflictError is returned when the optimistic status check misses:
// another writer changed the row between read and update. Current carries
// the status actually in the database so the caller can resynchronize.
type StatusConflictError struct {
	Current domain.OrderStatus
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("order status changed concurrently, current status is %s", e.Current)
}

// OrderRepository is the persistence port consumed by the checkout service.
type OrderRepository interface {
	CreateOrderBatch(ctx context.Context, orders []*domain.Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	GetBatch(ctx context.Context, batchID uuid.UUID) ([]*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, expected, target domain.OrderStatus, changedBy string) error
}

// OutboxEvent is one unpublished row of the transactional outbox.
type OutboxEvent struct {
	ID          int64
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
}

// OutboxRepository is the port consumed by the Kafka outbox poller.
type OutboxRepository interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int64) error
}

// maxNumberAttempts bounds retries of the batch transaction on an
// order_number uniqueness collision.
const maxNumberAttempts = 3

// newOrderNumber builds a human-readable order number: date prefix plus a
// random six-digit suffix. Collisions are possible and handled by retrying
// the whole batch with fresh numbers.
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%06d", now.UTC().Format("20060102"), rand.Intn(1_000_000))
}

// CreateOrderBatch persists every order of a checkout batch, with its lines
// and an order_created outbox event each, in a single transaction. Either
// the whole batch commits or nothing does. Orders keep their input sequence
// (the cart's brand ordering) via batch_seq.
func (r *Repository) CreateOrderBatch(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return errors.New("empty order batch")
	}

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		now := time.Now().UTC()
		for _, o := range orders {
			o.OrderNumber = newOrderNumber(now)
			o.CreatedAt = now
			o.UpdatedAt = now
		}

		err := r.insertBatch(ctx, orders)
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err, "orders_order_number_key") {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("order number generation exhausted after %d attempts: %w", maxNumberAttempts, lastErr)
}

func (r *Repository) insertBatch(ctx context.Context, orders []*domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op once committed

	for seq, o := range orders {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO orders (
				id, order_number, checkout_batch_id, batch_seq, user_id,
				outlet_id, brand_id, address_id, status, payment_method,
				subtotal, delivery_fee, tax_amount, total_amount,
				special_instructions, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)`,
			o.ID,
			o.OrderNumber,
			o.CheckoutBatchID,
			seq,
			o.UserID,
			o.OutletID,
			o.BrandID,
			o.AddressID,
			o.Status,
			o.PaymentMethod,
			o.Subtotal,
			o.DeliveryFee,
			o.TaxAmount,
			o.TotalAmount,
			o.SpecialInstructions,
			o.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order %s: %w", o.ID, err)
		}

		for i := range o.Lines {
			l := &o.Lines[i]
			err := tx.QueryRowContext(ctx, `
				INSERT INTO order_lines (order_id, menu_item_id, quantity, unit_price, line_total, special_instructions)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id`,
				o.ID, l.MenuItemID, l.Quantity, l.UnitPrice, l.LineTotal, l.SpecialInstructions,
			).Scan(&l.ID)
			if err != nil {
				return fmt.Errorf("insert order line for %s: %w", o.ID, err)
			}
		}

		if err := insertOutboxEvent(ctx, tx, "order_created", o); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit order batch: %w", err)
	}
	return nil
}

// orderEventPayload is the outbox JSON shape consumed by downstream
// billing/notification services.
type orderEventPayload struct {
	OrderID         string `json:"order_id"`
	OrderNumber     string `json:"order_number"`
	CheckoutBatchID string `json:"checkout_batch_id"`
	UserID          string `json:"user_id"`
	OutletID        string `json:"outlet_id"`
	BrandID         string `json:"brand_id"`
	Status          string `json:"status"`
	TotalAmount     string `json:"total_amount"`
	OccurredAt      string `json:"occurred_at"`
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, eventType string, o *domain.Order) error {
	payload, err := json.Marshal(orderEventPayload{
		OrderID:         o.ID.String(),
		OrderNumber:     o.OrderNumber,
		CheckoutBatchID: o.CheckoutBatchID.String(),
		UserID:          o.UserID,
		OutletID:        o.OutletID,
		BrandID:         o.BrandID,
		Status:          o.Status.String(),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		OccurredAt:      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_events (aggregate_id, event_type, payload)
		VALUES ($1, $2, $3)`,
		o.CheckoutBatchID.String(), eventType, payload)
	if err != nil {
		return fmt.Errorf("insert %s outbox event: %w", eventType, err)
	}
	return nil
}

// UpdateOrderStatus applies one status transition under an optimistic
// WHERE status = expected check, writing the matching outbox event in the
// same transaction. A missed check returns StatusConflictError with the
// row's actual status; the row itself is left untouched either way.
func (r *Repository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, expected, target domain.OrderStatus, changedBy string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3`,
		target, id, expected)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		var current domain.OrderStatus
		err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrOrderNotFound
		}
		if err != nil {
			return fmt.Errorf("read current status: %w", err)
		}
		return &StatusConflictError{Current: current}
	}

	o, err := getOrderTx(ctx, tx, id)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]string{
		"order_id":    id.String(),
		"from_status": expected.String(),
		"to_status":   target.String(),
		"changed_by":  changedBy,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal status event payload: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_events (aggregate_id, event_type, payload)
		VALUES ($1, $2, $3)`,
		o.CheckoutBatchID.String(), "order_status_changed", payload)
	if err != nil {
		return fmt.Errorf("insert status outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit status update: %w", err)
	}
	return nil
}

const orderColumns = `id, order_number, checkout_batch_id, user_id, outlet_id, brand_id,
	       address_id, status, payment_method, subtotal, delivery_fee,
	       tax_amount, total_amount, special_instructions, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CheckoutBatchID,
		&o.UserID,
		&o.OutletID,
		&o.BrandID,
		&o.AddressID,
		&o.Status,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.DeliveryFee,
		&o.TaxAmount,
		&o.TotalAmount,
		&o.SpecialInstructions,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := r.loadLines(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func getOrderTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.Order, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order in tx: %w", err)
	}
	return o, nil
}

// GetBatch returns the sibling orders of one checkout, in the cart's brand
// ordering.
func (r *Repository) GetBatch(ctx context.Context, batchID uuid.UUID) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE checkout_batch_id = $1 ORDER BY batch_seq`, batchID)
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE user_id = $1 ORDER BY created_at DESC, batch_seq`, userID)
}

func (r *Repository) queryOrders(ctx context.Context, query string, arg any) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	if err := r.loadLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) loadLines(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, len(orders))
	for i, o := range orders {
		byID[o.ID] = o
		ids[i] = o.ID.String()
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT order_id, id, menu_item_id, quantity, unit_price, line_total, special_instructions
		FROM order_lines WHERE order_id = ANY($1::uuid[]) ORDER BY id`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID uuid.UUID
			l       domain.OrderLine
		)
		if err := rows.Scan(&orderID, &l.ID, &l.MenuItemID, &l.Quantity, &l.UnitPrice, &l.LineTotal, &l.SpecialInstructions); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		if o := byID[orderID]; o != nil {
			o.Lines = append(o.Lines, l)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM order_events WHERE processed_at IS NULL
		ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var ev OutboxEvent
		if err := rows.Scan(&ev.ID, &ev.AggregateID, &ev.EventType, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE order_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event %d processed: %w", id, err)
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == constraint
}
