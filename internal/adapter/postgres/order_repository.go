package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"

	"github.com/jackc/pgx/v5"
)

type orderRepository struct {
	db DB
}

func NewOrderRepository(db DB) interfaces.OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, customer_info, items, subtotal, tax, tip, total,
	       status, payment_status, payment_id, estimated_time, special_instructions,
	       pending_substitution, cancellation_reason, cancelled_by, cancelled_at,
	       version, created_at, updated_at`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	customerInfo, err := json.Marshal(order.CustomerInfo)
	if err != nil {
		return fmt.Errorf("failed to marshal customer info: %w", err)
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", domain.ErrStorage, err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (user_id, customer_info, items, subtotal, tax, tip, total,
		                    status, payment_status, payment_id, special_instructions,
		                    version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err = tx.QueryRow(ctx, query,
		order.UserID, customerInfo, items, order.Subtotal, order.Tax, order.Tip, order.Total,
		order.Status, order.PaymentStatus, order.PaymentID, order.SpecialInstructions,
		order.Version, order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w: %w", domain.ErrStorage, err)
	}

	logQuery := `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, logQuery, order.ID, order.Status, "order-service", time.Now()); err != nil {
		return fmt.Errorf("failed to log status: %w: %w", domain.ErrStorage, err)
	}

	return tx.Commit(ctx)
}

func (r *orderRepository) GetByID(ctx context.Context, id int) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load order: %w: %w", domain.ErrStorage, err)
	}
	return order, nil
}

func (r *orderRepository) GetAll(ctx context.Context) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders ORDER BY created_at DESC`, orderColumns)
	return r.queryOrders(ctx, query)
}

func (r *orderRepository) GetByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE status = $1 ORDER BY created_at DESC`, orderColumns)
	return r.queryOrders(ctx, query, status)
}

func (r *orderRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, orderColumns)
	return r.queryOrders(ctx, query, userID)
}

func (r *orderRepository) GetByPhone(ctx context.Context, phone string) ([]*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE customer_info->>'phone' = $1 ORDER BY created_at DESC`, orderColumns)
	return r.queryOrders(ctx, query, phone)
}

// Update performs a compare-and-swap on the version column. Losing a
// concurrent race surfaces as domain.ErrConcurrentModification.
func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	pendingSub, err := marshalNullable(order.PendingSubstitution)
	if err != nil {
		return fmt.Errorf("failed to marshal pending substitution: %w", err)
	}

	query := `
		UPDATE orders
		SET status = $1, payment_status = $2, estimated_time = $3,
		    special_instructions = $4, pending_substitution = $5,
		    cancellation_reason = $6, cancelled_by = $7, cancelled_at = $8,
		    version = version + 1, updated_at = $9
		WHERE id = $10 AND version = $11
	`
	tag, err := r.db.Exec(ctx, query,
		order.Status, order.PaymentStatus, order.EstimatedTime,
		order.SpecialInstructions, pendingSub,
		nullableString(order.CancellationReason), nullableString(order.CancelledBy), order.CancelledAt,
		order.UpdatedAt, order.ID, order.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w: %w", domain.ErrStorage, err)
	}

	if tag.RowsAffected() == 0 {
		// Either the row vanished or someone else won the write.
		if _, err := r.GetByID(ctx, order.ID); err != nil {
			return err
		}
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrConcurrentModification)
	}

	order.Version++
	return nil
}

func (r *orderRepository) LogStatus(ctx context.Context, orderID int, status domain.Status, changedBy string, notes *string) error {
	query := `
		INSERT INTO order_status_log (order_id, status, changed_by, notes, changed_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.Exec(ctx, query, orderID, status, changedBy, notes, time.Now()); err != nil {
		return fmt.Errorf("failed to log status: %w: %w", domain.ErrStorage, err)
	}
	return nil
}

func (r *orderRepository) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	query := `
		SELECT id, order_id, status, changed_by, notes, changed_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY changed_at ASC
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var logs []*domain.StatusLog
	for rows.Next() {
		var log domain.StatusLog
		if err := rows.Scan(&log.ID, &log.OrderID, &log.Status, &log.ChangedBy, &log.Notes, &log.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status log: %w: %w", domain.ErrStorage, err)
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

func (r *orderRepository) queryOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w: %w", domain.ErrStorage, err)
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

func scanOrder(row Row) (*domain.Order, error) {
	var (
		order        domain.Order
		customerInfo []byte
		items        []byte
		pendingSub   []byte
		reason       *string
		cancelledBy  *string
	)

	err := row.Scan(
		&order.ID, &order.UserID, &customerInfo, &items, &order.Subtotal, &order.Tax,
		&order.Tip, &order.Total, &order.Status, &order.PaymentStatus, &order.PaymentID,
		&order.EstimatedTime, &order.SpecialInstructions, &pendingSub,
		&reason, &cancelledBy, &order.CancelledAt,
		&order.Version, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(customerInfo, &order.CustomerInfo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal customer info: %w", err)
	}
	if err := json.Unmarshal(items, &order.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal items: %w", err)
	}
	if len(pendingSub) > 0 {
		var sub domain.Substitution
		if err := json.Unmarshal(pendingSub, &sub); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pending substitution: %w", err)
		}
		order.PendingSubstitution = &sub
	}
	if reason != nil {
		order.CancellationReason = *reason
	}
	if cancelledBy != nil {
		order.CancelledBy = *cancelledBy
	}

	return &order, nil
}

func marshalNullable(sub *domain.Substitution) ([]byte, error) {
	if sub == nil {
		return nil, nil
	}
	return json.Marshal(sub)
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
