package postgres

import (
	"context"
	"fmt"

	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"
)

type cancellationRepository struct {
	db DB
}

func NewCancellationRepository(db DB) interfaces.CancellationRepository {
	return &cancellationRepository{db: db}
}

func (r *cancellationRepository) Append(ctx context.Context, c *domain.OrderCancellation) error {
	query := `
		INSERT INTO order_cancellations (order_id, employee_name, reason, order_total,
		                                 customer_name, customer_phone, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		c.OrderID, c.EmployeeName, c.Reason, c.OrderTotal,
		c.CustomerName, c.CustomerPhone, c.CancelledAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("failed to insert cancellation: %w: %w", domain.ErrStorage, err)
	}
	return nil
}

func (r *cancellationRepository) GetByOrder(ctx context.Context, orderID int) ([]*domain.OrderCancellation, error) {
	query := `
		SELECT id, order_id, employee_name, reason, order_total, customer_name, customer_phone, cancelled_at
		FROM order_cancellations
		WHERE order_id = $1
		ORDER BY cancelled_at ASC
	`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cancellations: %w: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var cancellations []*domain.OrderCancellation
	for rows.Next() {
		var c domain.OrderCancellation
		if err := rows.Scan(&c.ID, &c.OrderID, &c.EmployeeName, &c.Reason, &c.OrderTotal,
			&c.CustomerName, &c.CustomerPhone, &c.CancelledAt); err != nil {
			return nil, fmt.Errorf("failed to scan cancellation: %w: %w", domain.ErrStorage, err)
		}
		cancellations = append(cancellations, &c)
	}

	return cancellations, rows.Err()
}
