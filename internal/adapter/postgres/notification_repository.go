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

type notificationRepository struct {
	db DB
}

func NewNotificationRepository(db DB) interfaces.NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, order_id, type, message, customer_email, request_details,
	       status, customer_response, response_status, responded_at, created_at`

func (r *notificationRepository) Create(ctx context.Context, n *domain.CustomerNotification) error {
	details, err := marshalNullable(n.RequestDetails)
	if err != nil {
		return fmt.Errorf("failed to marshal request details: %w", err)
	}

	query := `
		INSERT INTO customer_notifications (order_id, type, message, customer_email,
		                                    request_details, status, response_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err = r.db.QueryRow(ctx, query,
		n.OrderID, n.Type, n.Message, n.CustomerEmail, details, n.Status, n.ResponseStatus, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w: %w", domain.ErrStorage, err)
	}
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id int) (*domain.CustomerNotification, error) {
	query := fmt.Sprintf(`SELECT %s FROM customer_notifications WHERE id = $1`, notificationColumns)

	n, err := scanNotification(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load notification: %w: %w", domain.ErrStorage, err)
	}
	return n, nil
}

func (r *notificationRepository) GetByOrder(ctx context.Context, orderID int) ([]*domain.CustomerNotification, error) {
	query := fmt.Sprintf(`SELECT %s FROM customer_notifications WHERE order_id = $1 ORDER BY created_at DESC`, notificationColumns)

	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w: %w", domain.ErrStorage, err)
	}
	defer rows.Close()

	var notifications []*domain.CustomerNotification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w: %w", domain.ErrStorage, err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

// Respond sets the response fields in one statement, guarded by
// responded_at IS NULL so a second answer can never overwrite the first.
func (r *notificationRepository) Respond(ctx context.Context, id int, response string, status domain.ResponseStatus, at time.Time) (*domain.CustomerNotification, error) {
	query := `
		UPDATE customer_notifications
		SET customer_response = $1, response_status = $2, responded_at = $3, status = 'responded'
		WHERE id = $4 AND responded_at IS NULL
	`
	tag, err := r.db.Exec(ctx, query, response, status, at, id)
	if err != nil {
		return nil, fmt.Errorf("failed to record response: %w: %w", domain.ErrStorage, err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return existing, fmt.Errorf("notification %d: %w", id, domain.ErrAlreadyResponded)
	}

	return r.GetByID(ctx, id)
}

func scanNotification(row Row) (*domain.CustomerNotification, error) {
	var (
		n       domain.CustomerNotification
		details []byte
	)

	err := row.Scan(
		&n.ID, &n.OrderID, &n.Type, &n.Message, &n.CustomerEmail, &details,
		&n.Status, &n.CustomerResponse, &n.ResponseStatus, &n.RespondedAt, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(details) > 0 {
		var sub domain.Substitution
		if err := json.Unmarshal(details, &sub); err != nil {
			return nil, fmt.Errorf("failed to unmarshal request details: %w", err)
		}
		n.RequestDetails = &sub
	}

	return &n, nil
}
