package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pizza-backoffice/internal/config"
	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"

	"github.com/redis/go-redis/v9"
)

const (
	orderKeyPrefix = "order:"
	eventsChannel  = "orders.events"
	mirrorTTL      = 24 * time.Hour
)

// mirror is the Sync Bridge: it copies order documents into Redis so
// polling dashboards can read the latest state without hitting the
// primary store. It is never a source of truth.
type mirror struct {
	client *redis.Client
}

func Connect(ctx context.Context, cfg config.RedisConfig) (interfaces.OrderMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &mirror{client: client}, nil
}

type mirrorEvent struct {
	OrderID   int           `json:"order_id"`
	Status    domain.Status `json:"status"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (m *mirror) Publish(ctx context.Context, order *domain.Order) error {
	doc, err := json.Marshal(orderDocument(order))
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	key := fmt.Sprintf("%s%d", orderKeyPrefix, order.ID)
	if err := m.client.Set(ctx, key, doc, mirrorTTL).Err(); err != nil {
		return fmt.Errorf("failed to mirror order: %w", err)
	}

	event, err := json.Marshal(mirrorEvent{
		OrderID:   order.ID,
		Status:    order.Status,
		UpdatedAt: order.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := m.client.Publish(ctx, eventsChannel, event).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

func orderDocument(order *domain.Order) map[string]interface{} {
	doc := map[string]interface{}{
		"id":             order.ID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"total":          order.Total,
		"customer_info":  order.CustomerInfo,
		"items":          order.Items,
		"updated_at":     order.UpdatedAt,
	}
	if order.EstimatedTime != nil {
		doc["estimated_time"] = *order.EstimatedTime
	}
	if order.PendingSubstitution != nil {
		doc["pending_substitution"] = order.PendingSubstitution
	}
	return doc
}
