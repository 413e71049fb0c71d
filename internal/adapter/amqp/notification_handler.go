package amqp

import (
	"context"
	"encoding/json"
	"fmt"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/interfaces"
)

// NotificationHandler simulates the external email/SMS channel: it
// consumes the fanout and prints what would be delivered.
type NotificationHandler struct {
	logger logger.Logger
}

func NewNotificationHandler(logger logger.Logger) *NotificationHandler {
	return &NotificationHandler{logger: logger}
}

func (h *NotificationHandler) HandleNotification(ctx context.Context, body []byte) error {
	var msg interfaces.NotificationMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		h.logger.Error("message_parse_failed", "Failed to parse notification", "", nil, err)
		return err
	}

	h.logger.Info("notification_delivered", fmt.Sprintf("Delivering %s for order %d", msg.Type, msg.OrderID),
		fmt.Sprintf("notif-%d", msg.NotificationID), map[string]interface{}{
			"order_id":       msg.OrderID,
			"type":           msg.Type,
			"customer_email": msg.CustomerEmail,
		})

	fmt.Printf("To %s: %s\n", msg.CustomerEmail, msg.Message)

	return nil
}
