package payment

import (
	"context"
	"fmt"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"
)

// stubGateway stands in for the real payment provider. Authorization
// happened at checkout; capture here always succeeds except for cash
// orders, which have nothing to capture.
type stubGateway struct {
	logger logger.Logger
}

func NewStubGateway(logger logger.Logger) interfaces.PaymentGateway {
	return &stubGateway{logger: logger}
}

func (g *stubGateway) Capture(ctx context.Context, paymentID string, amount float64) error {
	if paymentID == domain.CashPaymentID {
		return fmt.Errorf("cash payments are collected in person, nothing to capture")
	}

	g.logger.Info("payment_captured", fmt.Sprintf("Captured %.2f for payment %s", amount, paymentID), "", map[string]interface{}{
		"payment_id": paymentID,
		"amount":     amount,
	})

	return nil
}
