package trust

import (
	"context"

	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"
)

const (
	completedBonus   = 10
	cancelledPenalty = 20
)

// Evaluator derives a 0-100 cash-payment trust score from a phone
// number's order history. It holds no state of its own; the score is
// recomputed from the store on every call.
//
// Score policy: clamp(10*completed - 20*cancelled, 0, 100). There is no
// base credit, so empty and cancellation-only histories both score 0
// and the score is monotone everywhere: one more completed order never
// lowers it, one more cancelled order never raises it. Eligibility
// additionally requires a minimum number of completed orders.
type Evaluator struct {
	orders           interfaces.OrderRepository
	scoreThreshold   int
	minimumCompleted int
}

func NewEvaluator(orders interfaces.OrderRepository, scoreThreshold, minimumCompleted int) *Evaluator {
	return &Evaluator{
		orders:           orders,
		scoreThreshold:   scoreThreshold,
		minimumCompleted: minimumCompleted,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, phone string) (*domain.TrustReport, error) {
	history, err := e.orders.GetByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	report := &domain.TrustReport{Phone: phone}

	for _, order := range history {
		report.TotalOrders++
		switch order.Status {
		case domain.StatusCompleted:
			report.CompletedOrders++
		case domain.StatusCancelled:
			report.CancelledOrders++
		}
	}

	report.Score = score(report.CompletedOrders, report.CancelledOrders)
	report.CashEligible = report.Score >= e.scoreThreshold && report.CompletedOrders >= e.minimumCompleted

	return report, nil
}

func score(completed, cancelled int) int {
	s := completedBonus*completed - cancelledPenalty*cancelled
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
