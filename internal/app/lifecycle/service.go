package lifecycle

import (
	"context"
	"fmt"
	"time"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"
)

const mirrorTimeout = 5 * time.Second

// Service is the order lifecycle engine. It validates every mutation
// against the state machine before touching the store, so a rejected
// operation leaves the order untouched. It holds no state of its own.
type Service struct {
	orders        interfaces.OrderRepository
	cancellations interfaces.CancellationRepository
	notifier      interfaces.NotificationService
	gateway       interfaces.PaymentGateway
	mirror        interfaces.OrderMirror
	logger        logger.Logger
}

func NewService(
	orders interfaces.OrderRepository,
	cancellations interfaces.CancellationRepository,
	notifier interfaces.NotificationService,
	gateway interfaces.PaymentGateway,
	mirror interfaces.OrderMirror,
	logger logger.Logger,
) *Service {
	return &Service{
		orders:        orders,
		cancellations: cancellations,
		notifier:      notifier,
		gateway:       gateway,
		mirror:        mirror,
		logger:        logger,
	}
}

func (s *Service) CreateOrder(ctx context.Context, cmd interfaces.CreateOrderCommand) (*domain.Order, error) {
	order, err := domain.NewOrder(cmd.UserID, cmd.Customer, cmd.Items,
		cmd.Subtotal, cmd.Tax, cmd.Tip, cmd.Total, cmd.PaymentID, cmd.SpecialInstructions)
	if err != nil {
		s.logger.Error("validation_failed", "Order validation failed", "", nil, err)
		return nil, err
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.logger.Error("order_create_failed", "Failed to create order", "", nil, err)
		return nil, err
	}

	s.logger.Debug("order_created", "Order created", "", map[string]interface{}{"order_id": order.ID})
	s.mirrorOrder(order)

	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id int) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, status domain.Status, userID string) ([]*domain.Order, error) {
	switch {
	case status != "":
		return s.orders.GetByStatus(ctx, status)
	case userID != "":
		return s.orders.GetByUserID(ctx, userID)
	default:
		return s.orders.GetAll(ctx)
	}
}

func (s *Service) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.GetStatusHistory(ctx, orderID)
}

// Advance moves the order along a forward edge of the state machine.
// A target of cancelled is routed through Cancel so the audit trail and
// customer notice are never skipped.
func (s *Service) Advance(ctx context.Context, cmd interfaces.AdvanceCommand) (*domain.Order, error) {
	if cmd.Target == domain.StatusCancelled {
		return s.Cancel(ctx, interfaces.CancelCommand{
			OrderID:     cmd.OrderID,
			Reason:      "cancelled via status update",
			CancelledBy: cmd.ChangedBy,
		})
	}

	order, err := s.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if err := order.TransitionTo(cmd.Target); err != nil {
		return nil, err
	}

	if cmd.Target == domain.StatusPreparing && cmd.EstimatedTime != nil {
		if *cmd.EstimatedTime <= 0 {
			return nil, fmt.Errorf("%w: estimated time must be a positive number of minutes", domain.ErrValidation)
		}
		order.EstimatedTime = cmd.EstimatedTime
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	changedBy := cmd.ChangedBy
	if changedBy == "" {
		changedBy = "staff"
	}
	if err := s.orders.LogStatus(ctx, order.ID, order.Status, changedBy, nil); err != nil {
		s.logger.Error("status_log_failed", "Failed to log status change", "",
			map[string]interface{}{"order_id": order.ID}, err)
	}

	s.logger.Info("order_advanced", fmt.Sprintf("Order %d advanced to %s", order.ID, order.Status), "",
		map[string]interface{}{"order_id": order.ID, "status": order.Status})
	s.mirrorOrder(order)

	return order, nil
}

// SetEstimatedTime updates the advisory estimate. Last write wins among
// staff; it is only meaningful before the order is ready.
func (s *Service) SetEstimatedTime(ctx context.Context, orderID, minutes int) (*domain.Order, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: estimated time must be a positive number of minutes", domain.ErrValidation)
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != domain.StatusConfirmed && order.Status != domain.StatusPreparing {
		return nil, fmt.Errorf("%w: estimated time can only change while confirmed or preparing", domain.ErrInvalidState)
	}

	order.EstimatedTime = &minutes
	order.UpdatedAt = time.Now()

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.mirrorOrder(order)
	return order, nil
}

// ChargePayment captures the authorized hold. The kitchen confirms it
// can fulfill the order first; capture never changes the kitchen status.
func (s *Service) ChargePayment(ctx context.Context, orderID int) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != domain.PaymentAuthorized {
		return nil, fmt.Errorf("%w: payment is %s, only authorized payments can be charged", domain.ErrInvalidState, order.PaymentStatus)
	}

	if err := s.gateway.Capture(ctx, order.PaymentID, order.Total); err != nil {
		order.PaymentStatus = domain.PaymentFailed
		order.UpdatedAt = time.Now()
		if updateErr := s.orders.Update(ctx, order); updateErr != nil {
			s.logger.Error("payment_state_update_failed", "Failed to record payment failure", "",
				map[string]interface{}{"order_id": order.ID}, updateErr)
		}
		return nil, fmt.Errorf("payment capture failed: %w", err)
	}

	order.PaymentStatus = domain.PaymentCharged
	order.UpdatedAt = time.Now()

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("payment_charged", fmt.Sprintf("Payment charged for order %d", order.ID), "",
		map[string]interface{}{"order_id": order.ID, "payment_id": order.PaymentID})
	s.mirrorOrder(order)

	return order, nil
}

func (s *Service) Cancel(ctx context.Context, cmd interfaces.CancelCommand) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if order.IsTerminal() {
		return nil, fmt.Errorf("order %d is %s: %w", order.ID, order.Status, domain.ErrAlreadyTerminal)
	}

	if err := order.TransitionTo(domain.StatusCancelled); err != nil {
		return nil, err
	}
	order.CancellationReason = cmd.Reason
	order.CancelledBy = cmd.CancelledBy

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	if err := s.orders.LogStatus(ctx, order.ID, order.Status, cmd.CancelledBy, &cmd.Reason); err != nil {
		s.logger.Error("status_log_failed", "Failed to log cancellation", "",
			map[string]interface{}{"order_id": order.ID}, err)
	}

	cancellation := &domain.OrderCancellation{
		OrderID:       order.ID,
		EmployeeName:  cmd.CancelledBy,
		Reason:        cmd.Reason,
		OrderTotal:    order.Total,
		CustomerName:  order.CustomerInfo.FirstName + " " + order.CustomerInfo.LastName,
		CustomerPhone: order.CustomerInfo.Phone,
		CancelledAt:   time.Now(),
	}
	if err := s.cancellations.Append(ctx, cancellation); err != nil {
		s.logger.Error("cancellation_audit_failed", "Failed to append cancellation record", "",
			map[string]interface{}{"order_id": order.ID}, err)
	}

	if _, err := s.notifier.NotifyCancellation(ctx, order, cmd.Reason); err != nil {
		s.logger.Error("notification_failed", "Failed to create cancellation notification", "",
			map[string]interface{}{"order_id": order.ID}, err)
	}

	s.logger.Info("order_cancelled", fmt.Sprintf("Order %d cancelled by %s", order.ID, cmd.CancelledBy), "",
		map[string]interface{}{"order_id": order.ID, "reason": cmd.Reason})
	s.mirrorOrder(order)

	return order, nil
}

// RequestSubstitution records a pending substitution on the order and
// asks the customer for consent. A new request supersedes an unanswered
// prior one.
func (s *Service) RequestSubstitution(ctx context.Context, cmd interfaces.SubstitutionCommand) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if order.IsTerminal() {
		return nil, fmt.Errorf("order %d is %s: %w", order.ID, order.Status, domain.ErrAlreadyTerminal)
	}

	sub := &domain.Substitution{
		Reason:      cmd.Reason,
		Suggestion:  cmd.Suggestion,
		RequestedAt: time.Now(),
	}
	order.PendingSubstitution = sub
	order.UpdatedAt = time.Now()

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	if _, err := s.notifier.NotifySubstitution(ctx, order, sub); err != nil {
		s.logger.Error("notification_failed", "Failed to create substitution notification", "",
			map[string]interface{}{"order_id": order.ID}, err)
	}

	s.logger.Info("substitution_requested", fmt.Sprintf("Substitution requested for order %d", order.ID), "",
		map[string]interface{}{"order_id": order.ID, "reason": cmd.Reason})
	s.mirrorOrder(order)

	return order, nil
}

// Reopen is the audited escape hatch out of a terminal status. It is a
// separate operation on purpose: Advance never accepts backward edges.
func (s *Service) Reopen(ctx context.Context, cmd interfaces.ReopenCommand) (*domain.Order, error) {
	if cmd.Reason == "" || cmd.Actor == "" {
		return nil, fmt.Errorf("%w: reopening requires an actor and a reason", domain.ErrValidation)
	}

	switch cmd.Target {
	case domain.StatusConfirmed, domain.StatusPreparing, domain.StatusReady:
	default:
		return nil, fmt.Errorf("%w: cannot reopen into %s", domain.ErrValidation, cmd.Target)
	}

	order, err := s.orders.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	if !order.IsTerminal() {
		return nil, fmt.Errorf("%w: only completed or cancelled orders can be reopened", domain.ErrInvalidState)
	}

	order.Status = cmd.Target
	order.CancellationReason = ""
	order.CancelledBy = ""
	order.CancelledAt = nil
	order.UpdatedAt = time.Now()

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}

	notes := fmt.Sprintf("reopened: %s", cmd.Reason)
	if err := s.orders.LogStatus(ctx, order.ID, order.Status, cmd.Actor, &notes); err != nil {
		s.logger.Error("status_log_failed", "Failed to log reopen", "",
			map[string]interface{}{"order_id": order.ID}, err)
	}

	s.logger.Info("order_reopened", fmt.Sprintf("Order %d reopened to %s by %s", order.ID, cmd.Target, cmd.Actor), "",
		map[string]interface{}{"order_id": order.ID, "target": cmd.Target, "reason": cmd.Reason})
	s.mirrorOrder(order)

	return order, nil
}

func (s *Service) Stats(ctx context.Context) (*interfaces.OrderStats, error) {
	orders, err := s.orders.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	stats := &interfaces.OrderStats{ByStatus: make(map[domain.Status]int)}
	for _, order := range orders {
		stats.TotalOrders++
		stats.ByStatus[order.Status]++
		if order.Status != domain.StatusCancelled {
			stats.Revenue += order.Total
		}
		if !order.IsTerminal() {
			stats.ActiveOrders++
		}
	}
	if billable := stats.TotalOrders - stats.ByStatus[domain.StatusCancelled]; billable > 0 {
		stats.AverageOrder = stats.Revenue / float64(billable)
	}

	return stats, nil
}

// mirrorOrder pushes the mutation to the secondary real-time store.
// Best effort: latency or failure here must never delay the response.
func (s *Service) mirrorOrder(order *domain.Order) {
	if s.mirror == nil {
		return
	}

	snapshot := *order
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()

		if err := s.mirror.Publish(ctx, &snapshot); err != nil {
			s.logger.Error("mirror_failed", "Failed to mirror order", "",
				map[string]interface{}{"order_id": snapshot.ID}, err)
		}
	}()
}
