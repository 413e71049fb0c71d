package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"pizza-backoffice/internal/adapter/logger"
	"pizza-backoffice/internal/app/notify"
	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	service       *Service
	notifier      *notify.Service
	orders        *fakeOrderStore
	notifications *fakeNotificationStore
	cancellations *fakeCancellationStore
	publisher     *fakePublisher
	gateway       *fakeGateway
	mirror        *fakeMirror
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		orders:        newFakeOrderStore(),
		notifications: newFakeNotificationStore(),
		cancellations: &fakeCancellationStore{},
		publisher:     &fakePublisher{},
		gateway:       &fakeGateway{},
		mirror:        &fakeMirror{},
	}

	lgr := logger.New("test")
	env.notifier = notify.NewService(env.notifications, env.publisher, lgr)
	env.service = NewService(env.orders, env.cancellations, env.notifier, env.gateway, env.mirror, lgr)
	return env
}

func createCommand() interfaces.CreateOrderCommand {
	return interfaces.CreateOrderCommand{
		Customer: domain.CustomerInfo{
			FirstName: "Ada",
			LastName:  "Moreno",
			Phone:     "5551230000",
			Email:     "ada@example.com",
		},
		Items: []domain.OrderItem{
			{ID: "margherita-l", Name: "Margherita", Size: "large", Quantity: 1, Price: 11.99},
		},
		Subtotal:  11.99,
		Tax:       0.99,
		Tip:       0,
		Total:     12.98,
		PaymentID: "pi_123",
	}
}

func (env *testEnv) mustCreate(t *testing.T) *domain.Order {
	t.Helper()
	order, err := env.service.CreateOrder(context.Background(), createCommand())
	require.NoError(t, err)
	return order
}

func TestFullLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)
	assert.Equal(t, 12.98, order.Total)
	assert.Equal(t, domain.StatusConfirmed, order.Status)

	est := 10
	order, err := env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusPreparing, EstimatedTime: &est, ChangedBy: "kitchen"})
	require.NoError(t, err)
	require.NotNil(t, order.EstimatedTime)
	assert.Equal(t, 10, *order.EstimatedTime)

	order, err = env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusReady, ChangedBy: "kitchen"})
	require.NoError(t, err)

	order, err = env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusCompleted, ChangedBy: "kitchen"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, order.Status)
	assert.Equal(t, domain.PaymentAuthorized, order.PaymentStatus, "payment untouched without an explicit charge")

	history, err := env.service.GetStatusHistory(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestAdvanceCannotSkipStates(t *testing.T) {
	env := newTestEnv(t)
	order := env.mustCreate(t)

	_, err := env.service.Advance(context.Background(), interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusCompleted})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, domain.StatusConfirmed, env.orders.stored(order.ID).Status)
}

func TestAdvanceUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Advance(context.Background(), interfaces.AdvanceCommand{OrderID: 42, Target: domain.StatusPreparing})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCancelCreatesAuditAndNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)
	_, err := env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusPreparing})
	require.NoError(t, err)

	order, err = env.service.Cancel(ctx, interfaces.CancelCommand{OrderID: order.ID, Reason: "special_request", CancelledBy: "employee"})
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCancelled, order.Status)
	assert.Equal(t, "special_request", order.CancellationReason)
	assert.Equal(t, "employee", order.CancelledBy)
	require.NotNil(t, order.CancelledAt)

	cancellations, err := env.cancellations.GetByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, cancellations, 1)
	assert.Equal(t, "employee", cancellations[0].EmployeeName)
	assert.Equal(t, "Ada Moreno", cancellations[0].CustomerName)

	notifications, err := env.notifications.GetByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationOrderCancelled, notifications[0].Type)
	assert.Equal(t, "ada@example.com", notifications[0].CustomerEmail)
}

func TestCancelTerminalOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)
	_, err := env.service.Cancel(ctx, interfaces.CancelCommand{OrderID: order.ID, Reason: "first", CancelledBy: "employee"})
	require.NoError(t, err)

	_, err = env.service.Cancel(ctx, interfaces.CancelCommand{OrderID: order.ID, Reason: "second", CancelledBy: "employee"})
	assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)

	cancellations, _ := env.cancellations.GetByOrder(ctx, order.ID)
	assert.Len(t, cancellations, 1, "failed cancel must not append a second audit row")
}

func TestCancelWithoutEmailSkipsNotification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cmd := createCommand()
	cmd.Customer.Email = ""
	order, err := env.service.CreateOrder(ctx, cmd)
	require.NoError(t, err)

	_, err = env.service.Cancel(ctx, interfaces.CancelCommand{OrderID: order.ID, Reason: "out of dough", CancelledBy: "employee"})
	require.NoError(t, err)

	notifications, _ := env.notifications.GetByOrder(ctx, order.ID)
	assert.Empty(t, notifications)
}

func TestSubstitutionFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)

	order, err := env.service.RequestSubstitution(ctx, interfaces.SubstitutionCommand{OrderID: order.ID, Reason: "bacon", Suggestion: "out"})
	require.NoError(t, err)
	require.NotNil(t, order.PendingSubstitution)
	assert.Equal(t, "bacon", order.PendingSubstitution.Reason)

	notifications, err := env.notifications.GetByOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, domain.NotificationSubstitutionRequest, notifications[0].Type)
	require.NotNil(t, notifications[0].RequestDetails)

	statusBefore := env.orders.stored(order.ID).Status

	responded, err := env.notifier.Respond(ctx, notifications[0].ID, "approved", domain.ResponseApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseApproved, responded.ResponseStatus)
	require.NotNil(t, responded.RespondedAt)

	assert.Equal(t, statusBefore, env.orders.stored(order.ID).Status, "customer response must not change order status")
}

func TestSubstitutionSupersedesPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)

	_, err := env.service.RequestSubstitution(ctx, interfaces.SubstitutionCommand{OrderID: order.ID, Reason: "bacon", Suggestion: "ham"})
	require.NoError(t, err)

	order, err = env.service.RequestSubstitution(ctx, interfaces.SubstitutionCommand{OrderID: order.ID, Reason: "mushrooms", Suggestion: "peppers"})
	require.NoError(t, err)

	require.NotNil(t, order.PendingSubstitution)
	assert.Equal(t, "mushrooms", order.PendingSubstitution.Reason, "newer request supersedes the unanswered one")
}

func TestSubstitutionOnTerminalOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)
	_, err := env.service.Cancel(ctx, interfaces.CancelCommand{OrderID: order.ID, Reason: "gone", CancelledBy: "employee"})
	require.NoError(t, err)

	_, err = env.service.RequestSubstitution(ctx, interfaces.SubstitutionCommand{OrderID: order.ID, Reason: "bacon", Suggestion: "out"})
	assert.ErrorIs(t, err, domain.ErrAlreadyTerminal)
}

func TestRespondExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)
	_, err := env.service.RequestSubstitution(ctx, interfaces.SubstitutionCommand{OrderID: order.ID, Reason: "bacon", Suggestion: "out"})
	require.NoError(t, err)

	notifications, _ := env.notifications.GetByOrder(ctx, order.ID)
	require.Len(t, notifications, 1)
	id := notifications[0].ID

	first, err := env.notifier.Respond(ctx, id, "approved", domain.ResponseApproved)
	require.NoError(t, err)

	_, err = env.notifier.Respond(ctx, id, "declined", domain.ResponseDeclined)
	assert.ErrorIs(t, err, domain.ErrAlreadyResponded)

	stored, err := env.notifications.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ResponseApproved, stored.ResponseStatus)
	require.NotNil(t, stored.CustomerResponse)
	assert.Equal(t, "approved", *stored.CustomerResponse)
	assert.Equal(t, first.RespondedAt.Unix(), stored.RespondedAt.Unix())
}

func TestChargePayment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)

	order, err := env.service.ChargePayment(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCharged, order.PaymentStatus)
	assert.Equal(t, []string{"pi_123"}, env.gateway.captured)

	_, err = env.service.ChargePayment(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "charging twice must be rejected")
	assert.Len(t, env.gateway.captured, 1)
}

func TestChargeCashOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cmd := createCommand()
	cmd.PaymentID = domain.CashPaymentID
	order, err := env.service.CreateOrder(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentCashPending, order.PaymentStatus)

	_, err = env.service.ChargePayment(ctx, order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestSetEstimatedTime(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)

	order, err := env.service.SetEstimatedTime(ctx, order.ID, 25)
	require.NoError(t, err)
	require.NotNil(t, order.EstimatedTime)
	assert.Equal(t, 25, *order.EstimatedTime)

	_, err = env.service.SetEstimatedTime(ctx, order.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusPreparing})
	require.NoError(t, err)
	_, err = env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusReady})
	require.NoError(t, err)

	_, err = env.service.SetEstimatedTime(ctx, order.ID, 15)
	assert.ErrorIs(t, err, domain.ErrInvalidState, "estimate is frozen once the order is ready")
}

func TestReopen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)
	_, err := env.service.Cancel(ctx, interfaces.CancelCommand{OrderID: order.ID, Reason: "mistake", CancelledBy: "employee"})
	require.NoError(t, err)

	_, err = env.service.Reopen(ctx, interfaces.ReopenCommand{OrderID: order.ID, Target: domain.StatusConfirmed, Actor: "manager", Reason: ""})
	assert.ErrorIs(t, err, domain.ErrValidation, "reopening requires a reason")

	order, err = env.service.Reopen(ctx, interfaces.ReopenCommand{OrderID: order.ID, Target: domain.StatusConfirmed, Actor: "manager", Reason: "customer called back"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, order.Status)
	assert.Empty(t, order.CancellationReason)
	assert.Nil(t, order.CancelledAt)

	_, err = env.service.Reopen(ctx, interfaces.ReopenCommand{OrderID: order.ID, Target: domain.StatusConfirmed, Actor: "manager", Reason: "again"})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "only terminal orders can be reopened")
}

func TestConcurrentAdvanceOneWins(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)

	// Hold both operations after their read so they race on the same
	// stored version.
	var barrier sync.WaitGroup
	barrier.Add(2)
	env.orders.readBarrier = func() {
		barrier.Done()
		barrier.Wait()
	}

	type result struct {
		target domain.Status
		err    error
	}
	results := make(chan result, 2)

	go func() {
		_, err := env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusPreparing, ChangedBy: "kitchen"})
		results <- result{domain.StatusPreparing, err}
	}()
	go func() {
		_, err := env.service.Cancel(ctx, interfaces.CancelCommand{OrderID: order.ID, Reason: "race", CancelledBy: "employee"})
		results <- result{domain.StatusCancelled, err}
	}()

	a, b := <-results, <-results
	env.orders.readBarrier = nil

	var winner domain.Status
	var conflicts int
	for _, r := range []result{a, b} {
		if r.err == nil {
			winner = r.target
		} else {
			require.ErrorIs(t, r.err, domain.ErrConcurrentModification)
			conflicts++
		}
	}

	assert.Equal(t, 1, conflicts, "exactly one writer must lose the race")
	assert.Equal(t, winner, env.orders.stored(order.ID).Status, "stored status equals the winner's target")
}

func TestMirrorReceivesMutations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order := env.mustCreate(t)
	_, err := env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: order.ID, Target: domain.StatusPreparing})
	require.NoError(t, err)

	// Mirroring is asynchronous by contract; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for env.mirror.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	assert.GreaterOrEqual(t, env.mirror.count(), 2)
}

func TestStats(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.mustCreate(t)
	second := env.mustCreate(t)
	env.mustCreate(t)

	_, err := env.service.Advance(ctx, interfaces.AdvanceCommand{OrderID: first.ID, Target: domain.StatusPreparing})
	require.NoError(t, err)
	_, err = env.service.Cancel(ctx, interfaces.CancelCommand{OrderID: second.ID, Reason: "mistake", CancelledBy: "employee"})
	require.NoError(t, err)

	stats, err := env.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 2, stats.ActiveOrders)
	assert.Equal(t, 1, stats.ByStatus[domain.StatusCancelled])
	assert.InDelta(t, 25.96, stats.Revenue, 0.001)
	assert.InDelta(t, 12.98, stats.AverageOrder, 0.001)
}
