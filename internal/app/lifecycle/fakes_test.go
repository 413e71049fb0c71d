package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pizza-backoffice/internal/domain"
	"pizza-backoffice/internal/interfaces"
)

// In-memory fakes mimicking the postgres adapter's contract, including
// the version compare-and-swap on Update.

type fakeOrderStore struct {
	mu     sync.Mutex
	orders map[int]*domain.Order
	logs   []*domain.StatusLog
	nextID int

	// readBarrier, when set, runs after every GetByID copy. Tests use it
	// to line up two readers on the same version before they write.
	readBarrier func()
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: make(map[int]*domain.Order), nextID: 1}
}

func (s *fakeOrderStore) Create(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = s.nextID
	s.nextID++
	s.orders[order.ID] = copyOrder(order)
	s.logs = append(s.logs, &domain.StatusLog{OrderID: order.ID, Status: order.Status, ChangedBy: "order-service", ChangedAt: time.Now()})
	return nil
}

func (s *fakeOrderStore) GetByID(ctx context.Context, id int) (*domain.Order, error) {
	s.mu.Lock()
	order, ok := s.orders[id]
	var snapshot *domain.Order
	if ok {
		snapshot = copyOrder(order)
	}
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("order %d: %w", id, domain.ErrNotFound)
	}
	if s.readBarrier != nil {
		s.readBarrier()
	}
	return snapshot, nil
}

func (s *fakeOrderStore) GetAll(ctx context.Context) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []*domain.Order
	for id := s.nextID - 1; id >= 1; id-- {
		if order, ok := s.orders[id]; ok {
			orders = append(orders, copyOrder(order))
		}
	}
	return orders, nil
}

func (s *fakeOrderStore) GetByStatus(ctx context.Context, status domain.Status) ([]*domain.Order, error) {
	all, _ := s.GetAll(ctx)
	var orders []*domain.Order
	for _, order := range all {
		if order.Status == status {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (s *fakeOrderStore) GetByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	all, _ := s.GetAll(ctx)
	var orders []*domain.Order
	for _, order := range all {
		if order.UserID == userID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (s *fakeOrderStore) GetByPhone(ctx context.Context, phone string) ([]*domain.Order, error) {
	all, _ := s.GetAll(ctx)
	var orders []*domain.Order
	for _, order := range all {
		if order.CustomerInfo.Phone == phone {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

func (s *fakeOrderStore) Update(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.orders[order.ID]
	if !ok {
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrNotFound)
	}
	if stored.Version != order.Version {
		return fmt.Errorf("order %d: %w", order.ID, domain.ErrConcurrentModification)
	}

	order.Version++
	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *fakeOrderStore) LogStatus(ctx context.Context, orderID int, status domain.Status, changedBy string, notes *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, &domain.StatusLog{
		OrderID:   orderID,
		Status:    status,
		ChangedBy: changedBy,
		Notes:     notes,
		ChangedAt: time.Now(),
	})
	return nil
}

func (s *fakeOrderStore) GetStatusHistory(ctx context.Context, orderID int) ([]*domain.StatusLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var logs []*domain.StatusLog
	for _, log := range s.logs {
		if log.OrderID == orderID {
			logs = append(logs, log)
		}
	}
	return logs, nil
}

func (s *fakeOrderStore) stored(id int) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyOrder(s.orders[id])
}

func copyOrder(o *domain.Order) *domain.Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	if o.EstimatedTime != nil {
		v := *o.EstimatedTime
		c.EstimatedTime = &v
	}
	if o.PendingSubstitution != nil {
		sub := *o.PendingSubstitution
		c.PendingSubstitution = &sub
	}
	if o.CancelledAt != nil {
		at := *o.CancelledAt
		c.CancelledAt = &at
	}
	return &c
}

type fakeNotificationStore struct {
	mu            sync.Mutex
	notifications map[int]*domain.CustomerNotification
	nextID        int
}

func newFakeNotificationStore() *fakeNotificationStore {
	return &fakeNotificationStore{notifications: make(map[int]*domain.CustomerNotification), nextID: 1}
}

func (s *fakeNotificationStore) Create(ctx context.Context, n *domain.CustomerNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n.ID = s.nextID
	s.nextID++
	c := *n
	s.notifications[n.ID] = &c
	return nil
}

func (s *fakeNotificationStore) GetByID(ctx context.Context, id int) (*domain.CustomerNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
	}
	c := *n
	return &c, nil
}

func (s *fakeNotificationStore) GetByOrder(ctx context.Context, orderID int) ([]*domain.CustomerNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var notifications []*domain.CustomerNotification
	for id := s.nextID - 1; id >= 1; id-- {
		if n, ok := s.notifications[id]; ok && n.OrderID == orderID {
			c := *n
			notifications = append(notifications, &c)
		}
	}
	return notifications, nil
}

func (s *fakeNotificationStore) Respond(ctx context.Context, id int, response string, status domain.ResponseStatus, at time.Time) (*domain.CustomerNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notifications[id]
	if !ok {
		return nil, fmt.Errorf("notification %d: %w", id, domain.ErrNotFound)
	}
	if n.RespondedAt != nil {
		c := *n
		return &c, fmt.Errorf("notification %d: %w", id, domain.ErrAlreadyResponded)
	}

	n.CustomerResponse = &response
	n.ResponseStatus = status
	n.RespondedAt = &at
	n.Status = "responded"

	c := *n
	return &c, nil
}

type fakeCancellationStore struct {
	mu            sync.Mutex
	cancellations []*domain.OrderCancellation
}

func (s *fakeCancellationStore) Append(ctx context.Context, c *domain.OrderCancellation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = len(s.cancellations) + 1
	s.cancellations = append(s.cancellations, c)
	return nil
}

func (s *fakeCancellationStore) GetByOrder(ctx context.Context, orderID int) ([]*domain.OrderCancellation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*domain.OrderCancellation
	for _, c := range s.cancellations {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []interfaces.NotificationMessage
	err      error
}

func (p *fakePublisher) PublishNotification(ctx context.Context, msg interfaces.NotificationMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

type fakeGateway struct {
	mu       sync.Mutex
	captured []string
	err      error
}

func (g *fakeGateway) Capture(ctx context.Context, paymentID string, amount float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.err != nil {
		return g.err
	}
	g.captured = append(g.captured, paymentID)
	return nil
}

type fakeMirror struct {
	mu        sync.Mutex
	published []int
}

func (m *fakeMirror) Publish(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.published = append(m.published, order.ID)
	return nil
}

func (m *fakeMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published)
}
