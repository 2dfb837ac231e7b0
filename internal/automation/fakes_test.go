package automation

import (
	"context"
	"errors"
	"sync"
	"time"

	"retailops/pkg/models"
)

type memoryCustomers struct {
	mu        sync.Mutex
	customers map[string]*models.Customer
	upserts   int
	findErr   error
	upsertErr error
	panicOn   string
}

func newMemoryCustomers(customers ...*models.Customer) *memoryCustomers {
	m := &memoryCustomers{customers: make(map[string]*models.Customer)}
	for _, c := range customers {
		m.customers[c.ID] = c.Clone()
	}
	return m
}

func (m *memoryCustomers) Find(_ context.Context, id string) (*models.Customer, error) {
	if m.panicOn != "" && id == m.panicOn {
		panic("customer store exploded")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.customers[id]
	if !ok {
		return nil, nil
	}
	return c.Clone(), nil
}

func (m *memoryCustomers) Upsert(_ context.Context, customer *models.Customer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.upserts++
	m.customers[customer.ID] = customer.Clone()
	return nil
}

func (m *memoryCustomers) get(id string) *models.Customer {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.customers[id].Clone()
}

func (m *memoryCustomers) upsertCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

type memorySink struct {
	mu      sync.Mutex
	entries []AuditEntry
	err     error
}

func (s *memorySink) Append(_ context.Context, entry AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *memorySink) all() []AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AuditEntry(nil), s.entries...)
}

type stubRepository struct {
	mu    sync.Mutex
	rules []AutomationRule
	err   error
	calls int
}

func (r *stubRepository) ListRules(_ context.Context) ([]AutomationRule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return append([]AutomationRule(nil), r.rules...), nil
}

func (r *stubRepository) set(rules ...AutomationRule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = rules
}

func (r *stubRepository) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

var errStore = errors.New("store unavailable")

func vipRule(id string, threshold float64) AutomationRule {
	return AutomationRule{
		ID:      id,
		Name:    "Big spender",
		Trigger: TriggerOrderCreated,
		Conditions: []RuleCondition{
			{Field: FieldTotalAmount, Operator: OperatorGreaterThan, Value: threshold},
		},
		Actions: []RuleAction{
			{Type: ActionAddCustomerTag, Value: "VIP"},
		},
		IsEnabled: true,
	}
}

func tagRule(id, tag string, conditions ...RuleCondition) AutomationRule {
	return AutomationRule{
		ID:         id,
		Name:       "Tag " + tag,
		Trigger:    TriggerOrderCreated,
		Conditions: conditions,
		Actions:    []RuleAction{{Type: ActionAddCustomerTag, Value: tag}},
		IsEnabled:  true,
	}
}

func orderEvent(customerID string, total float64) Event {
	return Event{
		ID:   "evt-1",
		Type: TriggerOrderCreated,
		Payload: map[string]interface{}{
			PayloadOrderID:     "order-1",
			PayloadCustomerID:  customerID,
			PayloadTotalAmount: total,
		},
		OccurredAt: time.Now(),
	}
}

func customer(id string, tags ...string) *models.Customer {
	if tags == nil {
		tags = []string{}
	}
	return &models.Customer{ID: id, Name: "Customer " + id, Tags: tags}
}
