package store

import (
	"sync"

	"github.com/efreitasn/exchange/internal/domain"
)

// OrderStore is a thread-safe in-memory journal of every submitted order,
// with a primary index by order_id and a secondary index by client_id.
type OrderStore struct {
	mu           sync.RWMutex
	orders       map[string]*domain.Order
	clientOrders map[string][]*domain.Order // client_id → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:       make(map[string]*domain.Order),
		clientOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the journal and appends it to the
// client's secondary index.
func (s *OrderStore) Create(o *domain.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.orders[o.OrderID] = o
	s.clientOrders[o.ClientID] = append(s.clientOrders[o.ClientID], o)
}

// OpenByClient returns the client's orders still resting on the book, in
// submission order.
func (s *OrderStore) OpenByClient(clientID string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var open []*domain.Order
	for _, o := range s.clientOrders[clientID] {
		if o.Resting() {
			open = append(open, o)
		}
	}
	return open
}

// CountByStatus tallies the journal by current order status.
func (s *OrderStore) CountByStatus() map[domain.OrderStatus]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.OrderStatus]int)
	for _, o := range s.orders {
		counts[o.Status]++
	}
	return counts
}

// Len returns the number of journaled orders.
func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
