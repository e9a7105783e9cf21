package sales

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
)

// Session is one clerk's cart.
type Session struct {
	ID          string    `json:"id"`
	Salesperson string    `json:"salesperson"`
	CreatedAt   time.Time `json:"created_at"`

	mu    sync.Mutex
	items []Item
}

// Items returns a copy of the cart contents.
func (s *Session) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Item(nil), s.items...)
}

// quantity returns the units of productID already in the cart.
func (s *Session) quantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, item := range s.items {
		if item.ProductID == productID {
			total += item.Quantity
		}
	}
	return total
}

func (s *Session) add(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, item)
}

// Clear empties the cart.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}

// Sessions is the registry of open carts.
type Sessions struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	now      func() time.Time
}

// NewSessions returns an empty registry.
func NewSessions() *Sessions {
	return &Sessions{sessions: make(map[string]*Session), now: time.Now}
}

// Create opens a cart for the salesperson.
func (r *Sessions) Create(salesperson string) (*Session, error) {
	salesperson = strings.TrimSpace(salesperson)
	if salesperson == "" {
		return nil, ErrSalespersonRequired
	}
	session := &Session{ID: uuid.NewString(), Salesperson: salesperson, CreatedAt: r.now().UTC()}
	r.mu.Lock()
	r.sessions[session.ID] = session
	r.mu.Unlock()
	return session, nil
}

// Get looks up a session by id.
func (r *Sessions) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// Delete closes a session.
func (r *Sessions) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// mergeItems validates items and sums repeated product ids, keeping the
// order in which ids first appear.
func mergeItems(items []Item) ([]Item, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	index := make(map[string]int, len(items))
	merged := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Quantity < 1 {
			return nil, fmt.Errorf("%w: %s", ErrInvalidQuantity, item.ProductID)
		}
		id := catalog.NormalizeID(item.ProductID)
		if i, ok := index[id]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[id] = len(merged)
		merged = append(merged, Item{ProductID: id, Quantity: item.Quantity})
	}
	return merged, nil
}
