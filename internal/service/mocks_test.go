package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"cafecart/internal/cache"
	"cafecart/internal/catalog"
	"cafecart/internal/domain"
	"cafecart/internal/events"
	"cafecart/internal/repository"
)

// memRepository implements repository.CartRepository in memory with the same
// semantics as the MongoDB implementation, including the one-active-cart rule.
type memRepository struct {
	mu     sync.Mutex
	orders []*domain.Order
	seq    int
	err    error
}

func (m *memRepository) activeLocked(userID string) *domain.Order {
	for _, o := range m.orders {
		if o.UserID == userID && !o.IsPaid {
			return o
		}
	}
	return nil
}

func (m *memRepository) newCartLocked(userID string) *domain.Order {
	m.seq++
	order := &domain.Order{
		ID:        fmt.Sprintf("order-%d", m.seq),
		UserID:    userID,
		Items:     []domain.LineItem{},
		CreatedAt: time.Now(),
	}
	m.orders = append(m.orders, order)
	return order
}

func clone(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.LineItem(nil), o.Items...)
	return &c
}

func (m *memRepository) ActiveCart(_ context.Context, userID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if o := m.activeLocked(userID); o != nil {
		return clone(o), nil
	}
	return nil, repository.ErrCartNotFound
}

func (m *memRepository) EnsureActiveCart(_ context.Context, userID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o := m.activeLocked(userID)
	if o == nil {
		o = m.newCartLocked(userID)
	}
	return clone(o), nil
}

func (m *memRepository) AddLine(_ context.Context, userID string, itemID int64, qty int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	o := m.activeLocked(userID)
	if o == nil {
		o = m.newCartLocked(userID)
	}
	if line := o.Line(itemID); line != nil {
		line.Qty += qty
		return nil
	}
	o.Items = append(o.Items, domain.LineItem{ItemID: itemID, Qty: qty, AddedAt: time.Now()})
	return nil
}

func (m *memRepository) SetLineQty(_ context.Context, userID string, itemID int64, qty int32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	o := m.activeLocked(userID)
	if o == nil || o.Line(itemID) == nil {
		return repository.ErrLineNotFound
	}
	if qty <= 0 {
		for i, li := range o.Items {
			if li.ItemID == itemID {
				o.Items = append(o.Items[:i], o.Items[i+1:]...)
				break
			}
		}
		return nil
	}
	o.Line(itemID).Qty = qty
	return nil
}

func (m *memRepository) Checkout(_ context.Context, userID string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	o := m.activeLocked(userID)
	if o == nil || len(o.Items) == 0 {
		return nil, repository.ErrEmptyCart
	}
	o.IsPaid = true
	m.seq++
	o.PaidAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	return clone(o), nil
}

func (m *memRepository) PaidOrders(_ context.Context, userID string) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var paid []domain.Order
	for _, o := range m.orders {
		if o.UserID == userID && o.IsPaid {
			paid = append(paid, *clone(o))
		}
	}
	sort.Slice(paid, func(i, j int) bool {
		return paid[i].PaidAt.After(paid[j].PaidAt)
	})
	return paid, nil
}

// activeCount reports how many unpaid orders a user has; must never exceed 1.
func (m *memRepository) activeCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, o := range m.orders {
		if o.UserID == userID && !o.IsPaid {
			n++
		}
	}
	return n
}

type memCatalog struct {
	mu    sync.RWMutex
	items map[int64]domain.Item
}

func (c *memCatalog) Lookup(_ context.Context, itemID int64) (*domain.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	item, ok := c.items[itemID]
	if !ok {
		return nil, catalog.ErrItemNotFound
	}
	return &item, nil
}

func (c *memCatalog) ListItems(_ context.Context) ([]*domain.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	items := make([]*domain.Item, 0, len(c.items))
	for id := range c.items {
		item := c.items[id]
		items = append(items, &item)
	}
	return items, nil
}

func (c *memCatalog) setPrice(itemID int64, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item := c.items[itemID]
	item.Price = price
	c.items[itemID] = item
}

type memCache struct {
	mu    sync.Mutex
	order *domain.Order
	err   error
	hits  int
}

func (c *memCache) Get(context.Context, string) (*domain.Order, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	if c.order == nil {
		return nil, cache.ErrCacheMiss
	}
	c.hits++
	return c.order, nil
}

func (c *memCache) Set(_ context.Context, _ string, order *domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = order
	return c.err
}

func (c *memCache) Delete(context.Context, string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order = nil
	return c.err
}

type memPublisher struct {
	mu     sync.Mutex
	events []events.CheckoutCompleted
	err    error
}

func (p *memPublisher) PublishCheckout(_ context.Context, event events.CheckoutCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *memPublisher) published() []events.CheckoutCompleted {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.CheckoutCompleted(nil), p.events...)
}
