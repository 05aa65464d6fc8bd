package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shelfdesk/shelfdesk/internal/domain"
)

// DefaultLatency is applied to every collection operation so loading states
// behave the same against the local backend as against the network.
const DefaultLatency = 300 * time.Millisecond

// Collection implements domain.Backend over one serialized record blob in
// the store. The collection is lazily seeded with sample data on first
// touch. Mutating operations are serialized per collection; ids come from a
// persisted high-water mark and are never reused after deletion.
type Collection[T domain.Record[T]] struct {
	store  *Store
	key    string
	entity string // singular name used in errors
	seed   func() []T
	logger *slog.Logger

	// Latency is the simulated network delay per operation.
	Latency time.Duration

	mu sync.Mutex // Serializes read-modify-write cycles
}

// NewCollection creates a collection bound to the given store key.
func NewCollection[T domain.Record[T]](s *Store, key, entity string, seed func() []T, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{
		store:   s,
		key:     key,
		entity:  entity,
		seed:    seed,
		logger:  logger,
		Latency: DefaultLatency,
	}
}

// wait simulates network latency, honoring the context deadline.
func (c *Collection[T]) wait(ctx context.Context) error {
	if c.Latency <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(c.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// load returns the current records, seeding the collection if it has never
// been written. Callers must hold c.mu.
func (c *Collection[T]) load() []T {
	var items []T
	if c.store.GetRecords(c.key, &items) {
		return items
	}
	items = c.seed()
	if err := c.store.SaveRecords(c.key, items); err != nil {
		c.logger.Error("failed to seed collection", "key", c.key, "error", err)
	}
	c.logger.Debug("seeded collection", "key", c.key, "count", len(items))
	return items
}

func (c *Collection[T]) save(items []T) error {
	return c.store.SaveRecords(c.key, items)
}

// nextID returns the next identity value. Ids are strictly increasing and
// survive deletion of the current maximum.
func (c *Collection[T]) nextID(items []T) int {
	max := c.store.GetSequence(c.key)
	for _, item := range items {
		if id := item.RecordID(); id > max {
			max = id
		}
	}
	return max + 1
}

func (c *Collection[T]) GetAll(ctx context.Context) ([]T, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(), nil
}

func (c *Collection[T]) GetByID(ctx context.Context, id int) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.load() {
		if item.RecordID() == id {
			return item, nil
		}
	}
	return zero, &domain.NotFoundError{Entity: c.entity, ID: id}
}

func (c *Collection[T]) Create(ctx context.Context, data T) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.load()
	id := c.nextID(items)
	created := data.WithID(id)
	items = append(items, created)
	if err := c.save(items); err != nil {
		return zero, err
	}
	if err := c.store.SaveSequence(c.key, id); err != nil {
		return zero, err
	}
	c.logger.Debug("created record", "key", c.key, "id", id)
	return created, nil
}

func (c *Collection[T]) Update(ctx context.Context, id int, data T) (T, error) {
	var zero T
	if err := c.wait(ctx); err != nil {
		return zero, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.load()
	for i, item := range items {
		if item.RecordID() != id {
			continue
		}
		// The id is immutable regardless of what data carries.
		updated := data.WithID(id)
		items[i] = updated
		if err := c.save(items); err != nil {
			return zero, err
		}
		return updated, nil
	}
	return zero, &domain.NotFoundError{Entity: c.entity, ID: id}
}

func (c *Collection[T]) Delete(ctx context.Context, id int) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.load()
	kept := items[:0:0]
	for _, item := range items {
		if item.RecordID() != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return 0, &domain.NotFoundError{Entity: c.entity, ID: id}
	}
	if err := c.save(kept); err != nil {
		return 0, err
	}
	c.logger.Debug("deleted record", "key", c.key, "id", id)
	return id, nil
}

// Filter returns the records matching keep, applying the same simulated
// latency as the other operations. Used by the relation queries.
func (c *Collection[T]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []T
	for _, item := range c.load() {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out, nil
}
