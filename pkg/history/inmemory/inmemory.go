// Package inmemory provides a map-backed history driver.
package inmemory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/papercomputeco/faqbot/pkg/history"
)

// Driver implements history.Driver using an in-memory map.
type Driver struct {
	// mu is a read write sync mutex for locking the mapping of exchanges
	mu sync.RWMutex

	// exchanges maps IDs to stored copies
	exchanges map[int64]*history.Exchange

	nextID int64
}

// NewDriver creates a new in-memory driver.
func NewDriver() *Driver {
	return &Driver{
		exchanges: make(map[int64]*history.Exchange),
	}
}

// Save stores a copy of ex and sets its ID.
func (d *Driver) Save(_ context.Context, ex *history.Exchange) error {
	if err := history.Validate(ex); err != nil {
		return err
	}
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now()
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	ex.ID = d.nextID
	d.exchanges[ex.ID] = clone(ex)

	return nil
}

// Get retrieves an exchange by ID.
func (d *Driver) Get(_ context.Context, id int64) (*history.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ex, ok := d.exchanges[id]
	if !ok {
		return nil, history.NotFoundError{ID: id}
	}

	return clone(ex), nil
}

// List returns the most recent exchanges of a session, oldest first.
func (d *Driver) List(_ context.Context, sessionID string, limit int) ([]*history.Exchange, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []*history.Exchange
	for _, ex := range d.exchanges {
		if sessionID != "" && ex.SessionID != sessionID {
			continue
		}
		out = append(out, clone(ex))
	}

	slices.SortFunc(out, compare)
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}

	return out, nil
}

// Sessions returns the known session IDs, most recently active first.
func (d *Driver) Sessions(_ context.Context) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	latest := make(map[string]*history.Exchange)
	for _, ex := range d.exchanges {
		if cur, ok := latest[ex.SessionID]; !ok || compare(cur, ex) < 0 {
			latest[ex.SessionID] = ex
		}
	}

	ordered := make([]*history.Exchange, 0, len(latest))
	for _, ex := range latest {
		ordered = append(ordered, ex)
	}
	slices.SortFunc(ordered, func(a, b *history.Exchange) int {
		return compare(b, a)
	})

	out := make([]string, 0, len(ordered))
	for _, ex := range ordered {
		out = append(out, ex.SessionID)
	}

	return out, nil
}

// Close is a no-op for the in-memory driver.
func (d *Driver) Close() error {
	return nil
}

// compare orders exchanges by creation time, then by ID.
func compare(a, b *history.Exchange) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	}
	return 0
}

func clone(ex *history.Exchange) *history.Exchange {
	c := *ex
	c.Sources = slices.Clone(ex.Sources)
	return &c
}
