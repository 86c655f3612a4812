// Package chain owns one resource's ordered schedule items for one fiscal
// year and applies reorder and edit operations to them. Every operation
// works on a copy and replaces the chain's items only when it succeeds.
package chain

import (
	"fmt"
	"time"

	"github.com/alexanderramin/timeline/internal/domain"
	"github.com/alexanderramin/timeline/internal/scheduler"
)

// Chain is not safe for concurrent use; callers serialise access per
// resource and fiscal year.
type Chain struct {
	key   domain.ChainKey
	cal   scheduler.Calendar
	items []domain.ScheduleItem
	now   func() time.Time
}

type Option func(*Chain)

// WithClock overrides the clock used to stamp AssignedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Chain) { c.now = now }
}

// New builds a chain from stored items. The items must already carry a
// contiguous 0..n-1 order once sorted, otherwise domain.ErrDataIntegrity is
// returned. New does not recompute.
func New(key domain.ChainKey, items []domain.ScheduleItem, cal scheduler.Calendar, opts ...Option) (*Chain, error) {
	if cal == nil {
		panic("chain: New called with nil calendar")
	}
	sorted := domain.CloneItems(items)
	sortByOrder(sorted)
	if err := domain.CheckOrder(sorted); err != nil {
		return nil, fmt.Errorf("chain %s: %w", key, err)
	}
	seen := make(map[string]bool, len(sorted))
	for _, it := range sorted {
		if seen[it.ID] {
			return nil, fmt.Errorf("chain %s: duplicate item %s: %w", key, it.ID, domain.ErrDataIntegrity)
		}
		seen[it.ID] = true
	}

	c := &Chain{key: key, cal: cal, items: sorted, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Chain) Key() domain.ChainKey { return c.key }
func (c *Chain) Len() int             { return len(c.items) }

// Items returns a deep copy of the chain's items in order.
func (c *Chain) Items() []domain.ScheduleItem {
	return domain.CloneItems(c.items)
}

// Find returns a copy of the item with the given id.
func (c *Chain) Find(itemID string) (domain.ScheduleItem, error) {
	i := c.indexOf(itemID)
	if i < 0 {
		return domain.ScheduleItem{}, fmt.Errorf("schedule item %s: %w", itemID, domain.ErrNotFound)
	}
	return c.items[i].Clone(), nil
}

// Recompute re-derives every date in the chain. It returns the ids of items
// whose dates changed.
func (c *Chain) Recompute() []string {
	return c.commit(c.items, nil)
}

// Reorder moves an item to newIndex, renumbers the chain and recomputes it.
// Whichever Auto item ends up first keeps its own stored start date. Moving an
// item to its current index changes nothing.
func (c *Chain) Reorder(itemID string, newIndex int) ([]string, error) {
	from := c.indexOf(itemID)
	if from < 0 {
		return nil, fmt.Errorf("reorder %s: %w", itemID, domain.ErrNotFound)
	}
	if newIndex < 0 || newIndex >= len(c.items) {
		return nil, fmt.Errorf("reorder %s to %d (chain has %d items): %w", itemID, newIndex, len(c.items), domain.ErrInvalidIndex)
	}

	next := move(domain.CloneItems(c.items), from, newIndex)
	renumber(next)
	return c.commit(next, nil), nil
}

// ApplyCommonStart recomputes the chain with start as the anchor of the
// first Auto item.
func (c *Chain) ApplyCommonStart(start time.Time) ([]string, error) {
	if start.IsZero() {
		return nil, domain.NewValidationError("start_date", "is required")
	}
	s := domain.NormalizeDate(start)
	return c.commit(c.items, &s), nil
}

// EditItem merges patch into one item and recomputes the whole chain, since
// an early edit can cascade through every later Auto item.
func (c *Chain) EditItem(itemID string, patch domain.ItemPatch) ([]string, error) {
	i := c.indexOf(itemID)
	if i < 0 {
		return nil, fmt.Errorf("edit %s: %w", itemID, domain.ErrNotFound)
	}
	next := domain.CloneItems(c.items)
	if err := next[i].ApplyPatch(patch, c.now()); err != nil {
		return nil, err
	}
	return c.commit(next, nil), nil
}

// Append adds a new item at the tail of the chain and recomputes.
func (c *Chain) Append(item domain.ScheduleItem) ([]string, error) {
	if c.indexOf(item.ID) >= 0 {
		return nil, domain.NewValidationError("id", "item %s is already in the chain", item.ID)
	}
	item = item.Clone()
	item.ResourceKey = c.key.ResourceKey
	item.FiscalYear = c.key.FiscalYear
	item.Order = len(c.items)
	item.ClosedAt = nil
	if item.AssignedAt.IsZero() {
		item.AssignedAt = c.now()
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	next := append(domain.CloneItems(c.items), item)
	return c.commit(next, nil), nil
}

// Close removes an item from the active chain, stamping ClosedAt on the
// returned copy. The closed item keeps its last resolved dates; the rest of
// the chain is renumbered and recomputed.
func (c *Chain) Close(itemID string, at time.Time) (domain.ScheduleItem, []string, error) {
	i := c.indexOf(itemID)
	if i < 0 {
		return domain.ScheduleItem{}, nil, fmt.Errorf("close %s: %w", itemID, domain.ErrNotFound)
	}
	closed := c.items[i].Clone()
	closedAt := at.UTC()
	closed.ClosedAt = &closedAt

	next := make([]domain.ScheduleItem, 0, len(c.items)-1)
	for j, it := range c.items {
		if j != i {
			next = append(next, it.Clone())
		}
	}
	renumber(next)
	return closed, c.commit(next, nil), nil
}

// commit recomputes next and installs it as the chain's items.
func (c *Chain) commit(next []domain.ScheduleItem, override *time.Time) []string {
	out := scheduler.Recompute(next, c.cal, override)
	changed := scheduler.Diff(c.items, out)
	c.items = out
	return changed
}

func (c *Chain) indexOf(itemID string) int {
	for i := range c.items {
		if c.items[i].ID == itemID {
			return i
		}
	}
	return -1
}
