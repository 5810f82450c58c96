package cart

import (
	"sync"

	"github.com/gofrs/uuid"
)

// Selection is the ephemeral set of line item ids a view session has checked
// for bulk actions. It is never persisted. A selection obtained from
// Service.NewSelection is kept consistent with the ledger: removed items are
// evicted, so the set never holds a dangling id.
type Selection struct {
	mu      sync.Mutex
	ids     map[uuid.UUID]struct{}
	release func()
}

func newSelection() *Selection {
	return &Selection{ids: make(map[uuid.UUID]struct{})}
}

// Toggle flips membership of id.
func (s *Selection) Toggle(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ids[id]; ok {
		delete(s.ids, id)
	} else {
		s.ids[id] = struct{}{}
	}
}

// ToggleAll selects every id in allIDs unless all of them are already
// selected, in which case it clears the selection.
func (s *Selection) ToggleAll(allIDs []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == len(allIDs) && len(allIDs) > 0 {
		s.ids = make(map[uuid.UUID]struct{})
		return
	}
	s.ids = make(map[uuid.UUID]struct{}, len(allIDs))
	for _, id := range allIDs {
		s.ids[id] = struct{}{}
	}
}

func (s *Selection) Has(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[id]
	return ok
}

func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// IDs returns the selected ids in unspecified order.
func (s *Selection) IDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	return ids
}

func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[uuid.UUID]struct{})
}

// Release detaches the selection from the cart service. Call it exactly once
// when the owning view session ends; further calls are no-ops.
func (s *Selection) Release() {
	if s.release != nil {
		s.release()
		s.release = nil
	}
}

func (s *Selection) evict(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ids, id)
}

// SelectedTotal sums cached prices over the selected subset of items.
func SelectedTotal(items []Item, sel *Selection) float64 {
	total := 0.0
	for _, item := range items {
		if sel.Has(item.ID) {
			total += item.Price
		}
	}
	return total
}

// SelectedUnitCount sums quantities over the selected subset of items.
func SelectedUnitCount(items []Item, sel *Selection) int {
	count := 0
	for _, item := range items {
		if sel.Has(item.ID) {
			count += item.Quantity
		}
	}
	return count
}
