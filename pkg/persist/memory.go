package persist

import (
	"context"
	"maps"
	"sync"

	"github.com/matzehuels/refboard/pkg/board"
)

// MemoryStore keeps synced state in memory.
type MemoryStore struct {
	mu        sync.Mutex
	orders    map[string]SectionOrder
	positions map[string]map[string]board.FreeformPosition
	deleted   map[string]bool
	fail      error
	writes    int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orders:    make(map[string]SectionOrder),
		positions: make(map[string]map[string]board.FreeformPosition),
		deleted:   make(map[string]bool),
	}
}

// SetFailure makes every following write return err. Pass nil to recover.
func (m *MemoryStore) SetFailure(err error) {
	m.mu.Lock()
	m.fail = err
	m.mu.Unlock()
}

func (m *MemoryStore) SyncColumnOrder(ctx context.Context, order SectionOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.fail != nil {
		return m.fail
	}
	order.Blocks = append([]BlockOrder(nil), order.Blocks...)
	m.orders[order.SectionID] = order
	return nil
}

func (m *MemoryStore) SyncFreeformPositions(ctx context.Context, sectionID string, positions map[string]board.FreeformPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.fail != nil {
		return m.fail
	}
	m.positions[sectionID] = maps.Clone(positions)
	return nil
}

func (m *MemoryStore) SetDeleted(ctx context.Context, ids []string, deleted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.fail != nil {
		return m.fail
	}
	for _, id := range ids {
		m.deleted[id] = deleted
	}
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// Order returns the last synced column order of a section.
func (m *MemoryStore) Order(sectionID string) (SectionOrder, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[sectionID]
	return o, ok
}

// Positions returns the last synced freeform positions of a section.
func (m *MemoryStore) Positions(sectionID string) map[string]board.FreeformPosition {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.positions[sectionID])
}

// Deleted returns the synced soft-delete flag of a block.
func (m *MemoryStore) Deleted(id string) (deleted, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted, ok = m.deleted[id]
	return deleted, ok
}

// Writes returns the number of write calls received, failed ones included.
func (m *MemoryStore) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
