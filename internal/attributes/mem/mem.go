package mem

import (
	"context"
	"maps"
	"slices"
	"sync"

	"persondir.systems/persondir/internal/attributes"
)

// MemoryStore keeps people in memory keyed by the value of the key attribute.
type MemoryStore struct {
	mu     sync.RWMutex
	key    string
	people map[string]map[string][]any
}

func NewMemoryStore(key string) *MemoryStore {
	if key == "" {
		key = attributes.DefaultAttributeName
	}
	return &MemoryStore{key: key, people: make(map[string]map[string][]any)}
}

func (m *MemoryStore) Lookup(_ context.Context, seed map[string][]any) (map[string][]any, error) {
	if err := attributes.CheckSeed(seed); err != nil {
		return nil, err
	}
	uid, ok := attributes.SeedUID(seed, m.key)
	if !ok {
		return nil, nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	person, ok := m.people[uid]
	if !ok {
		return nil, nil
	}
	result := make(map[string][]any, len(person))
	for k, v := range person {
		result[k] = slices.Clone(v)
	}
	return result, nil
}

func (m *MemoryStore) PossibleAttributeNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := []string{}
	for _, p := range m.people {
		names = slices.AppendSeq(names, maps.Keys(p))
	}
	return attributes.NewNameSet(names...)
}

// Add stores attrs for uid, replacing anything stored before.
func (m *MemoryStore) Add(uid string, attrs map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people[uid] = attributes.ToMultivalued(maps.Clone(attrs))
	if m.people[uid] == nil {
		m.people[uid] = map[string][]any{}
	}
}
