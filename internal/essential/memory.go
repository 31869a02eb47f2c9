package essential

import (
	"context"
	"slices"
	"sync"

	"github.com/specialistvlad/stategrid/internal/ctxlog"
	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/specialistvlad/stategrid/internal/value"
	"github.com/zclconf/go-cty/cty"
)

// Memory is an in-memory Store backed by sync.Map. It is ephemeral: one
// per document, discarded with it.
type Memory struct {
	values sync.Map // Key: nodeid.Key, Value: cty.Value
}

// NewMemory creates a new, empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

// Get returns the stored value for key.
func (m *Memory) Get(ctx context.Context, key nodeid.Key) (cty.Value, bool) {
	v, ok := m.values.Load(key)
	if !ok {
		return cty.NilVal, false
	}
	return v.(cty.Value), true
}

// Set stores v under key. Engine marks are stripped first.
func (m *Memory) Set(ctx context.Context, key nodeid.Key, v cty.Value) error {
	ctxlog.FromContext(ctx).Debug("Essential value stored.", "key", key.String(), "value", value.Format(v))
	m.values.Store(key, value.Clean(v))
	return nil
}

// Delete removes key.
func (m *Memory) Delete(ctx context.Context, key nodeid.Key) error {
	m.values.Delete(key)
	return nil
}

// DeleteComponent removes every value owned by id.
func (m *Memory) DeleteComponent(ctx context.Context, id nodeid.ComponentID) []nodeid.Key {
	var removed []nodeid.Key
	m.values.Range(func(k, _ any) bool {
		key := k.(nodeid.Key)
		if key.Component == id {
			removed = append(removed, key)
		}
		return true
	})
	for _, key := range removed {
		m.values.Delete(key)
	}
	sortKeys(removed)
	if len(removed) > 0 {
		ctxlog.FromContext(ctx).Debug("Essential values discarded.", "component", id.String(), "count", len(removed))
	}
	return removed
}

// Keys returns every stored key.
func (m *Memory) Keys(ctx context.Context) []nodeid.Key {
	var out []nodeid.Key
	m.values.Range(func(k, _ any) bool {
		out = append(out, k.(nodeid.Key))
		return true
	})
	sortKeys(out)
	return out
}

func sortKeys(keys []nodeid.Key) {
	slices.SortFunc(keys, func(a, b nodeid.Key) int {
		switch {
		case a.Less(b):
			return -1
		case b.Less(a):
			return 1
		}
		return 0
	})
}
