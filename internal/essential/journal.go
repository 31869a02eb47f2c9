package essential

import (
	"context"
	"fmt"

	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Journal records the writes of one update so that they can be undone.
// Only the first write of a key is recorded: rolling back restores the value
// the key had before the update started.
type Journal struct {
	store    Store
	entries  []journalEntry
	seen     map[nodeid.Key]bool
	undo     []func()
	finished bool
}

type journalEntry struct {
	key      nodeid.Key
	previous cty.Value
	existed  bool
}

// NewJournal starts a journal over store.
func NewJournal(store Store) *Journal {
	return &Journal{store: store, seen: make(map[nodeid.Key]bool)}
}

// Set writes through to the store, recording the previous value.
func (j *Journal) Set(ctx context.Context, key nodeid.Key, v cty.Value) error {
	if j.finished {
		return fmt.Errorf("journal already finished, cannot write %s", key)
	}
	if !j.seen[key] {
		prev, existed := j.store.Get(ctx, key)
		j.entries = append(j.entries, journalEntry{key: key, previous: prev, existed: existed})
		j.seen[key] = true
	}
	return j.store.Set(ctx, key, v)
}

// OnRollback registers an extra undo step, run in reverse registration
// order after the store has been restored.
func (j *Journal) OnRollback(fn func()) {
	j.undo = append(j.undo, fn)
}

// Keys returns every key written through the journal, in write order.
func (j *Journal) Keys() []nodeid.Key {
	out := make([]nodeid.Key, len(j.entries))
	for i, e := range j.entries {
		out[i] = e.key
	}
	return out
}

// Rollback restores every recorded key and runs the undo steps. It returns
// the restored keys.
func (j *Journal) Rollback(ctx context.Context) ([]nodeid.Key, error) {
	if j.finished {
		return nil, nil
	}
	j.finished = true
	var firstErr error
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		var err error
		if e.existed {
			err = j.store.Set(ctx, e.key, e.previous)
		} else {
			err = j.store.Delete(ctx, e.key)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("restore %s: %w", e.key, err)
		}
	}
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	return j.Keys(), firstErr
}

// Commit finishes the journal, keeping every write.
func (j *Journal) Commit() {
	j.finished = true
}
