// Package essential defines the storage of essential values: state
// variables with no derivation, whose only writer is the update coordinator.
//
// # Why a Separate Store
//
// The dependency graph caches derived values that can always be recomputed.
// Essential values cannot: they are what a user typed, dragged or toggled.
// Keeping them out of the graph means the graph can drop and rebuild nodes
// freely (a composite tearing down a replacement, a node re-declaring its
// edges) while the store decides exactly when user state is created and
// destroyed.
//
// # Lifecycle
//
//  1. **Absent** until the first write. Readers fall back to the variable's
//     default, so author-supplied initial values never need to be copied.
//  2. **Written** by the update coordinator, inside a Journal so that a
//     failed atomic update can restore every previous value.
//  3. **Destroyed** with the owning component (DeleteComponent), when a
//     composite tears a replacement down.
package essential

import (
	"context"

	"github.com/specialistvlad/stategrid/internal/nodeid"
	"github.com/zclconf/go-cty/cty"
)

// Store is the interface for essential value storage.
//
// Thread-safety: implementations must be safe for concurrent use.
type Store interface {
	// Get returns the stored value and whether one exists.
	Get(ctx context.Context, key nodeid.Key) (cty.Value, bool)

	// Set stores a value.
	Set(ctx context.Context, key nodeid.Key, v cty.Value) error

	// Delete removes a stored value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key nodeid.Key) error

	// DeleteComponent removes every value owned by a component and returns
	// the removed keys.
	DeleteComponent(ctx context.Context, id nodeid.ComponentID) []nodeid.Key

	// Keys returns every stored key in key order.
	Keys(ctx context.Context) []nodeid.Key
}
