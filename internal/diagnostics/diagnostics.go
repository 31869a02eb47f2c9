// Package diagnostics collects the author-facing problems of a document.
//
// Definition cycles, failed composite expansions and failing attribute
// expressions are recovered where they happen and recorded here once, so a
// problem is reported when it is found rather than on every read.
package diagnostics

import (
	"context"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/stategrid/internal/ctxlog"
)

// Collector accumulates deduplicated diagnostics.
type Collector struct {
	mu    sync.Mutex
	diags hcl.Diagnostics
	seen  map[string]bool
}

// New creates an empty collector.
func New() *Collector {
	return &Collector{seen: make(map[string]bool)}
}

// Add records d unless a diagnostic with the same key was already recorded.
// It reports whether d was new. New diagnostics are logged at Warn.
func (c *Collector) Add(ctx context.Context, key string, d *hcl.Diagnostic) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seen[key] {
		return false
	}
	c.seen[key] = true
	c.diags = append(c.diags, d)
	ctxlog.FromContext(ctx).Warn(d.Summary, "detail", d.Detail)
	return true
}

// Forget drops the deduplication record of key, so the problem is reported
// again if it reappears.
func (c *Collector) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.seen, key)
}

// All returns a copy of every recorded diagnostic.
func (c *Collector) All() hcl.Diagnostics {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(hcl.Diagnostics, len(c.diags))
	copy(out, c.diags)
	return out
}

// Len returns the number of recorded diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.diags)
}
