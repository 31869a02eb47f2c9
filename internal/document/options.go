package document

import (
	"github.com/specialistvlad/stategrid/internal/essential"
	"github.com/specialistvlad/stategrid/internal/events"
	"github.com/specialistvlad/stategrid/internal/sampler"
)

// DefaultSubscriptionBuffer is the channel capacity of a subscription.
const DefaultSubscriptionBuffer = 64

type options struct {
	seed      uint64
	samplers  sampler.Factory
	collector events.Collector
	store     essential.Store
	atomic    bool
	buffer    int
}

func defaultOptions() options {
	return options{atomic: true, buffer: DefaultSubscriptionBuffer}
}

// Option configures a Document.
type Option func(*options)

// WithSeed seeds the default sampler. Documents with the same seed make the
// same random choices.
func WithSeed(seed uint64) Option {
	return func(o *options) { o.seed = seed }
}

// WithSamplers replaces the sampler factory, overriding WithSeed.
func WithSamplers(f sampler.Factory) Option {
	return func(o *options) { o.samplers = f }
}

// WithCollector sends interaction events to c.
func WithCollector(c events.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithStore replaces the in-memory essential store.
func WithStore(s essential.Store) Option {
	return func(o *options) { o.store = s }
}

// WithAtomic sets whether updates roll back on failure when the request
// does not say otherwise. Updates are atomic by default.
func WithAtomic(atomic bool) Option {
	return func(o *options) { o.atomic = atomic }
}

// WithSubscriptionBuffer sets the channel capacity of new subscriptions.
func WithSubscriptionBuffer(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.buffer = n
		}
	}
}
