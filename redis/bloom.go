package redis

// Probabilistic membership filter provided by the store's filter module. The
// filter answers "definitely new" or "probably seen"; it never forgets an
// item, so deletes leave fingerprints behind. Callers must treat Exists as
// advisory.
//
// The go-redis v8 client has no typed bindings for the module so the commands
// go through the generic Do, same pattern as the document and search
// resources.

import (
	"context"
	"fmt"
	"strings"
)

const (
	defaultFilterErrorRate = 0.001
	defaultFilterCapacity  = 100000
)

type BloomFilter struct {
	ClientContext
	client    Client
	key       string
	errorRate float64
	capacity  int64
}

type BloomFilterOption func(*BloomFilter)

func WithFilterErrorRate(rate float64) BloomFilterOption {
	return func(f *BloomFilter) {
		f.errorRate = rate
	}
}

func WithFilterCapacity(capacity int64) BloomFilterOption {
	return func(f *BloomFilter) {
		f.capacity = capacity
	}
}

func NewBloomFilter(cfg RedisConfig, client Client, name string, opts ...BloomFilterOption) *BloomFilter {
	f := &BloomFilter{
		ClientContext: ClientContext{cfg: cfg, name: name},
		client:        client,
		key:           prefix(cfg, name),
		errorRate:     defaultFilterErrorRate,
		capacity:      defaultFilterCapacity,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *BloomFilter) Key() string {
	return f.key
}

// Reserve creates the filter with the configured sizing. Safe to call on
// every boot: an already existing filter is not an error.
func (f *BloomFilter) Reserve(ctx context.Context) error {
	log := f.Log().FromContext(ctx)
	defer log.Close()

	span, ctx := startSpan(ctx, "bloom", "Reserve")
	defer span.Finish()

	_, err := f.client.Do(ctx, "BF.RESERVE", f.key, fmt.Sprintf("%g", f.errorRate), f.capacity).Result()
	if err != nil {
		if strings.Contains(err.Error(), "exists") {
			log.Debugf("Reserve: filter %s already exists", f.key)
			return nil
		}
		return DoError(err, f.key)
	}
	log.Debugf("Reserve: created filter %s rate=%g capacity=%d", f.key, f.errorRate, f.capacity)
	return nil
}

// Add records an item fingerprint. Returns false when the filter judged the
// item already present.
func (f *BloomFilter) Add(ctx context.Context, item string) (bool, error) {
	span, ctx := startSpan(ctx, "bloom", "Add")
	defer span.Finish()

	added, err := f.client.Do(ctx, "BF.ADD", f.key, item).Int64()
	if err != nil {
		return false, DoError(err, f.key)
	}
	return added == 1, nil
}

// Exists reports whether the item was probably added before. False positives
// occur at the configured error rate; false negatives never.
func (f *BloomFilter) Exists(ctx context.Context, item string) (bool, error) {
	span, ctx := startSpan(ctx, "bloom", "Exists")
	defer span.Finish()

	present, err := f.client.Do(ctx, "BF.EXISTS", f.key, item).Int64()
	if err != nil {
		return false, DoError(err, f.key)
	}
	return present == 1, nil
}
