package redis

// Namespaced wrapper of the store's hash structure. Restaurant and review
// records are held as hashes; nothing in here interprets the fields.

import (
	"context"
)

type HashResource struct {
	ClientContext
	client    RedisClient
	keyPrefix string
}

// NewHashResource wraps the hash structure for one record family. The client
// is shared between resources so multi-structure updates can be pipelined on
// one connection pool.
func NewHashResource(cfg RedisConfig, client RedisClient, name string) *HashResource {
	return &HashResource{
		ClientContext: ClientContext{cfg: cfg, name: name},
		client:        client,
		keyPrefix:     prefix(cfg, name),
	}
}

// Key gets the full record key for an id
func (r *HashResource) Key(id string) string {
	return r.keyPrefix + namespaceSeparator + id
}

func (r *HashResource) Set(ctx context.Context, id string, fields map[string]any) error {
	log := r.Log().FromContext(ctx)
	defer log.Close()

	span, ctx := startSpan(ctx, "hash", "HSet")
	defer span.Finish()

	key := r.Key(id)
	_, err := r.client.HSet(ctx, key, flatten(fields)...).Result()
	if err != nil {
		return DoError(err, key)
	}
	log.Debugf("HSet %s %d fields", key, len(fields))
	return nil
}

// Get returns all fields of the record. A missing record is ErrNotFound: the
// store returns an empty map rather than a nil reply for absent hashes.
func (r *HashResource) Get(ctx context.Context, id string) (map[string]string, error) {
	span, ctx := startSpan(ctx, "hash", "HGetAll")
	defer span.Finish()

	key := r.Key(id)
	fields, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, DoError(err, key)
	}
	if len(fields) == 0 {
		return nil, AsNotFound(ErrNotFound, key)
	}
	return fields, nil
}

func (r *HashResource) GetField(ctx context.Context, id, field string) (string, error) {
	span, ctx := startSpan(ctx, "hash", "HGet")
	defer span.Finish()

	key := r.Key(id)
	value, err := r.client.HGet(ctx, key, field).Result()
	if err != nil {
		return "", AsNotFound(err, key)
	}
	return value, nil
}

func (r *HashResource) IncrBy(ctx context.Context, id, field string, n int64) (int64, error) {
	span, ctx := startSpan(ctx, "hash", "HIncrBy")
	defer span.Finish()

	key := r.Key(id)
	value, err := r.client.HIncrBy(ctx, key, field, n).Result()
	if err != nil {
		return 0, DoError(err, key)
	}
	return value, nil
}

func (r *HashResource) IncrByFloat(ctx context.Context, id, field string, n float64) (float64, error) {
	span, ctx := startSpan(ctx, "hash", "HIncrByFloat")
	defer span.Finish()

	key := r.Key(id)
	value, err := r.client.HIncrByFloat(ctx, key, field, n).Result()
	if err != nil {
		return 0, DoError(err, key)
	}
	return value, nil
}

func (r *HashResource) Exists(ctx context.Context, id string) (bool, error) {
	span, ctx := startSpan(ctx, "hash", "Exists")
	defer span.Finish()

	key := r.Key(id)
	n, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, DoError(err, key)
	}
	return n > 0, nil
}

func (r *HashResource) Delete(ctx context.Context, id string) error {
	log := r.Log().FromContext(ctx)
	defer log.Close()

	span, ctx := startSpan(ctx, "hash", "Del")
	defer span.Finish()

	key := r.Key(id)
	// DEL deletes the hash (HDEL would delete a field)
	_, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return DoError(err, key)
	}
	log.Debugf("Del %s", key)
	return nil
}

// flatten converts a field map to the alternating field/value form HSET takes.
func flatten(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for field, value := range fields {
		args = append(args, field, value)
	}
	return args
}
