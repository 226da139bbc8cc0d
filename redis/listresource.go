package redis

// Namespaced wrapper of the store's list structure. Review ids are kept in a
// per-restaurant list, newest first.

import (
	"context"
)

type ListResource struct {
	ClientContext
	client    RedisClient
	keyPrefix string
}

func NewListResource(cfg RedisConfig, client RedisClient, name string) *ListResource {
	return &ListResource{
		ClientContext: ClientContext{cfg: cfg, name: name},
		client:        client,
		keyPrefix:     prefix(cfg, name),
	}
}

func (r *ListResource) Key(id string) string {
	return r.keyPrefix + namespaceSeparator + id
}

// Push prepends values so a LRANGE page reads newest first.
func (r *ListResource) Push(ctx context.Context, id string, values ...any) error {
	span, ctx := startSpan(ctx, "list", "LPush")
	defer span.Finish()

	key := r.Key(id)
	_, err := r.client.LPush(ctx, key, values...).Result()
	if err != nil {
		return DoError(err, key)
	}
	return nil
}

func (r *ListResource) Page(ctx context.Context, id string, offset, count int64) ([]string, error) {
	span, ctx := startSpan(ctx, "list", "LRange")
	defer span.Finish()

	key := r.Key(id)
	values, err := r.client.LRange(ctx, key, offset, offset+count-1).Result()
	if err != nil {
		return nil, DoError(err, key)
	}
	return values, nil
}

// All returns the whole list, newest first.
func (r *ListResource) All(ctx context.Context, id string) ([]string, error) {
	span, ctx := startSpan(ctx, "list", "LRange")
	defer span.Finish()

	key := r.Key(id)
	values, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, DoError(err, key)
	}
	return values, nil
}

// Remove deletes every occurrence of value from the list.
func (r *ListResource) Remove(ctx context.Context, id string, value any) (int64, error) {
	span, ctx := startSpan(ctx, "list", "LRem")
	defer span.Finish()

	key := r.Key(id)
	n, err := r.client.LRem(ctx, key, 0, value).Result()
	if err != nil {
		return 0, DoError(err, key)
	}
	return n, nil
}

func (r *ListResource) Length(ctx context.Context, id string) (int64, error) {
	span, ctx := startSpan(ctx, "list", "LLen")
	defer span.Finish()

	key := r.Key(id)
	n, err := r.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, DoError(err, key)
	}
	return n, nil
}

func (r *ListResource) Delete(ctx context.Context, id string) error {
	span, ctx := startSpan(ctx, "list", "Del")
	defer span.Finish()

	key := r.Key(id)
	_, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return DoError(err, key)
	}
	return nil
}
