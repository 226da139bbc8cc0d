package redis

// Namespaced wrapper of the store's set structure. Cuisine membership, the
// cuisine catalogue and per-session favourites are all plain sets.

import (
	"context"
)

type SetResource struct {
	ClientContext
	client    RedisClient
	keyPrefix string
}

func NewSetResource(cfg RedisConfig, client RedisClient, name string) *SetResource {
	return &SetResource{
		ClientContext: ClientContext{cfg: cfg, name: name},
		client:        client,
		keyPrefix:     prefix(cfg, name),
	}
}

// Key gets the full set key for an id. An empty id addresses the bare
// resource set (the cuisine catalogue has no sub-key).
func (r *SetResource) Key(id string) string {
	if id == "" {
		return r.keyPrefix
	}
	return r.keyPrefix + namespaceSeparator + id
}

func (r *SetResource) Add(ctx context.Context, id string, members ...any) error {
	span, ctx := startSpan(ctx, "set", "SAdd")
	defer span.Finish()

	key := r.Key(id)
	_, err := r.client.SAdd(ctx, key, members...).Result()
	if err != nil {
		return DoError(err, key)
	}
	return nil
}

func (r *SetResource) Remove(ctx context.Context, id string, members ...any) error {
	span, ctx := startSpan(ctx, "set", "SRem")
	defer span.Finish()

	key := r.Key(id)
	_, err := r.client.SRem(ctx, key, members...).Result()
	if err != nil {
		return DoError(err, key)
	}
	return nil
}

func (r *SetResource) Members(ctx context.Context, id string) ([]string, error) {
	span, ctx := startSpan(ctx, "set", "SMembers")
	defer span.Finish()

	key := r.Key(id)
	members, err := r.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, DoError(err, key)
	}
	return members, nil
}

func (r *SetResource) IsMember(ctx context.Context, id string, member any) (bool, error) {
	span, ctx := startSpan(ctx, "set", "SIsMember")
	defer span.Finish()

	key := r.Key(id)
	ok, err := r.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, DoError(err, key)
	}
	return ok, nil
}

func (r *SetResource) Size(ctx context.Context, id string) (int64, error) {
	span, ctx := startSpan(ctx, "set", "SCard")
	defer span.Finish()

	key := r.Key(id)
	n, err := r.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, DoError(err, key)
	}
	return n, nil
}

func (r *SetResource) Delete(ctx context.Context, id string) error {
	span, ctx := startSpan(ctx, "set", "Del")
	defer span.Finish()

	key := r.Key(id)
	_, err := r.client.Del(ctx, key).Result()
	if err != nil {
		return DoError(err, key)
	}
	return nil
}
