package redis

// Namespaced wrapper of the store's sorted set structure. The rating ranking
// lives here; the score is always written by the caller, never derived.

import (
	"context"

	"github.com/go-redis/redis/v8"
)

type ScoredMember struct {
	Member string
	Score  float64
}

type SortedSetResource struct {
	ClientContext
	client    RedisClient
	keyPrefix string
}

func NewSortedSetResource(cfg RedisConfig, client RedisClient, name string) *SortedSetResource {
	return &SortedSetResource{
		ClientContext: ClientContext{cfg: cfg, name: name},
		client:        client,
		keyPrefix:     prefix(cfg, name),
	}
}

// Key gets the full key for a ranking id. An empty id addresses the bare
// resource ranking.
func (r *SortedSetResource) Key(id string) string {
	if id == "" {
		return r.keyPrefix
	}
	return r.keyPrefix + namespaceSeparator + id
}

func (r *SortedSetResource) Add(ctx context.Context, id string, member string, score float64) error {
	span, ctx := startSpan(ctx, "zset", "ZAdd")
	defer span.Finish()

	key := r.Key(id)
	_, err := r.client.ZAdd(ctx, key, &redis.Z{Score: score, Member: member}).Result()
	if err != nil {
		return DoError(err, key)
	}
	return nil
}

func (r *SortedSetResource) Remove(ctx context.Context, id string, member string) error {
	span, ctx := startSpan(ctx, "zset", "ZRem")
	defer span.Finish()

	key := r.Key(id)
	_, err := r.client.ZRem(ctx, key, member).Result()
	if err != nil {
		return DoError(err, key)
	}
	return nil
}

func (r *SortedSetResource) Score(ctx context.Context, id string, member string) (float64, error) {
	span, ctx := startSpan(ctx, "zset", "ZScore")
	defer span.Finish()

	key := r.Key(id)
	score, err := r.client.ZScore(ctx, key, member).Result()
	if err != nil {
		return 0, AsNotFound(err, key)
	}
	return score, nil
}

// Descending returns a page of members in descending score order.
func (r *SortedSetResource) Descending(ctx context.Context, id string, offset, count int64) ([]string, error) {
	span, ctx := startSpan(ctx, "zset", "ZRevRange")
	defer span.Finish()

	key := r.Key(id)
	members, err := r.client.ZRevRange(ctx, key, offset, offset+count-1).Result()
	if err != nil {
		return nil, DoError(err, key)
	}
	return members, nil
}

// DescendingWithScores returns a page of members and their scores in
// descending score order.
func (r *SortedSetResource) DescendingWithScores(ctx context.Context, id string, offset, count int64) ([]ScoredMember, error) {
	span, ctx := startSpan(ctx, "zset", "ZRevRangeWithScores")
	defer span.Finish()

	key := r.Key(id)
	zs, err := r.client.ZRevRangeWithScores(ctx, key, offset, offset+count-1).Result()
	if err != nil {
		return nil, DoError(err, key)
	}
	members := make([]ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, BadReplyError(key, "non string member")
		}
		members = append(members, ScoredMember{Member: member, Score: z.Score})
	}
	return members, nil
}

func (r *SortedSetResource) Size(ctx context.Context, id string) (int64, error) {
	span, ctx := startSpan(ctx, "zset", "ZCard")
	defer span.Finish()

	key := r.Key(id)
	n, err := r.client.ZCard(ctx, key).Result()
	if err != nil {
		return 0, DoError(err, key)
	}
	return n, nil
}
