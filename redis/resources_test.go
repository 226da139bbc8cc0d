package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/restaurant-directory/logger"
)

// newTestStore sets up a fresh instance of miniredis and returns a config and
// client bound to it.
func newTestStore(t *testing.T) (RedisConfig, RedisClient) {
	logger.New("NOOP")
	t.Cleanup(logger.OnExit)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := NewSingleNodeConfig(logger.Sugar, mr.Addr(), "testns")
	return cfg, client
}

func TestHashResourceRoundtrip(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewHashResource(cfg, client, "restaurants")

	assert.Equal(t, "testns:restaurants:r1", r.Key("r1"))

	err := r.Set(context.TODO(), "r1", map[string]any{
		"name":    "The Blue Door",
		"address": "12 Harbour St",
	})
	require.NoError(t, err)

	fields, err := r.Get(context.TODO(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "The Blue Door", fields["name"])
	assert.Equal(t, "12 Harbour St", fields["address"])

	name, err := r.GetField(context.TODO(), "r1", "name")
	require.NoError(t, err)
	assert.Equal(t, "The Blue Door", name)
}

func TestHashResourceMissingRecordIsNotFound(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewHashResource(cfg, client, "restaurants")

	_, err := r.Get(context.TODO(), "absent")
	require.Error(t, err)
	assert.True(t, NotFound(err))

	_, err = r.GetField(context.TODO(), "absent", "name")
	require.Error(t, err)
	assert.True(t, NotFound(err))
}

func TestHashResourceCounters(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewHashResource(cfg, client, "restaurants")

	count, err := r.IncrBy(context.TODO(), "r1", "review_count", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	sum, err := r.IncrByFloat(context.TODO(), "r1", "rating_sum", 4.5)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, sum, 0.0001)

	sum, err = r.IncrByFloat(context.TODO(), "r1", "rating_sum", -4.5)
	require.NoError(t, err)
	assert.InDelta(t, 0, sum, 0.0001)
}

func TestHashResourceDelete(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewHashResource(cfg, client, "restaurants")

	require.NoError(t, r.Set(context.TODO(), "r1", map[string]any{"name": "gone soon"}))

	exists, err := r.Exists(context.TODO(), "r1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, r.Delete(context.TODO(), "r1"))

	exists, err = r.Exists(context.TODO(), "r1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSetResourceMembership(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewSetResource(cfg, client, "cuisines")

	// the bare key addresses the catalogue itself
	assert.Equal(t, "testns:cuisines", r.Key(""))
	assert.Equal(t, "testns:cuisines:thai", r.Key("thai"))

	require.NoError(t, r.Add(context.TODO(), "", "thai", "mexican"))
	require.NoError(t, r.Add(context.TODO(), "thai", "r1", "r2"))

	members, err := r.Members(context.TODO(), "thai")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"r1", "r2"}, members)

	ok, err := r.IsMember(context.TODO(), "", "mexican")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, r.Remove(context.TODO(), "thai", "r2"))
	n, err := r.Size(context.TODO(), "thai")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestSortedSetResourceDescendingPages(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewSortedSetResource(cfg, client, "rankings")

	require.NoError(t, r.Add(context.TODO(), "rating", "low", 1.5))
	require.NoError(t, r.Add(context.TODO(), "rating", "mid", 3.0))
	require.NoError(t, r.Add(context.TODO(), "rating", "high", 4.8))

	page, err := r.Descending(context.TODO(), "rating", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "mid"}, page)

	page, err = r.Descending(context.TODO(), "rating", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"low"}, page)

	// offset past the end is an empty page, not an error
	page, err = r.Descending(context.TODO(), "rating", 10, 2)
	require.NoError(t, err)
	assert.Empty(t, page)

	scored, err := r.DescendingWithScores(context.TODO(), "rating", 0, 1)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.Equal(t, "high", scored[0].Member)
	assert.InDelta(t, 4.8, scored[0].Score, 0.0001)
}

func TestSortedSetResourceScoreUpdates(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewSortedSetResource(cfg, client, "rankings")

	require.NoError(t, r.Add(context.TODO(), "rating", "r1", 0))
	require.NoError(t, r.Add(context.TODO(), "rating", "r1", 4.0))

	score, err := r.Score(context.TODO(), "rating", "r1")
	require.NoError(t, err)
	assert.InDelta(t, 4.0, score, 0.0001)

	require.NoError(t, r.Remove(context.TODO(), "rating", "r1"))
	_, err = r.Score(context.TODO(), "rating", "r1")
	assert.True(t, NotFound(err))
}

func TestListResourceNewestFirst(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewListResource(cfg, client, "reviews")

	require.NoError(t, r.Push(context.TODO(), "r1", "first"))
	require.NoError(t, r.Push(context.TODO(), "r1", "second"))
	require.NoError(t, r.Push(context.TODO(), "r1", "third"))

	page, err := r.Page(context.TODO(), "r1", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"third", "second"}, page)

	n, err := r.Remove(context.TODO(), "r1", "second")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	length, err := r.Length(context.TODO(), "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

func TestCommandObserverCounts(t *testing.T) {
	cfg, client := newTestStore(t)
	r := NewHashResource(cfg, client, "restaurants")

	counts := map[string]int{}
	SetCommandObserver(func(structure, operation string) {
		counts[structure+"."+operation]++
	})
	t.Cleanup(func() { SetCommandObserver(nil) })

	require.NoError(t, r.Set(context.TODO(), "r1", map[string]any{"name": "The Blue Door"}))
	_, err := r.Get(context.TODO(), "r1")
	require.NoError(t, err)
	_, err = r.Get(context.TODO(), "r1")
	require.NoError(t, err)

	assert.Equal(t, 1, counts["hash.HSet"])
	assert.Equal(t, 2, counts["hash.HGetAll"])
}
