package directory

// The in-process test server covers the core structures (hashes, sets,
// sorted sets, lists) so the composed operations run against it directly.
// Module commands (filter, documents, search) are not implemented by it and
// are exercised through a mocked client instead.

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tablekit/restaurant-directory/errhandling"
	"github.com/tablekit/restaurant-directory/logger"
	"github.com/tablekit/restaurant-directory/redis"
)

func newTestEnv(t *testing.T) (redis.RedisConfig, redis.RedisClient) {
	logger.New("NOOP")
	t.Cleanup(logger.OnExit)

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewSingleNodeConfig(logger.Sugar, mr.Addr(), "testns"), client
}

// moduleClient mocks the narrow client surface the filter, document and
// search resources use.
type moduleClient struct {
	mock.Mock
}

func (m *moduleClient) Do(ctx context.Context, args ...any) *goredis.Cmd {
	arguments := m.Called(args...)
	return arguments.Get(0).(*goredis.Cmd)
}

func (m *moduleClient) Close() error {
	return m.Called().Error(0)
}

func TestCreateAndGetRestaurant(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{
		Name:     " Pizza Town ",
		Address:  "1 Main Street",
		Cuisines: []string{"Pizza", " italian ", "pizza"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "Pizza Town", created.Name)
	assert.Equal(t, []string{"italian", "pizza"}, created.Cuisines)

	fetched, err := store.GetRestaurant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, "1 Main Street", fetched.Address)
	assert.Equal(t, []string{"italian", "pizza"}, fetched.Cuisines)
	assert.Zero(t, fetched.AverageRating)
	assert.Zero(t, fetched.ReviewCount)

	// registration seeds the ranking and the cuisine catalogue
	listed, err := store.ListRestaurants(ctx, Page{Offset: 0, Count: 10})
	require.NoError(t, err)
	require.Len(t, listed.Restaurants, 1)

	cuisines, err := store.ListCuisines(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"italian", "pizza"}, cuisines)
}

func TestCreateRestaurantValidation(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	_, err := store.CreateRestaurant(ctx, CreateRestaurant{Address: "1 Main Street"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestCreateRestaurantDuplicateScreening(t *testing.T) {
	cfg, client := newTestEnv(t)
	ctx := context.Background()

	mc := &moduleClient{}
	filter := redis.NewBloomFilter(cfg, mc, "dedupe:restaurants")
	store := NewStore(cfg, client, WithDedupeFilter(filter))

	// first registration is judged new and fingerprinted
	mc.On("Do", "BF.EXISTS", filter.Key(), "pizza town|1 main street").
		Return(goredis.NewCmdResult(int64(0), nil)).Once()
	mc.On("Do", "BF.ADD", filter.Key(), "pizza town|1 main street").
		Return(goredis.NewCmdResult(int64(1), nil)).Once()

	_, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town", Address: "1 Main Street"})
	require.NoError(t, err)

	// the same fingerprint is now probably seen
	mc.On("Do", "BF.EXISTS", filter.Key(), "pizza town|1 main street").
		Return(goredis.NewCmdResult(int64(1), nil)).Once()

	_, err = store.CreateRestaurant(ctx, CreateRestaurant{Name: "PIZZA TOWN", Address: "1 Main Street"})
	assert.ErrorIs(t, err, ErrDuplicate)
	mc.AssertExpectations(t)
}

func TestAddReviewMaintainsRating(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town", Address: "1 Main Street"})
	require.NoError(t, err)

	review, err := store.AddReview(ctx, created.ID, CreateReview{Author: "ana", Rating: 5, Comment: "great"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, review.RestaurantID)
	assert.NotEmpty(t, review.CreatedAt)

	_, err = store.AddReview(ctx, created.ID, CreateReview{Author: "ben", Rating: 3})
	require.NoError(t, err)

	fetched, err := store.GetRestaurant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fetched.ReviewCount)
	assert.InDelta(t, 4.0, fetched.AverageRating, 0.0001)

	// the ranking score tracks the derived average
	top, err := store.TopRestaurants(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.InDelta(t, 4.0, top[0].AverageRating, 0.0001)
}

func TestAddReviewValidation(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town", Address: "1 Main Street"})
	require.NoError(t, err)

	_, err = store.AddReview(ctx, created.ID, CreateReview{Rating: 4})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.AddReview(ctx, created.ID, CreateReview{Author: "ana", Rating: 0})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.AddReview(ctx, created.ID, CreateReview{Author: "ana", Rating: 6})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAddReviewMissingRestaurant(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))

	_, err := store.AddReview(context.Background(), "no-such-id", CreateReview{Author: "ana", Rating: 4})
	assert.True(t, redis.NotFound(err))
}

func TestListReviewsNewestFirst(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town", Address: "1 Main Street"})
	require.NoError(t, err)

	var ids []string
	for _, author := range []string{"ana", "ben", "cat"} {
		review, err := store.AddReview(ctx, created.ID, CreateReview{Author: author, Rating: 4})
		require.NoError(t, err)
		ids = append(ids, review.ID)
	}

	page, err := store.ListReviews(ctx, created.ID, Page{Offset: 0, Count: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Reviews, 2)
	assert.Equal(t, ids[2], page.Reviews[0].ID)
	assert.Equal(t, ids[1], page.Reviews[1].ID)

	// offset past the end is an empty page, not an error
	page, err = store.ListReviews(ctx, created.ID, Page{Offset: 10, Count: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)
}

func TestDeleteReviewRollsRatingBack(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town", Address: "1 Main Street"})
	require.NoError(t, err)

	first, err := store.AddReview(ctx, created.ID, CreateReview{Author: "ana", Rating: 5})
	require.NoError(t, err)
	second, err := store.AddReview(ctx, created.ID, CreateReview{Author: "ben", Rating: 3})
	require.NoError(t, err)

	require.NoError(t, store.DeleteReview(ctx, created.ID, first.ID))

	fetched, err := store.GetRestaurant(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), fetched.ReviewCount)
	assert.InDelta(t, 3.0, fetched.AverageRating, 0.0001)

	// removing the last review resets the average and the ranking score
	require.NoError(t, store.DeleteReview(ctx, created.ID, second.ID))
	fetched, err = store.GetRestaurant(ctx, created.ID)
	require.NoError(t, err)
	assert.Zero(t, fetched.ReviewCount)
	assert.Zero(t, fetched.AverageRating)

	page, err := store.ListReviews(ctx, created.ID, Page{Offset: 0, Count: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Reviews)
}

func TestDeleteReviewWrongRestaurant(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	a, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town", Address: "1 Main Street"})
	require.NoError(t, err)
	b, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Noodle Bar", Address: "2 Side Street"})
	require.NoError(t, err)

	review, err := store.AddReview(ctx, a.ID, CreateReview{Author: "ana", Rating: 4})
	require.NoError(t, err)

	err = store.DeleteReview(ctx, b.ID, review.ID)
	assert.True(t, redis.NotFound(err))
}

func TestListRestaurantsRankedOrder(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	ratings := map[string]int64{"Alpha": 2, "Bravo": 5, "Charlie": 4}
	for name, rating := range ratings {
		created, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: name, Address: name + " street"})
		require.NoError(t, err)
		_, err = store.AddReview(ctx, created.ID, CreateReview{Author: "ana", Rating: rating})
		require.NoError(t, err)
	}

	page, err := store.ListRestaurants(ctx, Page{Offset: 0, Count: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Restaurants, 2)
	assert.Equal(t, "Bravo", page.Restaurants[0].Name)
	assert.Equal(t, "Charlie", page.Restaurants[1].Name)

	page, err = store.ListRestaurants(ctx, Page{Offset: 2, Count: 2})
	require.NoError(t, err)
	require.Len(t, page.Restaurants, 1)
	assert.Equal(t, "Alpha", page.Restaurants[0].Name)

	page, err = store.ListRestaurants(ctx, Page{Offset: 10, Count: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Restaurants)
}

func TestUpdateRestaurantCuisines(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{
		Name: "Pizza Town", Address: "1 Main Street", Cuisines: []string{"pizza", "italian"},
	})
	require.NoError(t, err)

	updated, err := store.UpdateRestaurant(ctx, created.ID, UpdateRestaurant{
		Name:     "Pizza Palace",
		Cuisines: []string{"pizza", "calzone"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pizza Palace", updated.Name)
	assert.Equal(t, "1 Main Street", updated.Address)
	assert.Equal(t, []string{"calzone", "pizza"}, updated.Cuisines)

	// membership follows the update
	byCalzone, err := store.RestaurantsByCuisine(ctx, "calzone", Page{Offset: 0, Count: 10})
	require.NoError(t, err)
	require.Len(t, byCalzone.Restaurants, 1)

	byItalian, err := store.RestaurantsByCuisine(ctx, "italian", Page{Offset: 0, Count: 10})
	require.NoError(t, err)
	assert.Empty(t, byItalian.Restaurants)
}

func TestUpdateRestaurantMissing(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))

	_, err := store.UpdateRestaurant(context.Background(), "no-such-id", UpdateRestaurant{Name: "X"})
	assert.True(t, redis.NotFound(err))
}

func TestDeleteRestaurant(t *testing.T) {
	cfg, client := newTestEnv(t)
	ctx := context.Background()

	mc := &moduleClient{}
	mc.On("Do", mock.Anything, mock.Anything, mock.Anything).
		Return(goredis.NewCmdResult(int64(0), nil))
	store := NewStore(cfg, client,
		WithDedupeFilter(nil),
		WithDetailsResource(redis.NewJSONResource(cfg, mc, "restaurants")),
	)

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{
		Name: "Pizza Town", Address: "1 Main Street", Cuisines: []string{"pizza"},
	})
	require.NoError(t, err)
	review, err := store.AddReview(ctx, created.ID, CreateReview{Author: "ana", Rating: 4})
	require.NoError(t, err)

	require.NoError(t, store.DeleteRestaurant(ctx, created.ID))

	_, err = store.GetRestaurant(ctx, created.ID)
	assert.True(t, redis.NotFound(err))

	// the review hash, ranking entry and cuisine membership went with it
	_, err = store.ListReviews(ctx, review.RestaurantID, Page{Offset: 0, Count: 10})
	assert.True(t, redis.NotFound(err))

	page, err := store.ListRestaurants(ctx, Page{Offset: 0, Count: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Restaurants)

	byPizza, err := store.RestaurantsByCuisine(ctx, "pizza", Page{Offset: 0, Count: 10})
	require.NoError(t, err)
	assert.Empty(t, byPizza.Restaurants)
}

func TestRestaurantsByCuisinePaging(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		_, err := store.CreateRestaurant(ctx, CreateRestaurant{
			Name: name, Address: name + " street", Cuisines: []string{"ramen"},
		})
		require.NoError(t, err)
	}

	page, err := store.RestaurantsByCuisine(ctx, "ramen", Page{Offset: 0, Count: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Restaurants, 2)

	page, err = store.RestaurantsByCuisine(ctx, "ramen", Page{Offset: 2, Count: 2})
	require.NoError(t, err)
	assert.Len(t, page.Restaurants, 1)

	page, err = store.RestaurantsByCuisine(ctx, "ramen", Page{Offset: 9, Count: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Restaurants)
}

func TestFavourites(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town", Address: "1 Main Street"})
	require.NoError(t, err)

	require.NoError(t, store.Favourite(ctx, "session-1", created.ID))

	err = store.Favourite(ctx, "session-1", "no-such-id")
	assert.True(t, redis.NotFound(err))

	favourites, err := store.Favourites(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, favourites, 1)
	assert.Equal(t, created.ID, favourites[0].ID)

	require.NoError(t, store.Unfavourite(ctx, "session-1", created.ID))
	favourites, err = store.Favourites(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, favourites)
}

func TestSearchReshapesHits(t *testing.T) {
	cfg, client := newTestEnv(t)
	ctx := context.Background()

	mc := &moduleClient{}
	index := redis.NewSearchIndex(cfg, mc, "restaurants", "testns:restaurants:", restaurantSchema())
	store := NewStore(cfg, client, WithDedupeFilter(nil), WithSearchIndex(index))

	mc.On("Do", "FT.SEARCH", index.IndexName(), "pizza", "LIMIT", int64(0), int64(10)).
		Return(goredis.NewCmdResult([]any{
			int64(1),
			"testns:restaurants:abc",
			[]any{
				"id", "abc",
				"name", "Pizza Town",
				"address", "1 Main Street",
				"cuisines", "italian,pizza",
				"rating_sum", "9",
				"review_count", "2",
			},
		}, nil)).Once()

	page, err := store.Search(ctx, "pizza", Page{Offset: 0, Count: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Restaurants, 1)
	assert.Equal(t, "abc", page.Restaurants[0].ID)
	assert.Equal(t, "Pizza Town", page.Restaurants[0].Name)
	assert.Equal(t, []string{"italian", "pizza"}, page.Restaurants[0].Cuisines)
	assert.InDelta(t, 4.5, page.Restaurants[0].AverageRating, 0.0001)
	mc.AssertExpectations(t)

	_, err = store.Search(ctx, "   ", Page{Offset: 0, Count: 10})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestDetailsRoundtrip(t *testing.T) {
	cfg, client := newTestEnv(t)
	ctx := context.Background()

	mc := &moduleClient{}
	details := redis.NewJSONResource(cfg, mc, "restaurants")
	store := NewStore(cfg, client, WithDedupeFilter(nil), WithDetailsResource(details))

	created, err := store.CreateRestaurant(ctx, CreateRestaurant{Name: "Pizza Town", Address: "1 Main Street"})
	require.NoError(t, err)
	key := details.Key(detailsID(created.ID))

	mc.On("Do", "JSON.SET", key, "$", `{"website":"https://pizzatown.example"}`).
		Return(goredis.NewCmdResult("OK", nil)).Once()
	require.NoError(t, store.SetDetails(ctx, created.ID, Details{"website": "https://pizzatown.example"}))

	mc.On("Do", "JSON.GET", key, "$").
		Return(goredis.NewCmdResult(`[{"website":"https://pizzatown.example"}]`, nil)).Once()
	fetched, err := store.GetDetails(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://pizzatown.example", fetched["website"])

	// details require an existing record
	err = store.SetDetails(ctx, "no-such-id", Details{"website": "x"})
	assert.True(t, redis.NotFound(err))

	mc.On("Do", "JSON.DEL", key, "$").
		Return(goredis.NewCmdResult(int64(1), nil)).Once()
	require.NoError(t, store.DeleteDetails(ctx, created.ID))
	mc.AssertExpectations(t)
}

func TestStoreCloseAndPing(t *testing.T) {
	cfg, client := newTestEnv(t)
	store := NewStore(cfg, client, WithDedupeFilter(nil))
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Close())

	// the client is gone, so liveness fails transiently and a second close
	// reports the close sentinel
	err := store.Ping(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, redis.ErrRedisConnect)
	assert.True(t, errhandling.IsTransient(err))

	err = store.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, redis.ErrRedisClose)
}
