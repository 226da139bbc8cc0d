package directory

// Store composes the store-side resources into directory operations. Every
// operation validates its input, issues a handful of store commands and
// reshapes the replies; nothing here maintains state of its own. Commands
// that must land together go through one TxPipelined block on the shared
// client, addressed by the resources' Key methods.

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/tablekit/restaurant-directory/logger"
	"github.com/tablekit/restaurant-directory/redis"
)

const (
	restaurantsResource = "restaurants"
	reviewsResource     = "reviews"
	rankingsResource    = "rankings"
	cuisinesResource    = "cuisines"
	favouritesResource  = "favourites"
	dedupeResource      = "dedupe:restaurants"

	// sub keys hung off the restaurant record key
	reviewsSuffix = ":reviews"
	detailsSuffix = ":details"

	ratingRanking = "rating"

	fieldID          = "id"
	fieldName        = "name"
	fieldAddress     = "address"
	fieldCuisines    = "cuisines"
	fieldRatingSum   = "rating_sum"
	fieldReviewCount = "review_count"

	fieldRestaurantID = "restaurant_id"
	fieldAuthor       = "author"
	fieldRating       = "rating"
	fieldComment      = "comment"
	fieldCreated      = "created"

	cuisineListSeparator = ","
)

type Logger = logger.Logger

type Store struct {
	log    Logger
	client redis.RedisClient

	restaurants *redis.HashResource
	reviews     *redis.HashResource
	reviewLists *redis.ListResource
	details     *redis.JSONResource
	rankings    *redis.SortedSetResource
	cuisines    *redis.SetResource
	favourites  *redis.SetResource
	dedupe      *redis.BloomFilter
	index       *redis.SearchIndex
}

type StoreOption func(*Store)

// WithDedupeFilter replaces the duplicate registration filter, or disables
// the screening entirely when passed nil.
func WithDedupeFilter(filter *redis.BloomFilter) StoreOption {
	return func(s *Store) {
		s.dedupe = filter
	}
}

// WithSearchIndex replaces the full text index binding.
func WithSearchIndex(index *redis.SearchIndex) StoreOption {
	return func(s *Store) {
		s.index = index
	}
}

// WithDetailsResource replaces the detail document binding.
func WithDetailsResource(details *redis.JSONResource) StoreOption {
	return func(s *Store) {
		s.details = details
	}
}

// NewStore binds the directory operations to one shared client. All
// resources share the client so multi structure updates can be grouped in a
// single pipeline.
func NewStore(cfg redis.RedisConfig, client redis.RedisClient, opts ...StoreOption) *Store {
	s := &Store{
		log:         cfg.Log(),
		client:      client,
		restaurants: redis.NewHashResource(cfg, client, restaurantsResource),
		reviews:     redis.NewHashResource(cfg, client, reviewsResource),
		reviewLists: redis.NewListResource(cfg, client, restaurantsResource),
		details:     redis.NewJSONResource(cfg, client, restaurantsResource),
		rankings:    redis.NewSortedSetResource(cfg, client, rankingsResource),
		cuisines:    redis.NewSetResource(cfg, client, cuisinesResource),
		favourites:  redis.NewSetResource(cfg, client, favouritesResource),
		dedupe:      redis.NewBloomFilter(cfg, client, dedupeResource),
		index: redis.NewSearchIndex(
			cfg, client, restaurantsResource, prefixFor(cfg, restaurantsResource), restaurantSchema(),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the store connection for liveness probes. Failures are
// transient; the readiness loop and the api error path both treat them as
// retryable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return redis.ConnectError(err, "ping")
	}
	return nil
}

// Close releases the shared client and with it every resource connection.
func (s *Store) Close() error {
	if err := s.client.Close(); err != nil {
		return redis.CloseError(err, "directory")
	}
	return nil
}

// prefixFor is the hash key prefix the search index shadows, trailing
// separator included so only whole key families match.
func prefixFor(cfg redis.RedisConfig, name string) string {
	return cfg.Namespace() + ":" + name + ":"
}

// restaurantSchema is the indexed view of the restaurant record hash.
func restaurantSchema() []redis.FieldSchema {
	return []redis.FieldSchema{
		{Name: fieldName, Type: "TEXT"},
		{Name: fieldAddress, Type: "TEXT"},
		{Name: fieldCuisines, Type: "TAG"},
		{Name: fieldRatingSum, Type: "NUMERIC", Attributes: []string{"SORTABLE"}},
	}
}

// reviewListID addresses the per restaurant review timeline, a sub key of
// the record key.
func reviewListID(restaurantID string) string {
	return restaurantID + reviewsSuffix
}

// detailsID addresses the per restaurant detail document.
func detailsID(restaurantID string) string {
	return restaurantID + detailsSuffix
}

// fingerprint is the duplicate screening identity of a registration.
func fingerprint(name, address string) string {
	return strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(address))
}

// canonicalCuisines trims, lowercases and deduplicates, preserving a stable
// sorted order.
func canonicalCuisines(cuisines []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(cuisines))
	for _, cuisine := range cuisines {
		cuisine = strings.ToLower(strings.TrimSpace(cuisine))
		if cuisine == "" || seen[cuisine] {
			continue
		}
		seen[cuisine] = true
		out = append(out, cuisine)
	}
	sort.Strings(out)
	return out
}

// restaurantFromFields reshapes a record hash into the wire type. The
// average is derived from the sum and count fields; absent or zero count
// reports 0.
func restaurantFromFields(id string, fields map[string]string) (Restaurant, error) {
	r := Restaurant{
		ID:      id,
		Name:    fields[fieldName],
		Address: fields[fieldAddress],
	}
	if cuisines := fields[fieldCuisines]; cuisines != "" {
		r.Cuisines = strings.Split(cuisines, cuisineListSeparator)
	}
	if raw := fields[fieldReviewCount]; raw != "" {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Restaurant{}, redis.BadReplyError(id, "review_count is not an integer")
		}
		r.ReviewCount = count
	}
	if r.ReviewCount > 0 {
		sum, err := strconv.ParseFloat(fields[fieldRatingSum], 64)
		if err != nil {
			return Restaurant{}, redis.BadReplyError(id, "rating_sum is not a number")
		}
		r.AverageRating = sum / float64(r.ReviewCount)
	}
	return r, nil
}

// reviewFromFields reshapes a review hash into the wire type.
func reviewFromFields(id string, fields map[string]string) (Review, error) {
	rating, err := strconv.ParseInt(fields[fieldRating], 10, 64)
	if err != nil {
		return Review{}, redis.BadReplyError(id, "rating is not an integer")
	}
	return Review{
		ID:           id,
		RestaurantID: fields[fieldRestaurantID],
		Author:       fields[fieldAuthor],
		Rating:       rating,
		Comment:      fields[fieldComment],
		CreatedAt:    fields[fieldCreated],
	}, nil
}
