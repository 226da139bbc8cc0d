package directory

import (
	"context"
	"strings"
)

// Search runs a full text query over the restaurant index and reshapes the
// hits into restaurant records. The index shadows the record hashes so the
// hit fields are the hash fields; the id is recovered from the record key.
func (s *Store) Search(ctx context.Context, query string, page Page) (*RestaurantPage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, invalidf("query is required")
	}

	found, err := s.index.Search(ctx, query, page.Offset, page.Count)
	if err != nil {
		return nil, err
	}

	result := &RestaurantPage{Restaurants: make([]Restaurant, 0, len(found.Hits)), Total: found.Total}
	for _, hit := range found.Hits {
		id := hit.Key
		if i := strings.LastIndex(id, ":"); i >= 0 {
			id = id[i+1:]
		}
		restaurant, err := restaurantFromFields(id, hit.Fields)
		if err != nil {
			return nil, err
		}
		result.Restaurants = append(result.Restaurants, restaurant)
	}
	return result, nil
}

// EnsureSearchIndex creates the restaurant index if it is not already
// defined. Called from service readiness at boot.
func (s *Store) EnsureSearchIndex(ctx context.Context) error {
	return s.index.Ensure(ctx)
}

// ReserveDedupeFilter sizes the duplicate screening filter if it is not
// already reserved. Called from service readiness at boot; a store without
// the screening configured is a no op.
func (s *Store) ReserveDedupeFilter(ctx context.Context) error {
	if s.dedupe == nil {
		return nil
	}
	return s.dedupe.Reserve(ctx)
}
