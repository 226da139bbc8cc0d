package directory

import (
	"context"
	"sort"

	dirredis "github.com/tablekit/restaurant-directory/redis"
)

// ListCuisines returns the cuisine catalogue, sorted for stable responses.
func (s *Store) ListCuisines(ctx context.Context) ([]string, error) {
	cuisines, err := s.cuisines.Members(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.Strings(cuisines)
	return cuisines, nil
}

// RestaurantsByCuisine returns one page of the restaurants serving a
// cuisine. Set members have no intrinsic order so the ids are sorted before
// paging; records that vanished since membership was written are skipped.
func (s *Store) RestaurantsByCuisine(ctx context.Context, cuisine string, page Page) (*RestaurantPage, error) {
	if cuisine == "" {
		return nil, invalidf("cuisine is required")
	}

	ids, err := s.cuisines.Members(ctx, cuisine)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	result := &RestaurantPage{Restaurants: []Restaurant{}, Total: int64(len(ids))}
	if page.Offset >= int64(len(ids)) {
		return result, nil
	}
	end := page.Offset + page.Count
	if end > int64(len(ids)) {
		end = int64(len(ids))
	}

	for _, id := range ids[page.Offset:end] {
		restaurant, err := s.GetRestaurant(ctx, id)
		if err != nil {
			if dirredis.NotFound(err) {
				continue
			}
			return nil, err
		}
		result.Restaurants = append(result.Restaurants, *restaurant)
	}
	return result, nil
}
