package directory

import (
	"context"
	"sort"

	dirredis "github.com/tablekit/restaurant-directory/redis"
)

// Favourite adds a restaurant to a session's favourites set. The restaurant
// must exist at the time of favouriting.
func (s *Store) Favourite(ctx context.Context, sessionID, restaurantID string) error {
	if sessionID == "" {
		return invalidf("session is required")
	}
	exists, err := s.restaurants.Exists(ctx, restaurantID)
	if err != nil {
		return err
	}
	if !exists {
		return dirredis.AsNotFound(dirredis.ErrNotFound, s.restaurants.Key(restaurantID))
	}
	return s.favourites.Add(ctx, sessionID, restaurantID)
}

// Unfavourite removes a restaurant from a session's favourites set. Removing
// an absent member is not an error.
func (s *Store) Unfavourite(ctx context.Context, sessionID, restaurantID string) error {
	if sessionID == "" {
		return invalidf("session is required")
	}
	return s.favourites.Remove(ctx, sessionID, restaurantID)
}

// Favourites returns the session's favourited restaurants. Membership can
// outlive the record; stale ids are dropped from the set as they are found.
func (s *Store) Favourites(ctx context.Context, sessionID string) ([]Restaurant, error) {
	if sessionID == "" {
		return nil, invalidf("session is required")
	}
	ids, err := s.favourites.Members(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	favourites := make([]Restaurant, 0, len(ids))
	for _, id := range ids {
		restaurant, err := s.GetRestaurant(ctx, id)
		if err != nil {
			if dirredis.NotFound(err) {
				if err = s.favourites.Remove(ctx, sessionID, id); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}
		favourites = append(favourites, *restaurant)
	}
	return favourites, nil
}
