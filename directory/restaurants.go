package directory

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	dirredis "github.com/tablekit/restaurant-directory/redis"
)

// CreateRestaurant registers a restaurant. The name/address fingerprint is
// screened against the membership filter first; a probable duplicate is
// rejected before anything is written. The record hash, the zero ranking
// entry and the cuisine memberships land in one pipeline.
func (s *Store) CreateRestaurant(ctx context.Context, req CreateRestaurant) (*Restaurant, error) {
	log := s.log.FromContext(ctx)
	defer log.Close()

	if strings.TrimSpace(req.Name) == "" {
		return nil, invalidf("name is required")
	}
	if strings.TrimSpace(req.Address) == "" {
		return nil, invalidf("address is required")
	}
	cuisines := canonicalCuisines(req.Cuisines)

	print := fingerprint(req.Name, req.Address)
	if s.dedupe != nil {
		seen, err := s.dedupe.Exists(ctx, print)
		if err != nil {
			return nil, err
		}
		if seen {
			return nil, ErrDuplicate
		}
	}

	id := uuid.NewString()
	name := strings.TrimSpace(req.Name)
	address := strings.TrimSpace(req.Address)
	fields := map[string]any{
		fieldID:          id,
		fieldName:        name,
		fieldAddress:     address,
		fieldCuisines:    strings.Join(cuisines, cuisineListSeparator),
		fieldRatingSum:   "0",
		fieldReviewCount: "0",
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.restaurants.Key(id), flattenFields(fields)...)
		pipe.ZAdd(ctx, s.rankings.Key(ratingRanking), &redis.Z{Score: 0, Member: id})
		for _, cuisine := range cuisines {
			pipe.SAdd(ctx, s.cuisines.Key(""), cuisine)
			pipe.SAdd(ctx, s.cuisines.Key(cuisine), id)
		}
		return nil
	})
	if err != nil {
		return nil, dirredis.DoError(err, s.restaurants.Key(id))
	}

	if s.dedupe != nil {
		if _, err = s.dedupe.Add(ctx, print); err != nil {
			return nil, err
		}
	}

	log.Infof("created restaurant %s '%s'", id, name)
	return &Restaurant{ID: id, Name: name, Address: address, Cuisines: cuisines}, nil
}

// GetRestaurant fetches one record. A missing record is ErrNotFound.
func (s *Store) GetRestaurant(ctx context.Context, id string) (*Restaurant, error) {
	fields, err := s.restaurants.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	restaurant, err := restaurantFromFields(id, fields)
	if err != nil {
		return nil, err
	}
	return &restaurant, nil
}

// UpdateRestaurant applies a partial update. Changed cuisine memberships are
// adjusted with paired SADD/SREM in the same pipeline as the record write.
// The duplicate screening fingerprint of the original registration is not
// revisited; the filter has no way to forget it.
func (s *Store) UpdateRestaurant(ctx context.Context, id string, req UpdateRestaurant) (*Restaurant, error) {
	log := s.log.FromContext(ctx)
	defer log.Close()

	current, err := s.restaurants.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if name := strings.TrimSpace(req.Name); name != "" {
		fields[fieldName] = name
	}
	if address := strings.TrimSpace(req.Address); address != "" {
		fields[fieldAddress] = address
	}

	var added, removed []string
	if req.Cuisines != nil {
		next := canonicalCuisines(req.Cuisines)
		previous := splitCuisines(current[fieldCuisines])
		added, removed = diffCuisines(previous, next)
		fields[fieldCuisines] = strings.Join(next, cuisineListSeparator)
	}

	if len(fields) == 0 {
		return s.GetRestaurant(ctx, id)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.restaurants.Key(id), flattenFields(fields)...)
		for _, cuisine := range added {
			pipe.SAdd(ctx, s.cuisines.Key(""), cuisine)
			pipe.SAdd(ctx, s.cuisines.Key(cuisine), id)
		}
		for _, cuisine := range removed {
			pipe.SRem(ctx, s.cuisines.Key(cuisine), id)
		}
		return nil
	})
	if err != nil {
		return nil, dirredis.DoError(err, s.restaurants.Key(id))
	}

	log.Debugf("updated restaurant %s: %d fields, +%d/-%d cuisines", id, len(fields), len(added), len(removed))
	return s.GetRestaurant(ctx, id)
}

// DeleteRestaurant removes the record, its review timeline and hashes, its
// ranking entry and its cuisine memberships in one pipeline, then drops the
// detail document. The filter entry for the registration fingerprint cannot
// be removed; re-registering an identical name/address stays a conflict.
func (s *Store) DeleteRestaurant(ctx context.Context, id string) error {
	log := s.log.FromContext(ctx)
	defer log.Close()

	current, err := s.restaurants.Get(ctx, id)
	if err != nil {
		return err
	}
	reviewIDs, err := s.reviewLists.All(ctx, reviewListID(id))
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.restaurants.Key(id))
		pipe.Del(ctx, s.reviewLists.Key(reviewListID(id)))
		pipe.ZRem(ctx, s.rankings.Key(ratingRanking), id)
		for _, cuisine := range splitCuisines(current[fieldCuisines]) {
			pipe.SRem(ctx, s.cuisines.Key(cuisine), id)
		}
		for _, reviewID := range reviewIDs {
			pipe.Del(ctx, s.reviews.Key(reviewID))
		}
		return nil
	})
	if err != nil {
		return dirredis.DoError(err, s.restaurants.Key(id))
	}

	if err = s.details.Delete(ctx, detailsID(id)); err != nil {
		return err
	}

	log.Infof("deleted restaurant %s with %d reviews", id, len(reviewIDs))
	return nil
}

// ListRestaurants returns one page of the directory in descending average
// rating order. Records that vanish between the ranking read and the record
// read are skipped.
func (s *Store) ListRestaurants(ctx context.Context, page Page) (*RestaurantPage, error) {
	ids, err := s.rankings.Descending(ctx, ratingRanking, page.Offset, page.Count)
	if err != nil {
		return nil, err
	}
	total, err := s.rankings.Size(ctx, ratingRanking)
	if err != nil {
		return nil, err
	}

	result := &RestaurantPage{Restaurants: make([]Restaurant, 0, len(ids)), Total: total}
	for _, id := range ids {
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

// TopRestaurants returns the highest rated restaurants with their ranking
// scores, bounded by count.
func (s *Store) TopRestaurants(ctx context.Context, count int64) ([]Restaurant, error) {
	scored, err := s.rankings.DescendingWithScores(ctx, ratingRanking, 0, count)
	if err != nil {
		return nil, err
	}

	top := make([]Restaurant, 0, len(scored))
	for _, member := range scored {
		restaurant, err := s.GetRestaurant(ctx, member.Member)
		if err != nil {
			if dirredis.NotFound(err) {
				continue
			}
			return nil, err
		}
		top = append(top, *restaurant)
	}
	return top, nil
}

// splitCuisines reverses the comma joined hash field. An empty field is no
// cuisines, not one empty cuisine.
func splitCuisines(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, cuisineListSeparator)
}

func diffCuisines(previous, next []string) (added, removed []string) {
	in := func(list []string, needle string) bool {
		for _, have := range list {
			if have == needle {
				return true
			}
		}
		return false
	}
	for _, cuisine := range next {
		if !in(previous, cuisine) {
			added = append(added, cuisine)
		}
	}
	for _, cuisine := range previous {
		if !in(next, cuisine) {
			removed = append(removed, cuisine)
		}
	}
	return added, removed
}

// flattenFields converts a field map to the alternating form HSET takes.
func flattenFields(fields map[string]any) []any {
	args := make([]any, 0, len(fields)*2)
	for field, value := range fields {
		args = append(args, field, value)
	}
	return args
}
