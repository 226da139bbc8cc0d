package directory

import (
	"context"

	dirredis "github.com/tablekit/restaurant-directory/redis"
)

// SetDetails stores the free form detail document for a restaurant. The
// restaurant record must exist; the document itself is never interpreted.
func (s *Store) SetDetails(ctx context.Context, restaurantID string, details Details) error {
	exists, err := s.restaurants.Exists(ctx, restaurantID)
	if err != nil {
		return err
	}
	if !exists {
		return dirredis.AsNotFound(dirredis.ErrNotFound, s.restaurants.Key(restaurantID))
	}
	return s.details.Set(ctx, detailsID(restaurantID), details)
}

// GetDetails fetches the detail document. A restaurant without a document is
// ErrNotFound.
func (s *Store) GetDetails(ctx context.Context, restaurantID string) (Details, error) {
	var details Details
	if err := s.details.Get(ctx, detailsID(restaurantID), &details); err != nil {
		return nil, err
	}
	return details, nil
}

// DeleteDetails drops the detail document. Absent documents are not an
// error.
func (s *Store) DeleteDetails(ctx context.Context, restaurantID string) error {
	return s.details.Delete(ctx, detailsID(restaurantID))
}
