package directory

// Review operations keep three structures aligned: the review hash, the per
// restaurant timeline list and the rating ranking. The restaurant hash holds
// a running rating_sum and review_count so the recomputed average never
// needs application side state; the keys feeding each recomputation are
// WATCHed and the writes grouped in the transaction pipeline, retried on
// conflict.

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	dirredis "github.com/tablekit/restaurant-directory/redis"
)

const (
	minRating = 1
	maxRating = 5

	// optimistic concurrency retries before giving up on a contended
	// restaurant
	txRetries = 3
)

// AddReview records a review against a restaurant. The review hash, the
// timeline entry, the sum/count increments and the recomputed ranking score
// land in one transaction.
func (s *Store) AddReview(ctx context.Context, restaurantID string, req CreateReview) (*Review, error) {
	log := s.log.FromContext(ctx)
	defer log.Close()

	if req.Author == "" {
		return nil, invalidf("author is required")
	}
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, invalidf("rating must be between %d and %d", minRating, maxRating)
	}

	id := uuid.NewString()
	created := time.Now().UTC().Format(time.RFC3339)
	restaurantKey := s.restaurants.Key(restaurantID)

	txn := func(tx *redis.Tx) error {
		sum, count, err := ratingState(ctx, tx, restaurantKey)
		if err != nil {
			return err
		}
		average := (sum + float64(req.Rating)) / float64(count+1)

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, s.reviews.Key(id),
				fieldID, id,
				fieldRestaurantID, restaurantID,
				fieldAuthor, req.Author,
				fieldRating, strconv.FormatInt(req.Rating, 10),
				fieldComment, req.Comment,
				fieldCreated, created,
			)
			pipe.LPush(ctx, s.reviewLists.Key(reviewListID(restaurantID)), id)
			pipe.HIncrBy(ctx, restaurantKey, fieldReviewCount, 1)
			pipe.HIncrByFloat(ctx, restaurantKey, fieldRatingSum, float64(req.Rating))
			pipe.ZAdd(ctx, s.rankings.Key(ratingRanking), &redis.Z{Score: average, Member: restaurantID})
			return nil
		})
		return err
	}

	if err := s.watchRetry(ctx, txn, restaurantKey); err != nil {
		return nil, err
	}

	log.Infof("review %s added to restaurant %s", id, restaurantID)
	return &Review{
		ID:           id,
		RestaurantID: restaurantID,
		Author:       req.Author,
		Rating:       req.Rating,
		Comment:      req.Comment,
		CreatedAt:    created,
	}, nil
}

// ListReviews returns one page of a restaurant's review timeline, newest
// first. The restaurant must exist; an empty timeline is an empty page.
func (s *Store) ListReviews(ctx context.Context, restaurantID string, page Page) (*ReviewPage, error) {
	exists, err := s.restaurants.Exists(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, dirredis.AsNotFound(dirredis.ErrNotFound, s.restaurants.Key(restaurantID))
	}

	ids, err := s.reviewLists.Page(ctx, reviewListID(restaurantID), page.Offset, page.Count)
	if err != nil {
		return nil, err
	}
	total, err := s.reviewLists.Length(ctx, reviewListID(restaurantID))
	if err != nil {
		return nil, err
	}

	result := &ReviewPage{Reviews: make([]Review, 0, len(ids)), Total: total}
	for _, id := range ids {
		fields, err := s.reviews.Get(ctx, id)
		if err != nil {
			if dirredis.NotFound(err) {
				continue
			}
			return nil, err
		}
		review, err := reviewFromFields(id, fields)
		if err != nil {
			return nil, err
		}
		result.Reviews = append(result.Reviews, review)
	}
	return result, nil
}

// DeleteReview removes a review and rolls its rating out of the restaurant's
// sum, count and ranking score in one transaction. A count reaching zero
// resets the ranking score to 0.
func (s *Store) DeleteReview(ctx context.Context, restaurantID, reviewID string) error {
	log := s.log.FromContext(ctx)
	defer log.Close()

	restaurantKey := s.restaurants.Key(restaurantID)
	reviewKey := s.reviews.Key(reviewID)

	txn := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, reviewKey).Result()
		if err != nil {
			return dirredis.DoError(err, reviewKey)
		}
		if len(fields) == 0 || fields[fieldRestaurantID] != restaurantID {
			return dirredis.AsNotFound(dirredis.ErrNotFound, reviewKey)
		}
		rating, err := strconv.ParseFloat(fields[fieldRating], 64)
		if err != nil {
			return dirredis.BadReplyError(reviewKey, "rating is not a number")
		}

		sum, count, err := ratingState(ctx, tx, restaurantKey)
		if err != nil {
			return err
		}
		average := 0.0
		if count > 1 {
			average = (sum - rating) / float64(count-1)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, s.reviewLists.Key(reviewListID(restaurantID)), 0, reviewID)
			pipe.Del(ctx, reviewKey)
			pipe.HIncrBy(ctx, restaurantKey, fieldReviewCount, -1)
			pipe.HIncrByFloat(ctx, restaurantKey, fieldRatingSum, -rating)
			pipe.ZAdd(ctx, s.rankings.Key(ratingRanking), &redis.Z{Score: average, Member: restaurantID})
			return nil
		})
		return err
	}

	if err := s.watchRetry(ctx, txn, restaurantKey, reviewKey); err != nil {
		return err
	}

	log.Infof("review %s deleted from restaurant %s", reviewID, restaurantID)
	return nil
}

// watchRetry runs the transaction under WATCH, retrying on optimistic
// concurrency conflicts.
func (s *Store) watchRetry(ctx context.Context, txn func(*redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < txRetries; i++ {
		err = s.client.Watch(ctx, txn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return dirredis.DoError(err, keys[0])
}

// ratingState reads the running sum and count off the restaurant hash inside
// the transaction. A missing record is ErrNotFound.
func ratingState(ctx context.Context, tx *redis.Tx, restaurantKey string) (float64, int64, error) {
	values, err := tx.HMGet(ctx, restaurantKey, fieldID, fieldRatingSum, fieldReviewCount).Result()
	if err != nil {
		return 0, 0, dirredis.DoError(err, restaurantKey)
	}
	if len(values) != 3 || values[0] == nil {
		return 0, 0, dirredis.AsNotFound(dirredis.ErrNotFound, restaurantKey)
	}

	sum := 0.0
	if raw, ok := values[1].(string); ok && raw != "" {
		if sum, err = strconv.ParseFloat(raw, 64); err != nil {
			return 0, 0, dirredis.BadReplyError(restaurantKey, "rating_sum is not a number")
		}
	}
	var count int64
	if raw, ok := values[2].(string); ok && raw != "" {
		if count, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return 0, 0, dirredis.BadReplyError(restaurantKey, "review_count is not an integer")
		}
	}
	return sum, count, nil
}
