package directory

// Wire and record types for the directory. The store keeps restaurants and
// reviews as hashes; the types here are the reshaped view handed to the HTTP
// layer.

// Restaurant is the reshaped view of a restaurant record hash. AverageRating
// is derived from the rating_sum and review_count fields held in the hash; a
// restaurant with no reviews reports 0.
type Restaurant struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Address       string   `json:"address"`
	Cuisines      []string `json:"cuisines"`
	AverageRating float64  `json:"average_rating"`
	ReviewCount   int64    `json:"review_count"`
}

// Review is the reshaped view of a review record hash.
type Review struct {
	ID           string `json:"id"`
	RestaurantID string `json:"restaurant_id"`
	Author       string `json:"author"`
	Rating       int64  `json:"rating"`
	Comment      string `json:"comment,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// Details is the free form nested detail document (opening hours, menus,
// contact and so on). The application never interprets it; it is stored and
// returned as a document.
type Details map[string]any

// Page selects a window of a listing. Offset past the end of the listing
// yields an empty page.
type Page struct {
	Offset int64
	Count  int64
}

// RestaurantPage is one window of a restaurant listing plus the listing's
// full size.
type RestaurantPage struct {
	Restaurants []Restaurant `json:"restaurants"`
	Total       int64        `json:"total"`
}

// ReviewPage is one window of a restaurant's review timeline, newest first.
type ReviewPage struct {
	Reviews []Review `json:"reviews"`
	Total   int64    `json:"total"`
}

// CreateRestaurant carries the fields of a registration request.
type CreateRestaurant struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Cuisines []string `json:"cuisines"`
}

// UpdateRestaurant carries a partial update. Empty strings leave the field
// unchanged; a nil Cuisines slice leaves the membership unchanged.
type UpdateRestaurant struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Cuisines []string `json:"cuisines"`
}

// CreateReview carries the fields of a review submission.
type CreateReview struct {
	Author  string `json:"author"`
	Rating  int64  `json:"rating"`
	Comment string `json:"comment"`
}
