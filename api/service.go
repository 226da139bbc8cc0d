// Package api is the HTTP surface of the directory service. Handlers are
// thin: decode, call the store, reshape. Cross cutting concerns arrive as
// middleware supplied by the service bootstrap.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablekit/restaurant-directory/directory"
	"github.com/tablekit/restaurant-directory/httpserver"
	"github.com/tablekit/restaurant-directory/logger"
	"github.com/tablekit/restaurant-directory/redis"
)

type Logger = logger.Logger

const (
	apiPrefix = "/api/v1"

	sessionName = "directory-session"
)

type Service struct {
	log      Logger
	store    *directory.Store
	sessions *redis.SessionStore
}

func NewService(log Logger, store *directory.Store, sessions *redis.SessionStore) *Service {
	return &Service{
		log:      log.WithIndex("service", "api"),
		store:    store,
		sessions: sessions,
	}
}

// NewHandler builds the route table and wraps it in the supplied middleware,
// outermost first.
func NewHandler(s *Service, chain ...httpserver.HandleChainFunc) http.Handler {
	r := mux.NewRouter()

	v1 := r.PathPrefix(apiPrefix).Subrouter()

	v1.HandleFunc("/restaurants", s.createRestaurant).Methods(http.MethodPost)
	v1.HandleFunc("/restaurants", s.listRestaurants).Methods(http.MethodGet)
	v1.HandleFunc("/restaurants/top", s.topRestaurants).Methods(http.MethodGet)
	v1.HandleFunc("/restaurants/{id}", s.getRestaurant).Methods(http.MethodGet)
	v1.HandleFunc("/restaurants/{id}", s.updateRestaurant).Methods(http.MethodPut)
	v1.HandleFunc("/restaurants/{id}", s.deleteRestaurant).Methods(http.MethodDelete)

	v1.HandleFunc("/restaurants/{id}/reviews", s.addReview).Methods(http.MethodPost)
	v1.HandleFunc("/restaurants/{id}/reviews", s.listReviews).Methods(http.MethodGet)
	v1.HandleFunc("/restaurants/{id}/reviews/{rid}", s.deleteReview).Methods(http.MethodDelete)

	v1.HandleFunc("/restaurants/{id}/details", s.setDetails).Methods(http.MethodPut)
	v1.HandleFunc("/restaurants/{id}/details", s.getDetails).Methods(http.MethodGet)
	v1.HandleFunc("/restaurants/{id}/details", s.deleteDetails).Methods(http.MethodDelete)

	v1.HandleFunc("/cuisines", s.listCuisines).Methods(http.MethodGet)
	v1.HandleFunc("/cuisines/{name}", s.restaurantsByCuisine).Methods(http.MethodGet)

	v1.HandleFunc("/search", s.search).Methods(http.MethodGet)

	v1.HandleFunc("/favourites", s.listFavourites).Methods(http.MethodGet)
	v1.HandleFunc("/favourites/{id}", s.favourite).Methods(http.MethodPut)
	v1.HandleFunc("/favourites/{id}", s.unfavourite).Methods(http.MethodDelete)

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	var h http.Handler = r
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i] == nil {
			continue
		}
		h = chain[i](h)
	}
	return h
}
