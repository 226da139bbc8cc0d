package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Service) listCuisines(w http.ResponseWriter, r *http.Request) {
	cuisines, err := s.store.ListCuisines(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"cuisines": cuisines})
}

func (s *Service) restaurantsByCuisine(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.RestaurantsByCuisine(r.Context(), mux.Vars(r)["name"], pageFromQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}
