package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tablekit/restaurant-directory/directory"
)

const (
	defaultPageCount = 20
	maxPageCount     = 100
	defaultTopCount  = 10
)

// pageFromQuery reads offset/count, clamping count to the page limit.
func pageFromQuery(r *http.Request) directory.Page {
	page := directory.Page{Count: defaultPageCount}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.ParseInt(raw, 10, 64); err == nil && offset > 0 {
			page.Offset = offset
		}
	}
	if raw := r.URL.Query().Get("count"); raw != "" {
		if count, err := strconv.ParseInt(raw, 10, 64); err == nil && count > 0 {
			page.Count = count
		}
	}
	if page.Count > maxPageCount {
		page.Count = maxPageCount
	}
	return page
}

func (s *Service) createRestaurant(w http.ResponseWriter, r *http.Request) {
	var req directory.CreateRestaurant
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	restaurant, err := s.store.CreateRestaurant(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, restaurant)
}

func (s *Service) getRestaurant(w http.ResponseWriter, r *http.Request) {
	restaurant, err := s.store.GetRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, restaurant)
}

func (s *Service) updateRestaurant(w http.ResponseWriter, r *http.Request) {
	var req directory.UpdateRestaurant
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	restaurant, err := s.store.UpdateRestaurant(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, restaurant)
}

func (s *Service) deleteRestaurant(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteRestaurant(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Service) listRestaurants(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.ListRestaurants(r.Context(), pageFromQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Service) topRestaurants(w http.ResponseWriter, r *http.Request) {
	count := int64(defaultTopCount)
	if raw := r.URL.Query().Get("count"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil && parsed > 0 {
			count = parsed
		}
	}
	if count > maxPageCount {
		count = maxPageCount
	}
	top, err := s.store.TopRestaurants(r.Context(), count)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"restaurants": top})
}
