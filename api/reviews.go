package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablekit/restaurant-directory/directory"
)

func (s *Service) addReview(w http.ResponseWriter, r *http.Request) {
	var req directory.CreateReview
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	review, err := s.store.AddReview(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, review)
}

func (s *Service) listReviews(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.ListReviews(r.Context(), mux.Vars(r)["id"], pageFromQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Service) deleteReview(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.store.DeleteReview(r.Context(), vars["id"], vars["rid"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
