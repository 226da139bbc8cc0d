package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tablekit/restaurant-directory/directory"
)

func (s *Service) setDetails(w http.ResponseWriter, r *http.Request) {
	var details directory.Details
	if err := decodeBody(r, &details); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.store.SetDetails(r.Context(), mux.Vars(r)["id"], details); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, details)
}

func (s *Service) getDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.store.GetDetails(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, details)
}

func (s *Service) deleteDetails(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDetails(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}
