package api

import (
	"net/http"
)

func (s *Service) search(w http.ResponseWriter, r *http.Request) {
	page, err := s.store.Search(r.Context(), r.URL.Query().Get("q"), pageFromQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}
