package api

// Favourites are tied to the caller's store backed session. The session id
// doubles as the favourites set sub key; a brand new session is saved first
// so it has an id to key on.

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

// session returns the caller's session, saving it first when it is new so
// session.ID is populated.
func (s *Service) session(w http.ResponseWriter, r *http.Request) (*sessions.Session, error) {
	session, err := s.sessions.Get(r, sessionName)
	if err != nil {
		return nil, err
	}
	if session.IsNew {
		if err = s.sessions.Save(r, w, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (s *Service) favourite(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err = s.store.Favourite(r.Context(), session.ID, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Service) unfavourite(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err = s.store.Unfavourite(r.Context(), session.ID, mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusNoContent, nil)
}

func (s *Service) listFavourites(w http.ResponseWriter, r *http.Request) {
	session, err := s.session(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	favourites, err := s.store.Favourites(r.Context(), session.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"favourites": favourites})
}
