package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tablekit/restaurant-directory/directory"
	"github.com/tablekit/restaurant-directory/errhandling"
	"github.com/tablekit/restaurant-directory/redis"
)

const contentType = "application/json"

func (s *Service) writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Infof("writeJSON: encode failed: %v", err)
	}
}

// writeError maps store and validation errors onto the shared error body.
// Transient store errors are logged as such so operators can tell retryable
// noise from real faults.
func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.log.FromContext(r.Context())
	defer log.Close()

	statusCode := http.StatusInternalServerError
	switch {
	case errors.Is(err, directory.ErrInvalid):
		statusCode = http.StatusBadRequest
	case errors.Is(err, directory.ErrDuplicate):
		statusCode = http.StatusConflict
	case redis.NotFound(err):
		statusCode = http.StatusNotFound
	default:
		var httpErr errhandling.HTTPError
		if errors.As(err, &httpErr) {
			statusCode = httpErr.StatusCode()
		}
	}

	if statusCode == http.StatusInternalServerError {
		if errhandling.IsTransient(err) {
			log.Infof("%s %s: transient: %v", r.Method, r.URL.Path, err)
		} else {
			log.Infof("%s %s: %v", r.Method, r.URL.Path, err)
		}
	} else {
		log.Debugf("%s %s: %d: %v", r.Method, r.URL.Path, statusCode, err)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	_, _ = io.WriteString(w, errhandling.JSONWithHTTPStatus(statusCode, errorMessage(statusCode, err)))
}

// errorMessage keeps internal detail out of 500 bodies.
func errorMessage(statusCode int, err error) string {
	if statusCode == http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}

// decodeBody reads a JSON request body into target, rejecting unknown fields
// so typos surface as 400s instead of silently dropped fields.
func decodeBody(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return directory.InvalidBody(err)
	}
	return nil
}
