package errhandling

import (
	"encoding/json"
	"strconv"
)

type jsonError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// JSONWithHTTPStatus renders the shared error body. The message goes through
// the json encoder so quotes and control characters in error text cannot
// corrupt the body.
func JSONWithHTTPStatus(statusCode int, message string) string {
	body, err := json.Marshal(jsonError{
		Code:    strconv.Itoa(statusCode),
		Message: message,
		Details: []string{},
	})
	if err != nil {
		// a flat struct of strings cannot fail to marshal
		return `{"code":"500","message":"internal error","details":[]}`
	}
	return string(body)
}
