package errhandling

// HTTPError error type with info about http.StatusCode
type HTTPError interface {
	Error() string
	StatusCode() int
}

type ErrorWithStatus struct {
	err        error
	statusCode int
}

func NewErrorStatus(err error, statusCode int) *ErrorWithStatus {
	return &ErrorWithStatus{
		err:        err,
		statusCode: statusCode,
	}
}

func (e *ErrorWithStatus) StatusCode() int {
	return e.statusCode
}

func (e *ErrorWithStatus) Error() string {
	return e.err.Error()
}

func (e *ErrorWithStatus) Unwrap() error {
	return e.err
}
