package directory

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicate is returned when the membership filter judges a
	// name/address pair already registered. The filter can report false
	// positives at its configured error rate; callers are told to vary the
	// address line if they believe the registration is genuinely new.
	ErrDuplicate = errors.New("restaurant already registered")

	// ErrInvalid wraps every request validation failure.
	ErrInvalid = errors.New("invalid request")
)

// InvalidBody wraps a request decoding failure as a validation error so the
// HTTP layer maps it like any other bad request.
func InvalidBody(err error) error {
	return fmt.Errorf("%w: body: %v", ErrInvalid, err)
}

func invalidf(format string, a ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, a...)...)
}
