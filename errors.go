package renewip

import (
	"errors"
	"fmt"
)

var (
	ErrUnreachable         = errors.New("ip oracle unreachable")
	ErrBaselineUnavailable = errors.New("unable to observe the current public IP")
)

// RequestFailedError is returned by a Trigger when the renewal request was not accepted.
// StatusCode is zero when no response was received at all.
type RequestFailedError struct {
	StatusCode int
	Status     string
	Err        error
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("renewal request failed: %s", e.Err)
	}
	return fmt.Sprintf("renewal request returned %s", e.Status)
}

func (e *RequestFailedError) Unwrap() error { return e.Err }
