package tieba

import (
	"errors"
	"fmt"
)

// ErrTokenUnavailable is returned by calls that need a session token when it could not be
// acquired.
var ErrTokenUnavailable = errors.New("tieba: session token unavailable")

// TransportError is a call that did not produce a usable response: the request failed, the
// status was not 200 or a load-bearing part of the body could not be read.
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.Err != nil && e.StatusCode == 0 {
		return fmt.Sprintf("tieba: %s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("tieba: %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tieba: %s: status %d: %q", e.Op, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ApplicationError is a 200 response in which the platform reported a failure.
type ApplicationError struct {
	Op      string
	Code    string
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("tieba: %s: error code %s: %s", e.Op, e.Code, e.Message)
}

// Outcome is the classification of a single api call.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeApplicationError
	OutcomeTransportError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeApplicationError:
		return "application_error"
	case OutcomeTransportError:
		return "transport_error"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Classify maps the error returned by a Client call to its Outcome. Anything that is not an
// ApplicationError counts as a transport failure.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return OutcomeApplicationError
	}
	return OutcomeTransportError
}
