package remote

import (
	"errors"
	"fmt"
)

// Fetch failure taxonomy. Rate limiting and transient failures are
// retried against the caller's budget; everything else aborts the page
// immediately.
var (
	// ErrRateLimited marks a 429 response.
	ErrRateLimited = errors.New("rate limited by remote service")

	// ErrEmptyPage marks a well-formed response that normalized to zero
	// valid records.
	ErrEmptyPage = errors.New("no valid records in page")

	// ErrMalformedPage marks a response body that could not be
	// normalized into any known shape.
	ErrMalformedPage = errors.New("unrecognized page payload shape")

	// ErrBudgetExhausted marks a page whose retry budget ran out
	// without a successful fetch.
	ErrBudgetExhausted = errors.New("retry budget exhausted")
)

// StatusError carries an unexpected HTTP status code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

type failureClass int

const (
	failureRateLimited failureClass = iota
	failureTransient
	failureFatal
)

// classifyFailure maps a fetch error onto the retry policy. Server-side
// 5xx responses and unusable pages are transient; unknown transport or
// client errors are fatal for the page.
func classifyFailure(err error) failureClass {
	switch {
	case errors.Is(err, ErrRateLimited):
		return failureRateLimited
	case errors.Is(err, ErrEmptyPage), errors.Is(err, ErrMalformedPage):
		return failureTransient
	}
	var se *StatusError
	if errors.As(err, &se) && se.Code >= 500 {
		return failureTransient
	}
	return failureFatal
}
