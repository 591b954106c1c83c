// Package errs defines the error taxonomy surfaced by the tutoring core.
// Each category maps to one short, stable user-visible message; upstream
// detail is logged internally and never attached to these values.
package errs

import "errors"

var (
	// ErrRateLimited indicates the principal exhausted its request window.
	ErrRateLimited = errors.New("too many requests, please wait a few minutes and try again")

	// ErrAccessDenied covers missing enrollment, unknown courses and
	// unconfigured tenant credentials.
	ErrAccessDenied = errors.New("you do not have access to this course assistant")

	// ErrUpstreamUnavailable masks every generation backend failure
	// (timeout, throttling, 5xx) behind a single signal.
	ErrUpstreamUnavailable = errors.New("the assistant is temporarily unavailable, please try again later")

	// ErrValidation indicates malformed input, such as an empty or
	// oversized message.
	ErrValidation = errors.New("invalid request")
)
