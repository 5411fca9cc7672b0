package generate

import "errors"

var (
	// ErrInvalidRequest marks a request rejected before any work was done.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrUpstreamFetch marks a failure to retrieve the website content.
	ErrUpstreamFetch = errors.New("website fetch failed")

	// ErrBackend marks a failed or timed-out completion call.
	ErrBackend = errors.New("generation backend failed")
)
