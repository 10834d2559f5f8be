package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrUpstreamStatus indicates a catalog source answered with a non-2xx status.
	ErrUpstreamStatus = errors.New("upstream status")
)
