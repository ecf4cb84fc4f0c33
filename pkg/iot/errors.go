package iot

import "errors"

// Every failure returned by the core wraps one of these, transports map them
// onto status codes with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrStoreFailure = errors.New("store failure")
)
