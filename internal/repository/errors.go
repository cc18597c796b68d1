package repository

// Sentinel errors shared by every ShowStore backend so handlers can tell
// "the show is not there" from a storage failure without knowing which
// backend is configured.

import "errors"

// ErrShowNotFound indicates that no show with the requested id exists.
// Handlers should translate this into an HTTP 404 response.
var ErrShowNotFound = errors.New("show not found")

// ErrUnknownDriver is returned by New when store.driver names a backend
// that does not exist.
var ErrUnknownDriver = errors.New("unknown store driver")
