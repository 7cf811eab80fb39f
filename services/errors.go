package services

import "errors"

// Typed errors returned by the file services. Handlers map these onto HTTP
// status codes; anything else is treated as an upstream failure.
var (
	ErrInvalidName = errors.New("invalid filename")
	ErrNoInput     = errors.New("no input provided")
	ErrNotFound    = errors.New("file not found")
	ErrConflict    = errors.New("file changed concurrently")
)
