package repository

import "errors"

// ErrNotFound indicates no record exists for the session id.
var ErrNotFound = errors.New("session record not found")
