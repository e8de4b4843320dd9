package recordstore

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound = errors.New("assessment not found")
	ErrExists   = errors.New("assessment already exists")
)
