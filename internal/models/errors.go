package models

import "errors"

// ErrNotFound is returned by repositories when a row does not exist.
// Callers treat it as a normal outcome, not a failure.
var ErrNotFound = errors.New("not found")
