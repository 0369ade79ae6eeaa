package models

import "errors"

// Collaborators wrap these so callers can classify failures with errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid input")
)
