package repository

import "errors"

var (
	// ErrNotFound is returned when no record matches the lookup, including
	// records that exist but belong to another user.
	ErrNotFound = errors.New("record not found")
	// ErrEmailTaken is returned when a user with the same email already exists.
	ErrEmailTaken = errors.New("email already registered")
)
