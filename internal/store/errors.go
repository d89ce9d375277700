package store

import "errors"

var (
	// ErrNotFound is returned only where a row is required to exist. Lookups
	// report a missing row as a nil result instead.
	ErrNotFound = errors.New("record not found")

	// ErrStaleVersion means the row's version moved on since it was read.
	ErrStaleVersion = errors.New("stale version: row modified by another writer")
)
