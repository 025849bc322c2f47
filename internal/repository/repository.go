// Package repository provides GORM-backed persistence for the API's entities.
package repository

import "errors"

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict is returned when an update carries a stale version and
// loses the optimistic-locking race.
var ErrVersionConflict = errors.New("version conflict")
