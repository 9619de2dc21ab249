// Package store provides typed repositories over the relational document
// store. Multi-step mutations that must be atomic (contributor appends,
// insert-if-absent admissions, version numbering, restores) are wrapped in
// transactions here so callers get single logical operations.
package store

import (
	"errors"

	"gorm.io/gorm"
)

// Store bundles all repositories over one database handle.
type Store struct {
	db *gorm.DB
}

// New creates a Store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("database connection is required")
	}
	return &Store{db: db}, nil
}
