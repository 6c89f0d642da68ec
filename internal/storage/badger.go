// Package storage provides BadgerDB-based persistence for analysis
// records, watchlists and the global ticker set.
package storage

import (
	"fmt"

	"github.com/timshannon/badgerhold/v4"

	"alphatalk/internal/common"
)

// BadgerDB wraps badgerhold for typed storage
type BadgerDB struct {
	store  *badgerhold.Store
	logger *common.Logger
}

// NewBadgerDB creates a new BadgerDB instance
func NewBadgerDB(logger *common.Logger, path string) (*BadgerDB, error) {
	opts := badgerhold.DefaultOptions
	opts.Dir = path
	opts.ValueDir = path
	opts.Logger = nil // Disable badger's internal logging

	store, err := badgerhold.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerDB opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
	}, nil
}

// Close closes the database
func (db *BadgerDB) Close() error {
	if db.store != nil {
		return db.store.Close()
	}
	return nil
}

// Store returns the underlying badgerhold store
func (db *BadgerDB) Store() *badgerhold.Store {
	return db.store
}
