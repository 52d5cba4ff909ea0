// Package funddb provides BadgerHold-based storage for fund and portfolio data.
package funddb

import (
	"fmt"
	"os"

	"github.com/timshannon/badgerhold/v4"

	"github.com/tidewater/fundval/internal/common"
)

// Store wraps a BadgerHold database connection.
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
}

// keySep is the composite key separator. Using a null byte prevents
// collisions when account or code contain separator-like characters.
const keySep = "\x00"

// compositeKey builds a two-part storage key.
func compositeKey(a, b string) string {
	return a + keySep + b
}

// NewStore creates a new BadgerHold store at the given directory path.
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create funddb directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open funddb at %s: %w", path, err)
	}

	logger.Debug().Str("path", path).Msg("FundDB store opened")

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// DB returns the underlying badgerhold store.
func (s *Store) DB() *badgerhold.Store {
	return s.db
}

// Close closes the BadgerHold database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
