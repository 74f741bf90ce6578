package badger

import (
	"errors"
	"fmt"
	"os"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/hubcheck/internal/common"
)

// BadgerDB manages the Badger database holding cached sessions
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	config *common.SessionConfig
}

// NewBadgerDB opens (or creates) the session database
func NewBadgerDB(logger arbor.ILogger, config *common.SessionConfig) (*BadgerDB, error) {
	// Reset drops every cached session before opening
	if config.Reset {
		if _, err := os.Stat(config.Path); err == nil {
			logger.Debug().Str("path", config.Path).Msg("Deleting session database (reset=true)")
			if err := os.RemoveAll(config.Path); err != nil {
				logger.Warn().Err(err).Str("path", config.Path).Msg("Failed to delete session database")
			}
		}
	}

	if err := os.MkdirAll(config.Path, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session database directory: %w", err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = config.Path
	options.ValueDir = config.Path
	options.Logger = nil // Disable default badger logger to use arbor

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database at %s: %w", config.Path, err)
	}

	logger.Debug().Str("path", config.Path).Msg("Session database opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
		config: config,
	}, nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Compact reclaims value log space left behind by deleted entries
func (b *BadgerDB) Compact() error {
	rewrites := 0
	for {
		err := b.store.Badger().RunValueLogGC(0.5)
		if errors.Is(err, badgerdb.ErrNoRewrite) || errors.Is(err, badgerdb.ErrRejected) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to compact session database: %w", err)
		}
		rewrites++
	}
	b.logger.Debug().Int("rewrites", rewrites).Msg("Session database compacted")
	return nil
}

// Close closes the database connection
func (b *BadgerDB) Close() error {
	if b.store != nil {
		return b.store.Close()
	}
	return nil
}
