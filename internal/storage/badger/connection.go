package badger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/menuscout/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// gcDiscardRatio is the value log garbage ratio that triggers a rewrite on close
const gcDiscardRatio = 0.5

// BadgerDB holds the run history store
type BadgerDB struct {
	store  *badgerhold.Store
	logger arbor.ILogger
	path   string
}

// NewBadgerDB opens the run history database at config.Path
func NewBadgerDB(logger arbor.ILogger, config *common.BadgerConfig) (*BadgerDB, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("badger path is required")
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Run records are small and rewritten rarely, one version and small value logs are enough
	options := badgerhold.DefaultOptions
	options.Options = badger.DefaultOptions(config.Path).
		WithLogger(nil).
		WithNumVersionsToKeep(1).
		WithValueLogFileSize(16 << 20)

	store, err := badgerhold.Open(options)
	if err != nil {
		logger.Error().Err(err).Str("path", config.Path).Msg("Failed to open run history database")
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", config.Path).Msg("Run history database opened")

	return &BadgerDB{
		store:  store,
		logger: logger,
		path:   config.Path,
	}, nil
}

// Store returns the underlying badgerhold store
func (b *BadgerDB) Store() *badgerhold.Store {
	return b.store
}

// Close runs one value log GC pass and closes the database
func (b *BadgerDB) Close() error {
	if b.store == nil {
		return nil
	}

	if err := b.store.Badger().RunValueLogGC(gcDiscardRatio); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
		b.logger.Debug().Err(err).Str("path", b.path).Msg("Value log GC skipped")
	}

	err := b.store.Close()
	b.store = nil
	return err
}
