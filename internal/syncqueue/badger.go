// ABOUTME: Badger-backed PendingStore with synchronous writes.
// ABOUTME: Default durable queue storage on the device.
package syncqueue

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v3"

	"github.com/harperreed/readiness/internal/models"
)

// BadgerStore persists pending entries in a local badger database.
type BadgerStore struct {
	db     *badger.DB
	logger *log.Logger
}

type badgerSettings struct {
	opts   badger.Options
	logger *log.Logger
}

// BadgerOption configures OpenBadger.
type BadgerOption func(*badgerSettings)

// WithInMemory keeps the store in memory. Used by tests.
func WithInMemory() BadgerOption {
	return func(s *badgerSettings) {
		s.opts = s.opts.WithDir("").WithValueDir("").WithInMemory(true)
	}
}

// WithBadgerLogger sends the store's warnings and badger's internal
// logging to l. A nil logger is ignored.
func WithBadgerLogger(l *log.Logger) BadgerOption {
	return func(s *badgerSettings) {
		if l == nil {
			return
		}
		s.logger = l
		s.opts = s.opts.WithLogger(badgerLogger{l})
	}
}

// OpenBadger opens or creates a badger store in dir.
func OpenBadger(dir string, opts ...BadgerOption) (*BadgerStore, error) {
	discard := log.New(io.Discard)
	settings := badgerSettings{
		opts: badger.DefaultOptions(dir).
			WithSyncWrites(true).
			WithLogger(badgerLogger{discard}),
		logger: discard,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	if !settings.opts.InMemory {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("create queue directory: %w", err)
		}
	}

	db, err := badger.Open(settings.opts)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}
	return &BadgerStore{db: db, logger: settings.logger}, nil
}

// Append writes the entry and returns once it is synced to disk.
func (s *BadgerStore) Append(ctx context.Context, e models.PendingSetEntry) error {
	data, err := EncodeEntry(e)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(Key(e.LocalID), data)
	})
}

// Remove deletes an acknowledged entry. Removing a missing entry is not an error.
func (s *BadgerStore) Remove(ctx context.Context, localID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(Key(localID))
	})
}

// ListAll returns every pending entry in capture order. Values that do not
// decode are logged with their key and left in place.
func (s *BadgerStore) ListAll(ctx context.Context) ([]models.PendingSetEntry, error) {
	var entries []models.PendingSetEntry
	prefix := []byte(KeyPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				e, err := DecodeEntry(val)
				if err != nil {
					s.logger.Warn("skipping undecodable entry", "key", string(item.Key()), "error", err)
					return nil
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list pending entries: %w", err)
	}

	SortEntries(entries)
	return entries, nil
}

// Close closes the badger database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// badgerLogger adapts a charm logger to badger.Logger.
type badgerLogger struct {
	l *log.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{}) { b.l.Errorf(format, args...) }
func (b badgerLogger) Warningf(format string, args ...interface{}) { b.l.Warnf(format, args...) }
func (b badgerLogger) Infof(format string, args ...interface{}) { b.l.Debugf(format, args...) }
func (b badgerLogger) Debugf(format string, args ...interface{}) { b.l.Debugf(format, args...) }
