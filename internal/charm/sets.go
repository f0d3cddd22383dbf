// ABOUTME: Pending set storage on Charm KV, an alternative queue backend.
// ABOUTME: Entries live under set:<localID> and are backed up to Charm Cloud.
package charm

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/harperreed/readiness/internal/models"
	"github.com/harperreed/readiness/internal/syncqueue"
)

// Store adapts a Client to syncqueue.PendingStore.
type Store struct {
	c      *Client
	logger *log.Logger
}

var _ syncqueue.PendingStore = (*Store)(nil)

// NewStore wraps c. Skipped entries are reported to logger, which may be nil.
func NewStore(c *Client, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{c: c, logger: logger}
}

// OpenStore initializes the global client and wraps it.
func OpenStore(logger *log.Logger) (*Store, error) {
	c, err := InitClient()
	if err != nil {
		return nil, err
	}
	return NewStore(c, logger), nil
}

// Append writes the entry to the local kv before returning.
func (s *Store) Append(ctx context.Context, e models.PendingSetEntry) error {
	data, err := syncqueue.EncodeEntry(e)
	if err != nil {
		return err
	}
	if err := s.c.set(syncqueue.Key(e.LocalID), data); err != nil {
		return fmt.Errorf("append entry %s: %w", e.LocalID, err)
	}
	return nil
}

// Remove deletes an acknowledged entry.
func (s *Store) Remove(ctx context.Context, localID string) error {
	if err := s.c.delete(syncqueue.Key(localID)); err != nil {
		return fmt.Errorf("remove entry %s: %w", localID, err)
	}
	return nil
}

// ListAll returns pending entries in capture order. Undecodable values
// are logged with their key and skipped.
func (s *Store) ListAll(ctx context.Context) ([]models.PendingSetEntry, error) {
	pairs, err := s.c.listByPrefix([]byte(syncqueue.KeyPrefix))
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return decodeAll(pairs, s.logger), nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	return s.c.Close()
}

func decodeAll(pairs []kvPair, logger *log.Logger) []models.PendingSetEntry {
	entries := make([]models.PendingSetEntry, 0, len(pairs))
	for _, p := range pairs {
		e, err := syncqueue.DecodeEntry(p.value)
		if err != nil {
			logger.Warn("skipping undecodable entry", "key", string(p.key), "error", err)
			continue
		}
		entries = append(entries, e)
	}
	syncqueue.SortEntries(entries)
	return entries
}
