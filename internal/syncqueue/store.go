// ABOUTME: Durable local storage contract for pending set entries.
// ABOUTME: Entries are keyed by local ID and listed in capture order.
package syncqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/harperreed/readiness/internal/models"
)

// KeyPrefix namespaces pending entries in key-value stores.
const KeyPrefix = "set:"

// PendingStore is durable storage for entries that have not been
// acknowledged remotely. Append must not return until the entry is durable.
type PendingStore interface {
	Append(ctx context.Context, e models.PendingSetEntry) error
	Remove(ctx context.Context, localID string) error
	ListAll(ctx context.Context) ([]models.PendingSetEntry, error)
	Close() error
}

// Key returns the storage key for a local ID.
func Key(localID string) []byte {
	return []byte(KeyPrefix + localID)
}

// EncodeEntry serializes an entry for storage.
func EncodeEntry(e models.PendingSetEntry) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode entry %s: %w", e.LocalID, err)
	}
	return data, nil
}

// DecodeEntry parses a stored entry.
func DecodeEntry(data []byte) (models.PendingSetEntry, error) {
	var e models.PendingSetEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return models.PendingSetEntry{}, fmt.Errorf("decode entry: %w", err)
	}
	return e, nil
}

// SortEntries orders entries by CreatedAt, then LocalID.
func SortEntries(entries []models.PendingSetEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.Before(entries[j].CreatedAt)
		}
		return entries[i].LocalID < entries[j].LocalID
	})
}
