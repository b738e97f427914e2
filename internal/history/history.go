// Package history keeps the bounded, newest-first ledger of backups.
package history

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/mrz1836/marksafe/internal/kvstore"
)

// Key is the store key of the ledger.
const Key = "backupHistory"

// ErrNotFound indicates no item has the requested id.
var ErrNotFound = errors.New("backup not found in history")

// Item records one backup.
type Item struct {
	ID            string `json:"id"`
	Timestamp     int64  `json:"timestamp"`
	Filename      string `json:"filename"`
	BookmarkCount int    `json:"bookmarkCount"`
	Format        string `json:"format"`
	Size          int    `json:"size"`
	Checksum      string `json:"checksum,omitempty"`
	Data          string `json:"data,omitempty"`
	Location      string `json:"location,omitempty"`
	Encrypted     bool   `json:"encrypted,omitempty"`
}

// HasData reports whether the serialized content is kept in the ledger.
func (i Item) HasData() bool {
	return i.Data != ""
}

// Ledger reads and writes the history record.
type Ledger struct {
	mu    sync.Mutex
	store kvstore.Store
}

// NewLedger creates a ledger over store.
func NewLedger(store kvstore.Store) *Ledger {
	return &Ledger{store: store}
}

// NewID returns the id for an item created at timestampMs. Ids are the
// creation time in milliseconds; one that would not be newer than the current
// head is bumped past it so ids stay unique and increasing.
func NewID(timestampMs int64, head []Item) string {
	id := timestampMs
	if len(head) > 0 {
		if prev, err := strconv.ParseInt(head[0].ID, 10, 64); err == nil && id <= prev {
			id = prev + 1
		}
	}
	return strconv.FormatInt(id, 10)
}

// Append inserts item at the front and truncates the ledger to keep entries.
// An empty item.ID is assigned with NewID. It returns the stored item.
func (l *Ledger) Append(item Item, keep int) (Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load()
	if err != nil {
		return Item{}, err
	}

	if item.ID == "" {
		item.ID = NewID(item.Timestamp, items)
	}

	if keep < 1 {
		keep = 1
	}
	items = append([]Item{item}, items...)
	if len(items) > keep {
		items = items[:keep]
	}

	if err := l.store.Set(Key, items); err != nil {
		return Item{}, fmt.Errorf("saving history: %w", err)
	}
	return item, nil
}

// List returns all items, newest first.
func (l *Ledger) List() ([]Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load()
}

// Get returns the first item with id.
func (l *Ledger) Get(id string) (Item, error) {
	items, err := l.List()
	if err != nil {
		return Item{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the item with id.
func (l *Ledger) Delete(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	items, err := l.load()
	if err != nil {
		return err
	}

	kept := make([]Item, 0, len(items))
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	if len(kept) == len(items) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if err := l.store.Set(Key, kept); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}

// Clear empties the ledger.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Set(Key, []Item{}); err != nil {
		return fmt.Errorf("clearing history: %w", err)
	}
	return nil
}

func (l *Ledger) load() ([]Item, error) {
	var items []Item
	if _, err := l.store.Get(Key, &items); err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}
