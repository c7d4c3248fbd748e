package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileStore keeps summaries in memory and mirrors them to a JSON file
type FileStore struct {
	filePath string
	ttl      time.Duration
	items    map[string]SummaryRecord
	mu       sync.RWMutex
	now      func() time.Time
}

// NewFileStore creates a file store and loads any existing file
func NewFileStore(filePath string, ttl time.Duration) (*FileStore, error) {
	fs := &FileStore{
		filePath: filePath,
		ttl:      ttl,
		items:    make(map[string]SummaryRecord),
		now:      time.Now,
	}
	if err := fs.Load(); err != nil {
		return nil, err
	}
	return fs, nil
}

// Load loads existing records from file, skipping expired ones
func (fs *FileStore) Load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := os.ReadFile(fs.filePath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read summary file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var items []SummaryRecord
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal summaries: %w", err)
	}

	for _, item := range items {
		if fs.fresh(item) {
			fs.items[item.URL] = item
		}
	}
	return nil
}

// Save writes current records to file
func (fs *FileStore) Save() error {
	fs.mu.RLock()
	items := make([]SummaryRecord, 0, len(fs.items))
	for _, item := range fs.items {
		items = append(items, item)
	}
	fs.mu.RUnlock()

	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summaries: %w", err)
	}
	if err := os.WriteFile(fs.filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary file: %w", err)
	}
	return nil
}

func (fs *FileStore) Get(_ context.Context, url string) (SummaryRecord, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	item, ok := fs.items[url]
	if !ok || !fs.fresh(item) {
		return SummaryRecord{}, ErrNotFound
	}
	return item, nil
}

// Put stores rec and flushes the file.
func (fs *FileStore) Put(_ context.Context, rec SummaryRecord) error {
	fs.mu.Lock()
	fs.items[rec.URL] = rec
	fs.mu.Unlock()
	return fs.Save()
}

// Cleanup removes expired records from memory
func (fs *FileStore) Cleanup() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	removed := 0
	for url, item := range fs.items {
		if !fs.fresh(item) {
			delete(fs.items, url)
			removed++
		}
	}
	return removed
}

func (fs *FileStore) Len() int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return len(fs.items)
}

// Close flushes the file.
func (fs *FileStore) Close() error {
	fs.Cleanup()
	return fs.Save()
}

func (fs *FileStore) fresh(item SummaryRecord) bool {
	return fs.now().Sub(item.CreatedAt) < fs.ttl
}
