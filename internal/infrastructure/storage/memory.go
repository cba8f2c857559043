package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	inventoryapp "github.com/erp/inventory/internal/application/inventory"
)

// InMemoryReportStorage keeps exports in memory. It backs report exports
// in development and tests when no object storage is configured.
type InMemoryReportStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// BaseURL is used for generated download URLs
	BaseURL string
}

// NewInMemoryReportStorage creates a new InMemoryReportStorage
func NewInMemoryReportStorage() *InMemoryReportStorage {
	return &InMemoryReportStorage{
		objects: make(map[string][]byte),
		BaseURL: "http://localhost/exports",
	}
}

// Ensure InMemoryReportStorage implements ReportStorage
var _ inventoryapp.ReportStorage = (*InMemoryReportStorage)(nil)

// Upload stores data under the given key
func (s *InMemoryReportStorage) Upload(ctx context.Context, storageKey string, data []byte, contentType string) error {
	if storageKey == "" {
		return errors.New("storage key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	s.objects[storageKey] = buf
	return nil
}

// GenerateDownloadURL returns a synthetic download URL for a stored export
func (s *InMemoryReportStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	if storageKey == "" {
		return "", time.Time{}, errors.New("storage key is required")
	}

	s.mu.RLock()
	_, ok := s.objects[storageKey]
	s.mu.RUnlock()
	if !ok {
		return "", time.Time{}, fmt.Errorf("object not found: %s", storageKey)
	}

	expiresAt := time.Now().Add(expiresIn)
	return s.BaseURL + "/" + storageKey, expiresAt, nil
}

// Get returns a stored export
func (s *InMemoryReportStorage) Get(storageKey string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[storageKey]
	return data, ok
}

// Len returns the number of stored exports
func (s *InMemoryReportStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
