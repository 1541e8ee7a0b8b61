// Package blob is the attachment storage boundary. Keys are content
// addressed per ticket.
package blob

import (
	"context"
	"encoding/hex"
	"errors"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// ErrNotFound is returned for unknown keys.
var ErrNotFound = errors.New("blob not found")

// Store is an opaque blob store keyed by ticket.
type Store interface {
	Put(ctx context.Context, key string, content []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
}

// Key derives the storage key for content attached to ticketID.
func Key(ticketID string, content []byte) string {
	sum := blake2b.Sum256(content)
	return "tickets/" + ticketID + "/" + hex.EncodeToString(sum[:])
}

// MemoryStore keeps blobs in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

func (s *MemoryStore) Put(_ context.Context, key string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), content...)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), content...), nil
}
