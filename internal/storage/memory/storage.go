package memory

import (
	"context"
	"sync"

	"github.com/mcoot/mindgym/internal/model"
	"github.com/mcoot/mindgym/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	profiles      map[model.SessionToken][]byte
	authenticated map[model.SessionToken]bool
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		profiles:      make(map[model.SessionToken][]byte),
		authenticated: make(map[model.SessionToken]bool),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Profile operations

func (s *Storage) SaveProfile(ctx context.Context, token model.SessionToken, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(data))
	copy(stored, data)
	s.profiles[token] = stored
	return nil
}

func (s *Storage) GetProfile(ctx context.Context, token model.SessionToken) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.profiles[token]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	result := make([]byte, len(data))
	copy(result, data)
	return result, nil
}

func (s *Storage) DeleteProfile(ctx context.Context, token model.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, token)
	return nil
}

// Authentication marker operations

func (s *Storage) SetAuthenticated(ctx context.Context, token model.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated[token] = true
	return nil
}

func (s *Storage) IsAuthenticated(ctx context.Context, token model.SessionToken) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated[token], nil
}

func (s *Storage) ClearAuthenticated(ctx context.Context, token model.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.authenticated, token)
	return nil
}

// Touch is a no-op; memory entries live until deleted
func (s *Storage) Touch(ctx context.Context, token model.SessionToken) error {
	return nil
}

func (s *Storage) DeleteSession(ctx context.Context, token model.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, token)
	delete(s.authenticated, token)
	return nil
}
