package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mmeshcher/storefront-checkout/internal/model"
)

// MemoryRepository хранит сеансы в памяти процесса.
type MemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*model.Session
}

// NewMemoryRepository создаёт пустое хранилище сеансов в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		sessions: make(map[string]*model.Session),
	}
}

// Close освобождает хранилище.
func (r *MemoryRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions = make(map[string]*model.Session)
	return nil
}

// Create сохраняет новый сеанс.
func (r *MemoryRepository) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrSessionExists, s.ID)
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

// Get возвращает копию сеанса по идентификатору.
func (r *MemoryRepository) Get(_ context.Context, id string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Save обновляет существующий сеанс.
func (r *MemoryRepository) Save(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.ID]; !ok {
		return ErrSessionNotFound
	}
	r.sessions[s.ID] = s.Clone()
	return nil
}

// Delete удаляет сеанс.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// DeleteExpired удаляет сеансы, не обновлявшиеся с указанного момента.
func (r *MemoryRepository) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, s := range r.sessions {
		if s.UpdatedAt.Before(before) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
