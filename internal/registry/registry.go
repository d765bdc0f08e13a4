// internal/registry/registry.go
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Store persists the chat id to active flag mapping.
type Store interface {
	LoadActiveChats(ctx context.Context) (map[int64]bool, error)
	SaveActiveChats(ctx context.Context, chats map[int64]bool) error
}

// Registry tracks which chats the game runs in. Changes are kept in memory
// until Save is called.
type Registry struct {
	store Store

	mu    sync.RWMutex
	chats map[int64]bool
}

func New(store Store) *Registry {
	return &Registry{
		store: store,
		chats: make(map[int64]bool),
	}
}

func (r *Registry) Load(ctx context.Context) error {
	chats, err := r.store.LoadActiveChats(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active chats: %w", err)
	}

	r.mu.Lock()
	r.chats = make(map[int64]bool, len(chats))
	for id, active := range chats {
		r.chats[id] = active
	}
	r.mu.Unlock()
	return nil
}

func (r *Registry) Save(ctx context.Context) error {
	r.mu.RLock()
	snapshot := make(map[int64]bool, len(r.chats))
	for id, active := range r.chats {
		snapshot[id] = active
	}
	r.mu.RUnlock()

	if err := r.store.SaveActiveChats(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save active chats: %w", err)
	}
	return nil
}

// Activate returns true when the chat was not active before.
func (r *Registry) Activate(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	was := r.chats[chatID]
	r.chats[chatID] = true
	return !was
}

// Deactivate keeps the chat id with a false flag.
func (r *Registry) Deactivate(chatID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	was := r.chats[chatID]
	if _, ok := r.chats[chatID]; ok {
		r.chats[chatID] = false
	}
	return was
}

func (r *Registry) IsActive(chatID int64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chats[chatID]
}

// Active returns active chat ids in ascending order.
func (r *Registry) Active() []int64 {
	r.mu.RLock()
	ids := make([]int64, 0, len(r.chats))
	for id, active := range r.chats {
		if active {
			ids = append(ids, id)
		}
	}
	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
