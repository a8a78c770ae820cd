package state

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sukalov/chordbook/internal/users"
)

// SessionStore persists sessions between restarts.
type SessionStore interface {
	SetSessions(ctx context.Context, sessions []users.Session) error
	GetSessions(ctx context.Context) ([]users.Session, error)
}

// StateManager holds one session per chat. With a store, every change is
// mirrored to it.
type StateManager struct {
	mu       sync.RWMutex
	sessions map[int64]users.Session
	store    SessionStore
	now      func() time.Time
}

// NewStateManager returns a manager; store may be nil.
func NewStateManager(store SessionStore) *StateManager {
	return &StateManager{
		sessions: make(map[int64]users.Session),
		store:    store,
		now:      time.Now,
	}
}

// Init loads the saved sessions.
func (sm *StateManager) Init(ctx context.Context) error {
	if sm.store == nil {
		return nil
	}

	list, err := sm.store.GetSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load sessions: %w", err)
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.sessions = make(map[int64]users.Session, len(list))
	for _, s := range list {
		sm.sessions[s.ChatID] = s
	}
	return nil
}

// Get returns the session of chatID, or a fresh one.
func (sm *StateManager) Get(chatID int64) users.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if s, ok := sm.sessions[chatID]; ok {
		return s
	}
	return users.Session{ChatID: chatID}
}

// Update applies fn to the session of chatID and saves the result.
func (sm *StateManager) Update(ctx context.Context, chatID int64, fn func(*users.Session)) (users.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.sessions[chatID]
	if !ok {
		s = users.Session{ChatID: chatID}
	}
	fn(&s)
	s.ChatID = chatID
	s.UpdatedAt = sm.now()
	sm.sessions[chatID] = s

	return s, sm.sync(ctx)
}

// Remove forgets chatID.
func (sm *StateManager) Remove(ctx context.Context, chatID int64) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	delete(sm.sessions, chatID)
	return sm.sync(ctx)
}

// ForgetSong closes songID in every session that has it open, as after a
// delete.
func (sm *StateManager) ForgetSong(ctx context.Context, songID int) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	changed := false
	for id, s := range sm.sessions {
		if s.SongID == songID {
			s.SongID, s.SongName, s.Transpose = 0, "", 0
			sm.sessions[id] = s
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return sm.sync(ctx)
}

// GetAll returns every session, oldest update first.
func (sm *StateManager) GetAll() []users.Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.list()
}

// Expire drops sessions not updated for longer than ttl.
func (sm *StateManager) Expire(ctx context.Context, ttl time.Duration) (int, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cutoff := sm.now().Add(-ttl)
	removed := 0
	for id, s := range sm.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(sm.sessions, id)
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}
	return removed, sm.sync(ctx)
}

func (sm *StateManager) list() []users.Session {
	list := make([]users.Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		list = append(list, s)
	}
	slices.SortFunc(list, func(a, b users.Session) int {
		if c := a.UpdatedAt.Compare(b.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ChatID, b.ChatID)
	})
	return list
}

// sync writes the sessions to the store. The caller holds the lock.
func (sm *StateManager) sync(ctx context.Context) error {
	if sm.store == nil {
		return nil
	}
	if err := sm.store.SetSessions(ctx, sm.list()); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}
