package telegram

import (
	"sync"
	"time"

	"github.com/vadimtrunov/MovieDeck/internal/viewstate"
)

// DefaultSessionIdleTTL is how long a session may go unused before it is evicted.
const DefaultSessionIdleTTL = 30 * time.Minute

type session struct {
	coord    *viewstate.Coordinator
	lastUsed time.Time
}

// sessionManager manages per-user coordinator sessions and access control.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*session
	allowed  map[int64]bool // nil or empty = allow all
	now      func() time.Time
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions: make(map[int64]*session),
		allowed:  allowed,
		now:      time.Now,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// getOrCreate returns an existing session or creates a new one using the factory.
// If the factory returns nil, the result is not cached so the next call can retry.
func (sm *sessionManager) getOrCreate(userID int64, factory SessionFactory) *viewstate.Coordinator {
	sm.mu.Lock()
	if s, ok := sm.sessions[userID]; ok {
		s.lastUsed = sm.now()
		sm.mu.Unlock()
		return s.coord
	}
	sm.mu.Unlock()

	// Call factory without holding the lock to avoid blocking other users.
	c := factory()
	if c == nil {
		return nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	// Another goroutine may have created the session meanwhile.
	if existing, ok := sm.sessions[userID]; ok {
		c.Close()
		existing.lastUsed = sm.now()
		return existing.coord
	}
	sm.sessions[userID] = &session{coord: c, lastUsed: sm.now()}
	return c
}

// reset closes a user's session, forcing a fresh coordinator on next message.
func (sm *sessionManager) reset(userID int64) {
	sm.mu.Lock()
	s, ok := sm.sessions[userID]
	delete(sm.sessions, userID)
	sm.mu.Unlock()

	if ok {
		s.coord.Close()
	}
}

// evictIdle closes sessions unused for longer than ttl and returns how many
// were closed. Sessions with fetches in flight are kept.
func (sm *sessionManager) evictIdle(ttl time.Duration) int {
	cutoff := sm.now().Add(-ttl)

	sm.mu.Lock()
	var idle []*viewstate.Coordinator
	for userID, s := range sm.sessions {
		if s.lastUsed.Before(cutoff) && !s.coord.Loading() {
			idle = append(idle, s.coord)
			delete(sm.sessions, userID)
		}
	}
	sm.mu.Unlock()

	for _, c := range idle {
		c.Close()
	}
	return len(idle)
}

// closeAll closes every session.
func (sm *sessionManager) closeAll() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[int64]*session)
	sm.mu.Unlock()

	for _, s := range sessions {
		s.coord.Close()
	}
}

func (sm *sessionManager) count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return len(sm.sessions)
}
