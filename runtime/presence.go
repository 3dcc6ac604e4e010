// Package runtime holds the in-memory real-time core: presence tracking,
// room membership, event broadcast, and typing indicators. Everything here is
// process-local shared state guarded by mutexes; nothing blocks on I/O.
package runtime

import (
	"sort"
	"sync"
	"time"

	"huddle/domain"
)

type presenceEntry struct {
	userID        string
	username      string
	lastSessionID string
	joinedAt      time.Time
	sessions      map[string]struct{}
}

// Presence maps user identity to live session metadata. A user is online
// while at least one session exists; the entry reference-counts sessions so a
// second tab never produces a duplicate online transition and closing one of
// two tabs never produces a premature offline one.
type Presence struct {
	mu      sync.Mutex
	entries map[string]*presenceEntry
}

func NewPresence() *Presence {
	return &Presence{entries: make(map[string]*presenceEntry)}
}

// Register records a live session for the user and reports whether it is the
// user's first one. Re-registration from another session updates the tracked
// session identity without duplicating the entry.
func (p *Presence) Register(session domain.Session) (first bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[session.UserID]
	if !ok {
		p.entries[session.UserID] = &presenceEntry{
			userID:        session.UserID,
			username:      session.Username,
			lastSessionID: session.ID,
			joinedAt:      session.ConnectedAt,
			sessions:      map[string]struct{}{session.ID: {}},
		}
		return true
	}

	entry.sessions[session.ID] = struct{}{}
	entry.lastSessionID = session.ID
	return false
}

// Unregister drops one session and reports whether it was the user's last.
// Unknown users or sessions are a no-op so duplicate cleanup calls stay safe.
func (p *Presence) Unregister(userID, sessionID string) (last bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[userID]
	if !ok {
		return false
	}
	if _, ok := entry.sessions[sessionID]; !ok {
		return false
	}

	delete(entry.sessions, sessionID)
	if len(entry.sessions) > 0 {
		return false
	}
	delete(p.entries, userID)
	return true
}

// Snapshot returns a consistent point-in-time view of everyone online,
// ordered by when their first session appeared (user id breaks ties).
func (p *Presence) Snapshot() []domain.PresenceEntry {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]domain.PresenceEntry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, domain.PresenceEntry{
			UserID:    e.userID,
			Username:  e.username,
			SessionID: e.lastSessionID,
			JoinedAt:  e.joinedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}

// Count returns the number of distinct users currently online.
func (p *Presence) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
