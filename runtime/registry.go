package runtime

import (
	"context"
	"log/slog"
	"sync"

	"huddle/domain"
)

type set map[string]struct{}

// Registry is the room membership table and broadcast dispatcher. It tracks
// which sessions subscribed to which channel rooms and owns the session ->
// sink directory used to deliver events.
//
// Membership is session-scoped: a user with two sessions may have one joined
// to a room and the other not. Join and Leave are idempotent.
type Registry struct {
	mu    sync.RWMutex
	log   *slog.Logger
	sinks map[string]domain.EventSink // session id -> sink
	rooms map[string]set              // channel id -> session ids
	// reverse index so Detach can clean every room a session joined
	joined map[string]set // session id -> channel ids
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:    log,
		sinks:  make(map[string]domain.EventSink),
		rooms:  make(map[string]set),
		joined: make(map[string]set),
	}
}

// Attach registers a session's delivery sink. It must be called before the
// session joins any room.
func (r *Registry) Attach(sessionID string, sink domain.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks[sessionID] = sink
}

// Detach removes the session's sink and withdraws it from every room it had
// joined, returning the identities of those rooms. Detaching an unknown
// session is a no-op.
func (r *Registry) Detach(sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sinks, sessionID)

	var left []string
	for channelID := range r.joined[sessionID] {
		left = append(left, channelID)
		r.removeMember(channelID, sessionID)
	}
	delete(r.joined, sessionID)
	return left
}

// Join subscribes a session to a channel room. Joining twice is a no-op.
func (r *Registry) Join(channelID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[channelID]; !ok {
		r.rooms[channelID] = make(set)
	}
	r.rooms[channelID][sessionID] = struct{}{}

	if _, ok := r.joined[sessionID]; !ok {
		r.joined[sessionID] = make(set)
	}
	r.joined[sessionID][channelID] = struct{}{}
}

// Leave withdraws a session from a room. Leaving a room the session never
// joined is a no-op.
func (r *Registry) Leave(channelID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeMember(channelID, sessionID)
	if channels, ok := r.joined[sessionID]; ok {
		delete(channels, channelID)
		if len(channels) == 0 {
			delete(r.joined, sessionID)
		}
	}
}

// removeMember must be called with the write lock held.
func (r *Registry) removeMember(channelID, sessionID string) {
	members, ok := r.rooms[channelID]
	if !ok {
		return
	}
	delete(members, sessionID)
	if len(members) == 0 {
		delete(r.rooms, channelID)
	}
}

// Members returns the session ids currently subscribed to a room.
func (r *Registry) Members(channelID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]string, 0, len(r.rooms[channelID]))
	for sessionID := range r.rooms[channelID] {
		members = append(members, sessionID)
	}
	return members
}

// Broadcast delivers an event to every session in the room, except the
// optionally excluded sender. The member set is snapshotted under the read
// lock and iterated outside it, so sessions joining or leaving mid-broadcast
// neither crash nor double-deliver. Delivery is best-effort: a sink that
// errors (typically a session that vanished mid-iteration) is skipped.
func (r *Registry) Broadcast(ctx context.Context, channelID string, e domain.Event, excludeSessionID string) {
	r.mu.RLock()
	targets := make([]domain.EventSink, 0, len(r.rooms[channelID]))
	for sessionID := range r.rooms[channelID] {
		if sessionID == excludeSessionID {
			continue
		}
		if sink, ok := r.sinks[sessionID]; ok {
			targets = append(targets, sink)
		}
	}
	r.mu.RUnlock()

	r.deliver(ctx, targets, e)
}

// BroadcastAll delivers an event to every attached session regardless of room
// membership. Used for global presence transitions.
func (r *Registry) BroadcastAll(ctx context.Context, e domain.Event, excludeSessionID string) {
	r.mu.RLock()
	targets := make([]domain.EventSink, 0, len(r.sinks))
	for sessionID, sink := range r.sinks {
		if sessionID == excludeSessionID {
			continue
		}
		targets = append(targets, sink)
	}
	r.mu.RUnlock()

	r.deliver(ctx, targets, e)
}

// Send delivers an event to one session only.
func (r *Registry) Send(ctx context.Context, sessionID string, e domain.Event) {
	r.mu.RLock()
	sink, ok := r.sinks[sessionID]
	r.mu.RUnlock()
	if !ok {
		return
	}
	r.deliver(ctx, []domain.EventSink{sink}, e)
}

func (r *Registry) deliver(ctx context.Context, targets []domain.EventSink, e domain.Event) {
	for _, sink := range targets {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Debug("event delivery skipped", "event", e.Name(), "error", err)
		}
	}
}
