package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"huddle/domain"
)

// DefaultTypingTimeout is how long a typing indicator stays active without a
// refresh before the stop transition fires on its own.
const DefaultTypingTimeout = 3 * time.Second

// Broadcaster is the slice of the Registry the typing tracker needs.
type Broadcaster interface {
	Broadcast(ctx context.Context, channelID string, e domain.Event, excludeSessionID string)
}

type typingKey struct {
	userID    string
	channelID string
}

type typingState struct {
	sessionID string
	username  string
	timer     *time.Timer
	// gen disambiguates a timer firing concurrently with an explicit stop or
	// a refresh: the expiry callback only acts if its generation still holds.
	gen uint64
}

// Typing tracks the idle/typing state machine per (user, channel) pair.
// Transitions broadcast exactly once: idle->typing on the first start signal,
// typing->idle on explicit stop or timeout, whichever comes first. Repeated
// start signals refresh the deadline silently.
type Typing struct {
	mu          sync.Mutex
	log         *slog.Logger
	broadcaster Broadcaster
	timeout     time.Duration
	active      map[typingKey]*typingState
}

func NewTyping(log *slog.Logger, broadcaster Broadcaster, timeout time.Duration) *Typing {
	if timeout <= 0 {
		timeout = DefaultTypingTimeout
	}
	return &Typing{
		log:         log,
		broadcaster: broadcaster,
		timeout:     timeout,
		active:      make(map[typingKey]*typingState),
	}
}

// Start handles a typing-start signal. The originating session is excluded
// from the broadcast so it never sees its own indicator.
func (t *Typing) Start(ctx context.Context, userID, username, channelID, sessionID string) {
	key := typingKey{userID: userID, channelID: channelID}

	t.mu.Lock()
	if state, ok := t.active[key]; ok {
		// Refresh: invalidate the pending timer and arm a new one. The old
		// callback becomes stale via the generation bump.
		state.timer.Stop()
		state.gen++
		state.sessionID = sessionID
		gen := state.gen
		state.timer = time.AfterFunc(t.timeout, func() {
			t.expire(key, gen)
		})
		t.mu.Unlock()
		return
	}

	state := &typingState{sessionID: sessionID, username: username}
	gen := state.gen
	state.timer = time.AfterFunc(t.timeout, func() {
		t.expire(key, gen)
	})
	t.active[key] = state
	t.mu.Unlock()

	t.broadcaster.Broadcast(ctx, channelID, domain.TypingEvent{
		Active:    true,
		UserID:    userID,
		Username:  username,
		ChannelID: channelID,
	}, sessionID)
}

// Stop handles an explicit typing-stop signal. Stopping while idle is a
// no-op, so a stop racing a timeout never broadcasts twice.
func (t *Typing) Stop(ctx context.Context, userID, channelID, sessionID string) {
	key := typingKey{userID: userID, channelID: channelID}

	t.mu.Lock()
	state, ok := t.active[key]
	if !ok {
		t.mu.Unlock()
		return
	}
	state.timer.Stop()
	delete(t.active, key)
	t.mu.Unlock()

	t.broadcaster.Broadcast(ctx, channelID, domain.TypingEvent{
		UserID:    userID,
		ChannelID: channelID,
	}, sessionID)
}

// ReleaseSession clears any typing state held by a disconnecting session so
// an indicator never outlives its connection.
func (t *Typing) ReleaseSession(ctx context.Context, sessionID string) {
	t.mu.Lock()
	var released []typingKey
	for key, state := range t.active {
		if state.sessionID != sessionID {
			continue
		}
		state.timer.Stop()
		delete(t.active, key)
		released = append(released, key)
	}
	t.mu.Unlock()

	for _, key := range released {
		t.broadcaster.Broadcast(ctx, key.channelID, domain.TypingEvent{
			UserID:    key.userID,
			ChannelID: key.channelID,
		}, sessionID)
	}
}

// expire runs on the timer goroutine when the timeout elapses. A refresh or
// explicit stop bumps or removes the state first, in which case this firing
// is stale and must do nothing.
func (t *Typing) expire(key typingKey, gen uint64) {
	t.mu.Lock()
	state, ok := t.active[key]
	if !ok || state.gen != gen {
		t.mu.Unlock()
		return
	}
	sessionID := state.sessionID
	delete(t.active, key)
	t.mu.Unlock()

	t.log.Debug("typing indicator expired", "user_id", key.userID, "channel_id", key.channelID)
	t.broadcaster.Broadcast(context.Background(), key.channelID, domain.TypingEvent{
		UserID:    key.userID,
		ChannelID: key.channelID,
	}, sessionID)
}
