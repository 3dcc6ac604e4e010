package runtime

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"huddle/domain"

	"github.com/stretchr/testify/require"
)

// recordingSink collects every event delivered to one session.
type recordingSink struct {
	mu     sync.Mutex
	events []domain.Event
	fail   bool
}

func (s *recordingSink) Consume(_ context.Context, e domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return context.Canceled
	}
	s.events = append(s.events, e)
	return nil
}

func (s *recordingSink) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.events {
		out = append(out, e.Name())
	}
	return out
}

func TestRegistry_JoinLeaveIdempotent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	sink := &recordingSink{}
	registry.Attach("s1", sink)

	// join, leave, join must equal a single join
	registry.Join("general", "s1")
	registry.Leave("general", "s1")
	registry.Join("general", "s1")
	registry.Join("general", "s1")

	req.Equal([]string{"s1"}, registry.Members("general"))

	// leaving a room never joined is a no-op
	registry.Leave("random", "s1")
	req.Equal([]string{"s1"}, registry.Members("general"))
}

func TestRegistry_BroadcastWithExclusion(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	ctx := context.Background()

	alice := &recordingSink{}
	bob := &recordingSink{}
	registry.Attach("alice-1", alice)
	registry.Attach("bob-1", bob)
	registry.Join("general", "alice-1")
	registry.Join("general", "bob-1")

	// Typing events exclude the originator
	registry.Broadcast(ctx, "general", domain.TypingEvent{Active: true, UserID: "alice", ChannelID: "general"}, "alice-1")
	req.Empty(alice.names())
	req.Equal([]string{"user-typing-start"}, bob.names())

	// Message events echo to the sender
	registry.Broadcast(ctx, "general", domain.MutationEvent{Kind: domain.MessageCreated, ChannelID: "general"}, "")
	req.Equal([]string{"message-created"}, alice.names())
	req.Equal([]string{"user-typing-start", "message-created"}, bob.names())
}

func TestRegistry_BroadcastSkipsFailedSink(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	ctx := context.Background()

	healthy := &recordingSink{}
	vanished := &recordingSink{fail: true}
	registry.Attach("s1", healthy)
	registry.Attach("s2", vanished)
	registry.Join("general", "s1")
	registry.Join("general", "s2")

	registry.Broadcast(ctx, "general", domain.MutationEvent{Kind: domain.MessageCreated, ChannelID: "general"}, "")

	// the healthy session still got the event
	req.Len(healthy.names(), 1)
}

func TestRegistry_DetachCleansEveryRoom(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())

	sink := &recordingSink{}
	registry.Attach("s1", sink)
	registry.Join("general", "s1")
	registry.Join("random", "s1")

	left := registry.Detach("s1")
	req.ElementsMatch([]string{"general", "random"}, left)
	req.Empty(registry.Members("general"))
	req.Empty(registry.Members("random"))

	// detaching again is harmless
	req.Empty(registry.Detach("s1"))
}

func TestRegistry_BroadcastAllAndSend(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(slog.Default())
	ctx := context.Background()

	alice := &recordingSink{}
	bob := &recordingSink{}
	registry.Attach("alice-1", alice)
	registry.Attach("bob-1", bob)

	// Presence transitions reach every attached session, room or not
	registry.BroadcastAll(ctx, domain.PresenceEvent{Online: true, UserID: "carol"}, "")
	req.Equal([]string{"user-online"}, alice.names())
	req.Equal([]string{"user-online"}, bob.names())

	// Send targets exactly one session
	registry.Send(ctx, "alice-1", domain.PresenceSnapshot{})
	req.Equal([]string{"user-online", "online-users-snapshot"}, alice.names())
	req.Equal([]string{"user-online"}, bob.names())

	// Sending to an unknown session is a no-op
	registry.Send(ctx, "ghost", domain.PresenceSnapshot{})
}

func TestRegistry_ConcurrentJoinLeaveDuringBroadcast(t *testing.T) {
	registry := NewRegistry(slog.Default())
	ctx := context.Background()

	for _, id := range []string{"s1", "s2", "s3"} {
		registry.Attach(id, &recordingSink{})
		registry.Join("general", id)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Broadcast(ctx, "general", domain.MutationEvent{Kind: domain.MessageCreated, ChannelID: "general"}, "")
		}()
		go func() {
			defer wg.Done()
			registry.Leave("general", "s2")
			registry.Join("general", "s2")
		}()
	}
	wg.Wait()
}
