package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"huddle/auth"
	"huddle/domain"
	"huddle/repositories"
	"huddle/runtime"
	"huddle/services"

	"github.com/dgraph-io/badger/v4"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	server   *httptest.Server
	tokens   *auth.TokenManager
	users    *repositories.UserRepository
	channels *repositories.ChannelRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.Default()
	users := repositories.NewUserRepository(db)
	channels := repositories.NewChannelRepository(db)
	messages := repositories.NewMessageRepository(db, log, 0)

	tokens := auth.NewTokenManager([]byte("test-key"), time.Hour)
	registry := runtime.NewRegistry(log)
	presence := runtime.NewPresence()
	typing := runtime.NewTyping(log, registry, 100*time.Millisecond)
	messageService := services.NewMessageService(log, messages, channels, users, registry)

	gateway := NewGateway(log, auth.NewAuthenticator(tokens, users),
		presence, registry, typing, messageService, users, 64)

	server := httptest.NewServer(gateway)
	t.Cleanup(server.Close)

	return &fixture{server: server, tokens: tokens, users: users, channels: channels}
}

func (f *fixture) registerUser(t *testing.T, username string) (domain.User, string) {
	t.Helper()
	user, err := f.users.CreateUser(context.Background(), username, username+"@example.com", "hash")
	require.NoError(t, err)
	token, err := f.tokens.Generate(user.ID, user.Username)
	require.NoError(t, err)
	return user, token
}

func (f *fixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(envelope{Event: event, Data: payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

// waitFor reads frames until the wanted event arrives, failing on timeout.
// Unrelated events in between are skipped.
func waitFor(t *testing.T, conn *websocket.Conn, event string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		_, frame, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %q", event)
		var env envelope
		require.NoError(t, json.Unmarshal(frame, &env))
		if env.Event != event {
			continue
		}
		var data map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &data))
		return data
	}
}

func TestGateway_RejectsUnauthenticatedConnection(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	url := "ws" + strings.TrimPrefix(f.server.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url+"?token=garbage", nil)
	req.Error(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestGateway_AdmissionSendsSnapshot(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	alice, aliceToken := f.registerUser(t, "alice")
	_, bobToken := f.registerUser(t, "bob")

	aliceConn := f.dial(t, aliceToken)
	online := waitFor(t, aliceConn, "user-online")
	req.Equal(alice.ID, online["userId"])

	snapshot := waitFor(t, aliceConn, "online-users-snapshot")
	req.Len(snapshot["users"], 1)

	// The second user's snapshot contains both
	bobConn := f.dial(t, bobToken)
	snapshot = waitFor(t, bobConn, "online-users-snapshot")
	req.Len(snapshot["users"], 2)
}

// End-to-end scenario: two users in a channel exchange a message, then one
// disconnects and the other observes the offline transition.
func TestGateway_MessageRoundTripAndDisconnect(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	alice, aliceToken := f.registerUser(t, "alice")
	bob, bobToken := f.registerUser(t, "bob")
	channel, err := f.channels.CreateChannel(context.Background(), "general", "", alice.ID, nil, false)
	req.NoError(err)

	aliceConn := f.dial(t, aliceToken)
	waitFor(t, aliceConn, "online-users-snapshot")
	bobConn := f.dial(t, bobToken)
	waitFor(t, bobConn, "online-users-snapshot")

	send(t, aliceConn, evtJoinRoom, channel.ID)
	waitFor(t, aliceConn, "user-joined-channel")
	send(t, bobConn, evtJoinRoom, channel.ID)
	waitFor(t, bobConn, "user-joined-channel")

	// Alice sends; both she and Bob receive the created event
	send(t, aliceConn, evtSendMessage, sendMessagePayload{Content: "hello", ChannelID: channel.ID})

	for _, conn := range []*websocket.Conn{aliceConn, bobConn} {
		created := waitFor(t, conn, "message-created")
		message := created["message"].(map[string]any)
		req.Equal("hello", message["content"])
		req.Equal(alice.ID, message["senderId"])
	}

	// Bob disconnects; Alice sees him go offline
	req.NoError(bobConn.Close())
	offline := waitFor(t, aliceConn, "user-offline")
	req.Equal(bob.ID, offline["userId"])
}

func TestGateway_ErrorsGoToRequesterOnly(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	_, aliceToken := f.registerUser(t, "alice")

	conn := f.dial(t, aliceToken)
	waitFor(t, conn, "online-users-snapshot")

	// sending to a channel that does not exist fails the requester alone
	send(t, conn, evtSendMessage, sendMessagePayload{Content: "hello", ChannelID: "nowhere"})
	errEvent := waitFor(t, conn, "error")
	req.Contains(errEvent["message"], "not found")
}

func TestGateway_TypingExcludesOriginator(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)

	alice, aliceToken := f.registerUser(t, "alice")
	_, bobToken := f.registerUser(t, "bob")
	channel, err := f.channels.CreateChannel(context.Background(), "general", "", alice.ID, nil, false)
	req.NoError(err)

	aliceConn := f.dial(t, aliceToken)
	waitFor(t, aliceConn, "online-users-snapshot")
	bobConn := f.dial(t, bobToken)
	waitFor(t, bobConn, "online-users-snapshot")

	send(t, aliceConn, evtJoinRoom, channel.ID)
	send(t, bobConn, evtJoinRoom, channel.ID)
	waitFor(t, bobConn, "user-joined-channel")

	send(t, aliceConn, evtTypingStart, channel.ID)

	typing := waitFor(t, bobConn, "user-typing-start")
	req.Equal(alice.ID, typing["userId"])

	// the expiry fires on its own (fixture timeout is 100ms)
	waitFor(t, bobConn, "user-typing-stop")
}
