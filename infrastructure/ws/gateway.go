package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"huddle/auth"
	"huddle/domain"
	"huddle/repositories"
	"huddle/runtime"
	"huddle/services"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Gateway is the connection lifecycle handler: it authenticates inbound
// connections, registers presence, routes client events into the core, and
// tears everything down on disconnect.
type Gateway struct {
	log        *slog.Logger
	upgrader   websocket.Upgrader
	authn      *auth.Authenticator
	presence   *runtime.Presence
	registry   *runtime.Registry
	typing     *runtime.Typing
	messages   services.IMessageService
	users      repositories.IUserRepository
	sendBuffer int
}

func NewGateway(
	log *slog.Logger,
	authn *auth.Authenticator,
	presence *runtime.Presence,
	registry *runtime.Registry,
	typing *runtime.Typing,
	messages services.IMessageService,
	users repositories.IUserRepository,
	sendBuffer int,
) *Gateway {
	return &Gateway{
		log:   log,
		authn: authn,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		presence:   presence,
		registry:   registry,
		typing:     typing,
		messages:   messages,
		users:      users,
		sendBuffer: sendBuffer,
	}
}

// ServeHTTP admits one WebSocket connection. Authentication completes before
// the upgrade: a rejected connection never reaches any event handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	user, err := g.authn.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		g.log.Warn("connection rejected", "error", err)
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("upgrade failed", "error", err)
		return
	}

	session := domain.Session{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Username:    user.Username,
		ConnectedAt: time.Now().UTC(),
	}
	c := newClient(g, session, conn, g.sendBuffer, g.log)

	ctx := context.Background()
	g.admit(ctx, c)

	go c.writePump()
	go c.readPump(ctx)
}

// admit wires a freshly authenticated session into the registries and
// announces it. The sink attaches before presence registers so the session
// can receive from the moment it becomes visible.
func (g *Gateway) admit(ctx context.Context, c *client) {
	g.registry.Attach(c.session.ID, c)
	first := g.presence.Register(c.session)

	g.log.Info("session connected",
		"session_id", c.session.ID,
		"user_id", c.session.UserID,
		"first_session", first)

	if first {
		g.registry.BroadcastAll(ctx, domain.PresenceEvent{
			Online:      true,
			UserID:      c.session.UserID,
			Username:    c.session.Username,
			OnlineCount: g.presence.Count(),
		}, "")
		// Durable flag is best-effort; in-memory presence is authoritative.
		if err := g.users.SetPresence(ctx, c.session.UserID, true, time.Now().UTC()); err != nil {
			g.log.Warn("presence store update failed", "user_id", c.session.UserID, "error", err)
		}
	}

	g.registry.Send(ctx, c.session.ID, domain.PresenceSnapshot{Users: g.presence.Snapshot()})
}

// disconnect tears a session down. It is reached exactly once per session,
// however many times the transport reports the close.
func (g *Gateway) disconnect(c *client) {
	ctx := context.Background()

	g.typing.ReleaseSession(ctx, c.session.ID)
	for _, channelID := range g.registry.Detach(c.session.ID) {
		g.registry.Broadcast(ctx, channelID, domain.RoomEvent{
			UserID:    c.session.UserID,
			Username:  c.session.Username,
			ChannelID: channelID,
		}, "")
	}

	last := g.presence.Unregister(c.session.UserID, c.session.ID)
	g.log.Info("session disconnected",
		"session_id", c.session.ID,
		"user_id", c.session.UserID,
		"last_session", last)

	if last {
		g.registry.BroadcastAll(ctx, domain.PresenceEvent{
			UserID:      c.session.UserID,
			OnlineCount: g.presence.Count(),
		}, "")
		if err := g.users.SetPresence(ctx, c.session.UserID, false, time.Now().UTC()); err != nil {
			g.log.Warn("presence store update failed", "user_id", c.session.UserID, "error", err)
		}
	}
}

// dispatch routes one inbound frame. Handler failures are reported to the
// requesting client only, as an error event.
func (g *Gateway) dispatch(ctx context.Context, c *client, frame []byte) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		g.fail(ctx, c, err)
		return
	}

	var err error
	switch env.Event {
	case evtJoinRoom:
		err = g.joinRoom(ctx, c, env.Data)
	case evtLeaveRoom:
		err = g.leaveRoom(ctx, c, env.Data)
	case evtSendMessage:
		err = g.sendMessage(ctx, c, env.Data)
	case evtEditMessage:
		err = g.editMessage(ctx, c, env.Data)
	case evtDeleteMessage:
		err = g.deleteMessage(ctx, c, env.Data)
	case evtTypingStart:
		err = g.typingSignal(ctx, c, env.Data, true)
	case evtTypingStop:
		err = g.typingSignal(ctx, c, env.Data, false)
	default:
		g.log.Debug("unknown event", "event", env.Event, "session_id", c.session.ID)
		return
	}
	if err != nil {
		g.fail(ctx, c, err)
	}
}

func (g *Gateway) fail(ctx context.Context, c *client, err error) {
	g.log.Debug("handler failed", "session_id", c.session.ID, "error", err)
	g.registry.Send(ctx, c.session.ID, domain.ErrorEvent{Message: err.Error()})
}

func (g *Gateway) joinRoom(ctx context.Context, c *client, data json.RawMessage) error {
	channelID, err := decodeChannelID(data)
	if err != nil {
		return err
	}
	g.registry.Join(channelID, c.session.ID)
	g.registry.Broadcast(ctx, channelID, domain.RoomEvent{
		Joined:    true,
		UserID:    c.session.UserID,
		Username:  c.session.Username,
		ChannelID: channelID,
	}, "")
	return nil
}

func (g *Gateway) leaveRoom(ctx context.Context, c *client, data json.RawMessage) error {
	channelID, err := decodeChannelID(data)
	if err != nil {
		return err
	}
	g.registry.Leave(channelID, c.session.ID)
	g.registry.Broadcast(ctx, channelID, domain.RoomEvent{
		UserID:    c.session.UserID,
		Username:  c.session.Username,
		ChannelID: channelID,
	}, "")
	return nil
}

func (g *Gateway) sendMessage(ctx context.Context, c *client, data json.RawMessage) error {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	_, err := g.messages.Create(ctx, c.session.UserID, payload.ChannelID, payload.Content)
	return err
}

func (g *Gateway) editMessage(ctx context.Context, c *client, data json.RawMessage) error {
	var payload editMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	_, err := g.messages.Edit(ctx, c.session.UserID, payload.MessageID, payload.Content)
	return err
}

func (g *Gateway) deleteMessage(ctx context.Context, c *client, data json.RawMessage) error {
	var payload deleteMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return err
	}
	return g.messages.Delete(ctx, c.session.UserID, payload.MessageID)
}

// typingSignal drives the typing state machine. The originating session is
// excluded from these broadcasts; message events, by contrast, echo back.
func (g *Gateway) typingSignal(ctx context.Context, c *client, data json.RawMessage, start bool) error {
	channelID, err := decodeChannelID(data)
	if err != nil {
		return err
	}
	if start {
		g.typing.Start(ctx, c.session.UserID, c.session.Username, channelID, c.session.ID)
	} else {
		g.typing.Stop(ctx, c.session.UserID, channelID, c.session.ID)
	}
	return nil
}

// bearerToken extracts the credential from the Authorization header, falling
// back to the token query parameter that browser WebSocket clients use.
func bearerToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	return strings.TrimPrefix(token, "Bearer ")
}
