package rest

import (
	"log/slog"
	"net/http"

	"huddle/auth"
	"huddle/services"

	"github.com/gorilla/mux"
)

// API wires the application services to their HTTP routes.
type API struct {
	log      *slog.Logger
	authn    *auth.Authenticator
	auth     services.IAuthService
	channels services.IChannelService
	messages services.IMessageService
	users    services.IUserService
	invites  services.IInviteService
}

func NewAPI(
	log *slog.Logger,
	authn *auth.Authenticator,
	authService services.IAuthService,
	channels services.IChannelService,
	messages services.IMessageService,
	users services.IUserService,
	invites services.IInviteService,
) *API {
	return &API{
		log:      log,
		authn:    authn,
		auth:     authService,
		channels: channels,
		messages: messages,
		users:    users,
		invites:  invites,
	}
}

// Router builds the full route table. Everything except registration, login,
// and the health probe sits behind bearer authentication.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", a.health).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", a.register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", a.login).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(a.requireAuth)

	protected.HandleFunc("/auth/me", a.me).Methods(http.MethodGet)

	protected.HandleFunc("/channels", a.listChannels).Methods(http.MethodGet)
	protected.HandleFunc("/channels", a.createChannel).Methods(http.MethodPost)
	protected.HandleFunc("/channels/{id}", a.getChannel).Methods(http.MethodGet)
	protected.HandleFunc("/channels/{id}", a.deleteChannel).Methods(http.MethodDelete)
	protected.HandleFunc("/channels/{id}/join", a.joinChannel).Methods(http.MethodPost)
	protected.HandleFunc("/channels/{id}/leave", a.leaveChannel).Methods(http.MethodPost)

	protected.HandleFunc("/messages", a.createMessage).Methods(http.MethodPost)
	protected.HandleFunc("/messages/{id}", a.updateMessage).Methods(http.MethodPut)
	protected.HandleFunc("/messages/{id}", a.deleteMessage).Methods(http.MethodDelete)
	protected.HandleFunc("/messages/channel/{channelId}", a.channelHistory).Methods(http.MethodGet)

	protected.HandleFunc("/users", a.listUsers).Methods(http.MethodGet)
	protected.HandleFunc("/users/search/query", a.searchUsers).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", a.getUser).Methods(http.MethodGet)

	protected.HandleFunc("/invites/send", a.sendInvite).Methods(http.MethodPost)
	protected.HandleFunc("/invites/pending", a.pendingInvites).Methods(http.MethodGet)
	protected.HandleFunc("/invites/{id}/accept", a.acceptInvite).Methods(http.MethodPost)
	protected.HandleFunc("/invites/{id}/reject", a.rejectInvite).Methods(http.MethodPost)

	return r
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}
