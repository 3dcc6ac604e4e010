package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"huddle/errors"

	"github.com/gorilla/mux"
)

type createChannelRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Members     []string `json:"members"`
	IsPrivate   bool     `json:"isPrivate"`
}

func (a *API) listChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := a.channels.ListVisible(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, channels)
}

func (a *API) createChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, a.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	channel, err := a.channels.Create(r.Context(), currentUser(r).ID,
		req.Name, req.Description, req.Members, req.IsPrivate)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, channel)
}

func (a *API) getChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := a.channels.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (a *API) deleteChannel(w http.ResponseWriter, r *http.Request) {
	if err := a.channels.Delete(r.Context(), mux.Vars(r)["id"], currentUser(r).ID); err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "channel deleted"})
}

func (a *API) joinChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := a.channels.Join(r.Context(), mux.Vars(r)["id"], currentUser(r).ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}

func (a *API) leaveChannel(w http.ResponseWriter, r *http.Request) {
	channel, err := a.channels.Leave(r.Context(), mux.Vars(r)["id"], currentUser(r).ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, channel)
}
