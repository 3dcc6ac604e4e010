package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"huddle/errors"

	"github.com/gorilla/mux"
)

type sendInviteRequest struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
}

func (a *API) sendInvite(w http.ResponseWriter, r *http.Request) {
	var req sendInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, a.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	invite, err := a.invites.Send(r.Context(), req.ChannelID, currentUser(r).ID, req.UserID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, invite)
}

func (a *API) pendingInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := a.invites.Pending(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, invites)
}

func (a *API) acceptInvite(w http.ResponseWriter, r *http.Request) {
	invite, err := a.invites.Accept(r.Context(), mux.Vars(r)["id"], currentUser(r).ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, invite)
}

func (a *API) rejectInvite(w http.ResponseWriter, r *http.Request) {
	invite, err := a.invites.Reject(r.Context(), mux.Vars(r)["id"], currentUser(r).ID)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, invite)
}
