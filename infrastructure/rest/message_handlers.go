package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"huddle/domain"
	"huddle/errors"

	"github.com/gorilla/mux"
)

type createMessageRequest struct {
	Content   string `json:"content"`
	ChannelID string `json:"channelId"`
}

type updateMessageRequest struct {
	Content string `json:"content"`
}

type historyResponse struct {
	Messages []domain.Message `json:"messages"`
	Cursor   *string          `json:"cursor,omitempty"`
}

// createMessage is the request/response twin of the socket's send-message:
// both funnel through the same coordinator, so room members receive the
// created event no matter which entry point produced it.
func (a *API) createMessage(w http.ResponseWriter, r *http.Request) {
	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, a.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	message, err := a.messages.Create(r.Context(), currentUser(r).ID, req.ChannelID, req.Content)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, message)
}

func (a *API) updateMessage(w http.ResponseWriter, r *http.Request) {
	var req updateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, a.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	message, err := a.messages.Edit(r.Context(), currentUser(r).ID, mux.Vars(r)["id"], req.Content)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}

func (a *API) deleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := a.messages.Delete(r.Context(), currentUser(r).ID, mux.Vars(r)["id"]); err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}

func (a *API) channelHistory(w http.ResponseWriter, r *http.Request) {
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := a.messages.History(r.Context(), mux.Vars(r)["channelId"], cursor)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{Messages: messages, Cursor: next})
}
