package rest

import (
	"encoding/json"
	"fmt"
	"net/http"

	"huddle/auth"
	"huddle/domain"
	"huddle/errors"
)

type authResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, a.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	user, token, err := a.auth.Register(r.Context(), req)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user.Public()})
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, a.log, fmt.Errorf("%w: %v", errors.ErrValidation, err))
		return
	}

	user, token, err := a.auth.Login(r.Context(), req)
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user.Public()})
}

func (a *API) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r).Public())
}
