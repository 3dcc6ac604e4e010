package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (a *API) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.List(r.Context())
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *API) getUser(w http.ResponseWriter, r *http.Request) {
	user, err := a.users.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) searchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := a.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, a.log, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
