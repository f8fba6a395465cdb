package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
)

type loginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (g *Gateway) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "decode login body"))
		return
	}
	if req.UserID == "" || req.Password == "" {
		g.writeError(r.Context(), w, errors.Wrap(errBadRequest, "user_id and password are required"))
		return
	}

	user, err := g.sessions.Login(r.Context(), req.UserID, req.Password)
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (g *Gateway) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := g.sessions.Logout(r.Context()); err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := g.sessions.Current()
	if err != nil {
		g.writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}
