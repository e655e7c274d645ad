package server

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/Vissonabe/personal-task-prioritizer/authflow"
	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/callback"
	"github.com/Vissonabe/personal-task-prioritizer/ratelimit"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type newPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// callbackRequest carries auth parameters the browser forwards from a
// redirect landing. Fragment is the raw URL fragment, which never reaches
// the server on its own.
type callbackRequest struct {
	Fragment string `json:"fragment"`
	Query    string `json:"query"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.limiter.Allow(r.Context(), req.Email, clientIP(r)); err != nil {
			if errors.Is(err, ratelimit.ErrRateLimited) {
				writeError(w, http.StatusTooManyRequests, err.Error())
				return
			}
		}
		store := s.sessionStore(w, r)
		result := s.machine.Transition(r.Context(), store, authflow.SubmitLogin{
			Credentials: backend.Credentials{Email: req.Email, Password: req.Password},
		})
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		store := s.sessionStore(w, r)
		result := s.machine.Transition(r.Context(), store, authflow.SubmitSignup{
			Credentials: backend.Credentials{Email: req.Email, Password: req.Password},
		})
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) ResetRequestHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		store := s.sessionStore(w, r)
		result := s.machine.Transition(r.Context(), store, authflow.SubmitResetRequest{Email: req.Email})
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) ResetCompleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req newPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		store := s.sessionStore(w, r)
		result := s.machine.Transition(r.Context(), store, authflow.SubmitNewPassword{NewPassword: req.NewPassword})
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) OAuthStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider := r.PathValue("provider")
		if provider == "" {
			writeError(w, http.StatusBadRequest, "missing provider")
			return
		}
		store := s.sessionStore(w, r)
		result := s.machine.Transition(r.Context(), store, authflow.ClickOAuth{Provider: provider})
		writeJSON(w, http.StatusOK, result)
	}
}

// CallbackHandler receives auth redirect landings. GET serves the backend's
// query-style redirects directly; POST lets the page forward fragment
// parameters, which the browser strips before the request reaches us.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rawQuery := r.URL.RawQuery
		rawFragment := ""
		if r.Method == http.MethodPost {
			var req callbackRequest
			if err := decodeJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			rawFragment = req.Fragment
			if req.Query != "" {
				rawQuery = req.Query
			}
		}
		params := callback.Parse(rawQuery, rawFragment)
		store := s.sessionStore(w, r)
		result := s.machine.Transition(r.Context(), store, authflow.InboundCallback{Params: params})
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := s.sessionStore(w, r)
		result := s.machine.Transition(r.Context(), store, authflow.SignOut{})
		writeJSON(w, http.StatusOK, result)
	}
}

type sessionResponse struct {
	authflow.Result
	Email string `json:"email,omitempty"`
}

// SessionHandler reports the current flow state without side effects.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store := s.sessionStore(w, r)
		result := s.machine.Transition(r.Context(), store, authflow.Rerun{})
		resp := sessionResponse{Result: result}
		if session, ok := store.Get(); ok {
			resp.Email = session.Email
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.SplitN(fwd, ",", 2)
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
