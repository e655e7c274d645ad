package server

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Vissonabe/personal-task-prioritizer/sessions"
)

// browserSessionID is the name of the cookie tying a browser to its
// process-local session state.
const browserSessionID = "browserSessionId"

// sessionStore resolves the state bucket for the calling browser, minting a
// session cookie on first contact.
func (s *Server) sessionStore(w http.ResponseWriter, r *http.Request) *sessions.Store {
	if cookie, err := r.Cookie(browserSessionID); err == nil && cookie.Value != "" {
		return s.registry.Resolve(cookie.Value)
	}
	sessionID := uuid.NewString()
	s.SetBrowserSessionCookie(w, sessionID, r)
	return s.registry.Resolve(sessionID)
}

func (s *Server) SetBrowserSessionCookie(w http.ResponseWriter, sessionID string, r *http.Request) {
	isSecure := getScheme(r) == "https"

	http.SetCookie(w, &http.Cookie{
		Name:     browserSessionID,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetMaxSessionAge().Seconds()),
	})
}
