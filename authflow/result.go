package authflow

import "github.com/Vissonabe/personal-task-prioritizer/backend"

// State names the position of a browser session in the authentication flows.
type State string

const (
	StateAnonymous            State = "anonymous"
	StateAwaitingVerification State = "awaiting_verification"
	StateAwaitingReset        State = "awaiting_reset"
	StateAwaitingOAuthReturn  State = "awaiting_oauth_return"
	StateAuthenticated        State = "authenticated"
)

// Result is the discriminated outcome of one interaction, handed to the
// rendering layer. The renderer picks the form to display from State, shows
// Message verbatim, and maps ErrorKind to styling. It must also honor the
// side-effect instructions: strip the listed URL parameters and, when
// RedirectURL is set, send the user-agent there.
type Result struct {
	State     State             `json:"state"`
	Message   string            `json:"message,omitempty"`
	ErrorKind backend.ErrorKind `json:"error_kind,omitempty"`

	// StripParams lists URL query/fragment keys that were consumed by this
	// interaction and must be removed before the next rerun.
	StripParams []string `json:"strip_params,omitempty"`

	// RedirectURL is set when the flow requires leaving the app (OAuth).
	RedirectURL string `json:"redirect_url,omitempty"`
}
