package authflow

import (
	"github.com/Vissonabe/personal-task-prioritizer/backend"
	"github.com/Vissonabe/personal-task-prioritizer/callback"
)

// Event is one user interaction fed into the state machine. Backend calls are
// gated strictly behind the explicit Submit/Click events; a plain Rerun never
// reaches the network.
type Event interface {
	isEvent()
}

// Rerun is a re-render with no new submission. The machine only reconstructs
// its state from the store.
type Rerun struct{}

// SubmitLogin is a password login form submission.
type SubmitLogin struct {
	Credentials backend.Credentials
}

// SubmitSignup is a registration form submission.
type SubmitSignup struct {
	Credentials backend.Credentials
}

// SubmitResetRequest asks for a password-reset email.
type SubmitResetRequest struct {
	Email string
}

// SubmitNewPassword completes a password reset with the captured recovery token.
type SubmitNewPassword struct {
	NewPassword string
}

// ClickOAuth starts a delegated login with the named provider.
type ClickOAuth struct {
	Provider string
}

// InboundCallback carries parameters extracted from the current request URL:
// a recovery link or an OAuth return.
type InboundCallback struct {
	Params callback.Params
}

// SignOut ends the authenticated session.
type SignOut struct{}

func (Rerun) isEvent()              {}
func (SubmitLogin) isEvent()        {}
func (SubmitSignup) isEvent()       {}
func (SubmitResetRequest) isEvent() {}
func (SubmitNewPassword) isEvent()  {}
func (ClickOAuth) isEvent()         {}
func (InboundCallback) isEvent()    {}
func (SignOut) isEvent()            {}
