package backend

import "errors"

// ErrorKind classifies a backend rejection for the rendering layer.
type ErrorKind string

const (
	KindInvalidCredentials     ErrorKind = "invalid_credentials"
	KindEmailAlreadyRegistered ErrorKind = "email_already_registered"
	KindWeakPassword           ErrorKind = "weak_password"
	KindUnknownEmail           ErrorKind = "unknown_email"
	KindExpiredToken           ErrorKind = "expired_token"
	KindInvalidToken           ErrorKind = "invalid_token"
	KindInvalidCallback        ErrorKind = "invalid_callback"
	KindNetworkError           ErrorKind = "network_error"
	KindParseFailed            ErrorKind = "parse_failed"
)

// AuthError is the typed failure returned by every Client operation.
type AuthError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return string(e.Kind) + ": " + e.Message
	}
	return string(e.Kind)
}

func (e *AuthError) Unwrap() error { return e.cause }

// NewAuthError builds an AuthError with an optional user-safe message.
func NewAuthError(kind ErrorKind, message string) *AuthError {
	return &AuthError{Kind: kind, Message: message}
}

// WrapAuthError attaches the underlying cause for logging without exposing it
// to the user-facing message.
func WrapAuthError(kind ErrorKind, message string, cause error) *AuthError {
	return &AuthError{Kind: kind, Message: message, cause: cause}
}

// KindOf extracts the ErrorKind from an error chain. Anything that is not an
// AuthError is treated as a network-level failure, since Client
// implementations classify every backend rejection themselves.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindNetworkError
}
