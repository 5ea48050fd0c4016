package goBlade

import (
	"errors"
	"strings"

	"github.com/MrEthical07/goBlade/blade"
)

var (
	// ErrCredentialRejected means the server refused the credentials or
	// returned no access token.
	ErrCredentialRejected = errors.New("credential rejected")
	// ErrNetworkFailure means the auth service could not be reached or
	// answered with a server error.
	ErrNetworkFailure = errors.New("network failure")
	// ErrProfileFetchFailure means a token was issued but the user profile
	// could not be loaded. The previous token state has been restored.
	ErrProfileFetchFailure = errors.New("profile fetch failure")
	ErrLoginInProgress     = errors.New("login already in progress")
	ErrEncryptionFailed    = errors.New("password encryption failed")
	// ErrSessionExpired is returned when an unauthorized response could not
	// be recovered by a token refresh.
	ErrSessionExpired = errors.New("session expired")
	ErrNotLoggedIn    = errors.New("not logged in")
)

// AuthError ties a failure kind (one of the sentinels above) to the
// operation and the underlying cause. Both match with errors.Is.
type AuthError struct {
	Kind error
	Op   string
	Err  error
}

func (e *AuthError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newAuthError(op string, kind, cause error) *AuthError {
	return &AuthError{Kind: kind, Op: op, Err: cause}
}

// remoteKind maps a blade client error onto the login failure kinds.
// Anything that is not clearly the network or the server is treated as a
// rejection of the credentials.
func remoteKind(err error) error {
	switch {
	case errors.Is(err, blade.ErrTransport),
		errors.Is(err, blade.ErrServer),
		errors.Is(err, blade.ErrMalformedResponse):
		return ErrNetworkFailure
	default:
		return ErrCredentialRejected
	}
}
