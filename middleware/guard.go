package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MrEthical07/goBlade/access"
)

// Mode selects how much a [Verifier] checks.
type Mode int

const (
	// ModeJWTOnly trusts a token with a valid signature and expiry.
	ModeJWTOnly Mode = iota
	// ModeStrict additionally requires a live server-side session.
	ModeStrict
)

func (m Mode) String() string {
	if m == ModeStrict {
		return "strict"
	}
	return "jwt_only"
}

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	UserID    string
	Username  string
	Roles     []string
	SessionID string
	Codes     access.CodeSet
}

// Verifier authenticates a raw token.
type Verifier interface {
	Verify(ctx context.Context, token string, mode Mode) (*Principal, error)
}

type VerifierFunc func(ctx context.Context, token string, mode Mode) (*Principal, error)

func (f VerifierFunc) Verify(ctx context.Context, token string, mode Mode) (*Principal, error) {
	return f(ctx, token, mode)
}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrForbidden    = errors.New("forbidden")
)

// ErrorWriter renders a rejection. status is 401 or 403.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, err error)

type options struct {
	writeError ErrorWriter
}

type Option func(*options)

// WithErrorWriter replaces the plain-text rejection body.
func WithErrorWriter(fn ErrorWriter) Option {
	return func(o *options) {
		if fn != nil {
			o.writeError = fn
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{writeError: plainError}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func plainError(w http.ResponseWriter, _ *http.Request, status int, _ error) {
	http.Error(w, strings.ToLower(http.StatusText(status)), status)
}

type principalContextKey struct{}

func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(*Principal)
	return p, ok && p != nil
}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

func Guard(v Verifier, mode Mode, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v == nil {
				o.writeError(w, r, http.StatusUnauthorized, ErrMissingToken)
				return
			}
			token, ok := TokenFromRequest(r)
			if !ok {
				o.writeError(w, r, http.StatusUnauthorized, ErrMissingToken)
				return
			}
			p, err := v.Verify(r.Context(), token, mode)
			if err != nil || p == nil {
				if err == nil {
					err = ErrMissingToken
				}
				o.writeError(w, r, http.StatusUnauthorized, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireCodes must run after a guard. An empty list admits any principal.
func RequireCodes(codes []string, opts ...Option) func(http.Handler) http.Handler {
	o := buildOptions(opts)
	required := append([]string(nil), codes...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				o.writeError(w, r, http.StatusUnauthorized, ErrMissingToken)
				return
			}
			if !access.IsGranted(required, p.Codes) {
				o.writeError(w, r, http.StatusForbidden, ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TokenFromRequest returns the bearer token from Blade-Auth or Authorization.
func TokenFromRequest(r *http.Request) (string, bool) {
	if tok, ok := bearerToken(r.Header.Get("Blade-Auth")); ok {
		return tok, true
	}
	return bearerToken(r.Header.Get("Authorization"))
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}
	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}
	return token, true
}
