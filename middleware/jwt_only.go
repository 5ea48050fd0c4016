package middleware

import "net/http"

// RequireJWTOnly guards with [ModeJWTOnly]. No session store is consulted.
func RequireJWTOnly(v Verifier, opts ...Option) func(http.Handler) http.Handler {
	return Guard(v, ModeJWTOnly, opts...)
}
