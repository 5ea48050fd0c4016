package middleware

import "net/http"

func RequireStrict(v Verifier, opts ...Option) func(http.Handler) http.Handler {
	return Guard(v, ModeStrict, opts...)
}
