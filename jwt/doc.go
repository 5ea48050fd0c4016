// Package jwt issues and verifies the access and refresh tokens handed out by
// the mock auth server, and lets clients read a token's expiry without the
// signing key.
//
// Tokens carry the user id, username, roles, a session id and a "typ" claim
// that keeps access and refresh tokens from being swapped.
package jwt
