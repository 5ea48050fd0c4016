// Package mock is a development auth server speaking both the console's
// /api/auth endpoints and the blade-auth token protocol.
//
// Credentials are checked against a fixed user table hashed with Argon2id.
// Unless StrictCredentials is set, unknown credentials are never rejected:
// the caller is logged in as the first user under the name they typed. Refresh
// sessions, captcha answers and revoked access tokens live in Redis, which
// may be embedded with miniredis for local use.
//
// # Architecture boundaries
//
// Token signing is delegated to package jwt, session bookkeeping to package
// session, and request authorization to package middleware.
//
// # What this package must NOT do
//
//   - Ship in a production deployment.
//   - Log passwords, ciphertexts or tokens.
package mock
