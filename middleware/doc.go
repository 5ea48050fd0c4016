// Package middleware exposes HTTP guards that authenticate a bearer token
// through a [Verifier] and authorize it against permission codes.
//
// # Guards
//
//   - [Guard] verifies the token in the requested [Mode].
//   - [RequireJWTOnly] checks signature and expiry only.
//   - [RequireStrict] also consults the server-side session record.
//   - [RequireCodes] rejects principals lacking every listed code.
//
// The token is read from Blade-Auth first, then Authorization. Both accept a
// case-insensitive "bearer " prefix.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Verifier calls. Token parsing
// and session lookups belong to the Verifier implementation.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly.
//   - Access Redis.
//   - Grant access beyond what [access.IsGranted] decides.
package middleware
