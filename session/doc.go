// Package session keeps the mock server's refresh sessions in Redis.
//
// A session is a Redis hash holding the user it belongs to and the id (jti)
// of the one refresh token currently allowed to renew it. Rotation swaps that
// id atomically; presenting any other refresh token for the session deletes
// it, so a stolen token that races the legitimate client ends both. Access
// token ids revoked at logout are kept until the token would have expired.
//
// # Architecture boundaries
//
// This package owns Redis keys and scripts. It does not parse JWTs or decide
// who may log in.
//
// # What this package must NOT do
//
//   - Import goBlade, jwt or mock.
//   - Store token strings. Only token ids are kept.
package session
