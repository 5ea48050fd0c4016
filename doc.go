// Package goBlade is the session layer of a role-based admin console that
// authenticates against a blade-auth service.
//
// A [SessionManager], built once through [Builder], logs a user in with an
// SM2-encrypted password, keeps the access token, refresh token, profile and
// access codes of that user, and logs out again. UI code asks it whether an
// element should be shown ([SessionManager.IsGranted], [SessionManager.Gate]).
//
// # Architecture boundaries
//
// The manager drives two small interfaces for everything outside the
// session: a [Navigator] for routing and a [Notifier] for toasts. Wire
// formats live in blade, state containers in store, and the access rule in
// access.
//
// # What this package must NOT do
//
//   - Interpret access codes beyond the wildcard rule of package access.
//   - Log passwords, ciphertexts or tokens.
//   - Keep process-wide state. Every manager is independent.
package goBlade
