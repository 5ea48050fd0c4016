// Package blade is a thin client for the blade-auth REST API and the system
// administration endpoints of the admin console back end.
//
// # Wire conventions
//
//   - Token, captcha and logout calls authenticate the client application with
//     HTTP Basic credentials. Logout also carries the user's token in the
//     Blade-Auth header as "bearer <token>".
//   - Everything else authenticates the user with "Authorization: Bearer <token>".
//   - Responses are either bare JSON or wrapped in {code, data, message}; the
//     client unwraps both. Codes 0 and 200 mean success.
//
// # Errors
//
// Every failure matches exactly one of [ErrTransport], [ErrUnauthorized],
// [ErrRejected], [ErrServer] or [ErrMalformedResponse] through errors.Is.
// HTTP and envelope details are available through *[APIError].
//
// # What this package must NOT do
//
//   - Retry, cache or hold session state. The caller owns tokens.
package blade
