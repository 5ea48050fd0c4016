// Package store holds the client-side state of one authenticated session:
// tokens and the expired flag ([Tokens]), the signed-in user's profile
// ([User]) and the granted capability codes ([Access]).
//
// Every store is safe for concurrent use. None of them perform I/O; durable
// copies are written through a [Persister] by the session manager.
//
// # What this package must NOT do
//
//   - Talk to the network or decide when state changes.
//   - Hold package-level state. Each session owns its own stores.
package store
