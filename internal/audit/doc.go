// Package audit buffers session lifecycle events and hands them to a sink.
//
// # Components
//
//   - [Sink] consumes events. Channel, JSON-lines, zerolog and no-op sinks are provided.
//   - [Dispatcher] relays events asynchronously with drop-if-full or block-if-full semantics.
//   - [Event] is the record: timestamp, kind, user, session, outcome, metadata.
//
// # Architecture boundaries
//
// This package owns buffering and delivery. The session manager and the mock
// server decide which events to emit.
//
// # What this package must NOT do
//
//   - Filter events based on business logic.
//   - Import goBlade or any sibling internal package.
package audit
