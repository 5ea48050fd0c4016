// Package access decides whether a set of granted capability codes satisfies
// a requirement.
//
// Capability codes are opaque server-issued strings. Two codes are universal:
// [Wildcard] ("*") and [SuperAdmin] ("super_admin"); a set holding either one
// satisfies every requirement.
//
// # Architecture boundaries
//
// access is a leaf package. [IsGranted] is a pure predicate; [Gate] and
// [Filter] are thin helpers for rendering layers (menus, buttons, routes) that
// want to hide what the current session may not use.
//
// # What this package must NOT do
//
//   - Cache decisions. Every check re-derives from the current code set.
//   - Interpret code structure (prefixes, separators, hierarchies).
//   - Return errors or panic on malformed input; blank requirements mean
//     "no requirement".
package access
