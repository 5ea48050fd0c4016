// Package password hashes and verifies the mock server's user passwords with
// Argon2id.
//
// Hashes use the PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [Hasher.NeedsRehash] reports hashes made with weaker parameters so callers
// can upgrade them after a successful login.
//
// # What this package must NOT do
//
//   - Store passwords. Callers supply plaintext and keep the hashes.
//   - Log plaintext passwords.
package password
