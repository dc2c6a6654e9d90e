// Package definition defines the canonical page definition and its
// integrity fingerprint.
//
// It is intentionally split into:
//   - The immutable Definition value (schema version + page payload + checksum)
//   - A canonical byte encoding of page payloads, invariant to map key
//     insertion order
//   - The Checksummer, which stamps a sha256 fingerprint of the canonical
//     encoding onto a copy of the definition
//
// Nothing in this package performs I/O except the Decode helpers, which
// turn raw JSON or YAML bytes into a Definition.
package definition
