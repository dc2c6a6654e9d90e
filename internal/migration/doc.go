// Package migration implements the schema migration walk for canonical
// page definitions.
//
// It is intentionally split into:
//   - Immutable migration registry (Registry): one outgoing edge per
//     source version, frozen at construction
//   - The Engine, which advances a definition along registry edges until
//     it reaches the latest supported schema version
//
// The walk is fail-closed: a revisited version, a missing edge, or a
// version newer than the runtime supports each abort the walk with a
// typed error. A partially migrated definition is never returned.
package migration
