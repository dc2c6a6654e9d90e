package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// MigrationTrace is the canonical, deterministic record of one pipeline
// run over a single document.
//
// Invariants:
//   - Must capture the document identity and an ordered list of events.
//   - Must contain logical transitions only, never runtime-dependent
//     details: no timestamps, no pointers, no error strings.
//
// Events are kept in application order. Unlike a concurrent executor's
// trace, a migration walk is inherently sequenced, so insertion order is
// already the canonical order and must be preserved: it is the proof that
// each migration on the path was applied exactly once, in order.
//
// The trace is observational only and must never affect pipeline
// behavior.
type MigrationTrace struct {
	DocumentID string
	Events     []Event
}

// EventKind is the stable, canonical discriminator for Event.
//
// The string values are part of the trace's canonical bytes; do not
// rename.
type EventKind string

const (
	EventMigrationApplied EventKind = "MigrationApplied"
	EventAlreadyLatest    EventKind = "AlreadyLatest"
	EventChecksumStamped  EventKind = "ChecksumStamped"
)

// Event is a single logical transition in a pipeline run.
//
// Determinism constraints:
//   - No timestamps.
//   - No error strings / stack traces.
//   - No fields derived from pointer identity or map iteration.
type Event struct {
	Kind EventKind

	// From and To are the schema versions of an applied migration edge.
	// To alone is set for AlreadyLatest.
	From string
	To   string

	// Checksum is the stamped fingerprint, set only for ChecksumStamped.
	Checksum string
}

// Validate checks basic invariants and returns a descriptive error.
func (t *MigrationTrace) Validate() error {
	if t == nil {
		return errors.New("trace is nil")
	}
	if t.DocumentID == "" {
		return errors.New("documentId is required")
	}
	for i := range t.Events {
		e := t.Events[i]
		switch e.Kind {
		case EventMigrationApplied:
			if e.From == "" || e.To == "" {
				return fmt.Errorf("events[%d]: MigrationApplied requires from and to", i)
			}
		case EventAlreadyLatest:
			if e.To == "" {
				return fmt.Errorf("events[%d]: AlreadyLatest requires to", i)
			}
		case EventChecksumStamped:
			if e.Checksum == "" {
				return fmt.Errorf("events[%d]: ChecksumStamped requires checksum", i)
			}
		case "":
			return fmt.Errorf("events[%d].kind is required", i)
		default:
			return fmt.Errorf("events[%d]: unknown kind %q", i, e.Kind)
		}
	}
	return nil
}

// CanonicalJSON returns the canonical JSON encoding of the trace.
func (t MigrationTrace) CanonicalJSON() ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(&t)
}

// Hash returns the deterministic trace hash (sha256 hex) of the canonical
// JSON bytes.
func (t MigrationTrace) Hash() (string, error) {
	b, err := t.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return ComputeTraceHash(b), nil
}

// MarshalJSON ensures canonical field ordering and omission rules.
func (t MigrationTrace) MarshalJSON() ([]byte, error) {
	if t.DocumentID == "" {
		return nil, errors.New("documentId is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	buf.WriteString("\"documentId\":")
	db, _ := json.Marshal(t.DocumentID)
	buf.Write(db)
	buf.WriteByte(',')

	buf.WriteString("\"events\":[")
	for i := range t.Events {
		if i > 0 {
			buf.WriteByte(',')
		}
		eb, err := json.Marshal(t.Events[i])
		if err != nil {
			return nil, err
		}
		buf.Write(eb)
	}
	buf.WriteByte(']')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON ensures canonical field ordering and omission of empty
// optional fields.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Kind == "" {
		return nil, errors.New("kind is required")
	}
	var buf bytes.Buffer
	buf.WriteByte('{')

	// kind (always first)
	buf.WriteString("\"kind\":")
	kb, _ := json.Marshal(string(e.Kind))
	buf.Write(kb)

	if e.From != "" {
		buf.WriteString(",\"from\":")
		fb, _ := json.Marshal(e.From)
		buf.Write(fb)
	}
	if e.To != "" {
		buf.WriteString(",\"to\":")
		tb, _ := json.Marshal(e.To)
		buf.Write(tb)
	}
	if e.Checksum != "" {
		buf.WriteString(",\"checksum\":")
		cb, _ := json.Marshal(e.Checksum)
		buf.Write(cb)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
