package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"pageforge/internal/definition"
	"pageforge/internal/migration"
	"pageforge/internal/version"
)

// FailureClass is the stable taxonomy for quarantined documents. The
// class tells an operator which authoring step is missing: a registry
// fix, a runtime upgrade, or a corrected document.
type FailureClass string

const (
	FailureClassLoop          FailureClass = "migration-loop"
	FailureClassNoPath        FailureClass = "no-migration-path"
	FailureClassFutureVersion FailureClass = "future-version"
	FailureClassDecode        FailureClass = "decode"
	FailureClassChecksum      FailureClass = "checksum"
	FailureClassUnknown       FailureClass = "unknown"
)

// QuarantineRecord preserves a rejected document next to the reason it
// was rejected. Raw keeps the original bytes untouched so an operator
// can repair and resubmit.
type QuarantineRecord struct {
	ID           string       `json:"id"`
	Slug         string       `json:"slug"`
	FailureClass FailureClass `json:"failureClass"`
	ErrorMessage string       `json:"errorMessage"`
	Raw          []byte       `json:"raw,omitempty"`
}

// Validate checks basic invariants and returns a descriptive error.
func (q QuarantineRecord) Validate() error {
	if strings.TrimSpace(q.ID) == "" {
		return errors.New("id is required")
	}
	if strings.TrimSpace(q.Slug) == "" {
		return errors.New("slug is required")
	}
	if q.FailureClass == "" {
		return errors.New("failureClass is required")
	}
	if q.ErrorMessage == "" {
		return errors.New("errorMessage is required")
	}
	return nil
}

// ClassifyFailure maps a pipeline error to its quarantine class.
func ClassifyFailure(err error) FailureClass {
	switch {
	case errors.Is(err, migration.ErrMigrationLoop):
		return FailureClassLoop
	case errors.Is(err, migration.ErrNoMigrationPath):
		return FailureClassNoPath
	case errors.Is(err, migration.ErrUnsupportedFutureVersion):
		return FailureClassFutureVersion
	case errors.Is(err, definition.ErrMalformedDocument),
		errors.Is(err, definition.ErrMissingSchemaVersion),
		errors.Is(err, version.ErrInvalidVersion):
		return FailureClassDecode
	case errors.Is(err, definition.ErrUnencodableValue):
		return FailureClassChecksum
	default:
		return FailureClassUnknown
	}
}

func (s *Store) quarantinePath(id string) string {
	return filepath.Join(s.quarantineDir(), id+".json")
}

// Quarantine durably records a rejected document and returns the written
// record.
func (s *Store) Quarantine(slug string, raw []byte, cause error) (QuarantineRecord, error) {
	if cause == nil {
		return QuarantineRecord{}, errors.New("nil cause")
	}
	rec := QuarantineRecord{
		ID:           uuid.NewString(),
		Slug:         slug,
		FailureClass: ClassifyFailure(cause),
		ErrorMessage: cause.Error(),
		Raw:          raw,
	}
	if err := rec.Validate(); err != nil {
		return QuarantineRecord{}, fmt.Errorf("invalid quarantine record: %w", err)
	}
	if err := ensureDirDurable(s.quarantineDir(), 0o755); err != nil {
		return QuarantineRecord{}, fmt.Errorf("ensure quarantine dir: %w", err)
	}
	data, err := jsonMarshalStable(rec)
	if err != nil {
		return QuarantineRecord{}, fmt.Errorf("marshal quarantine record: %w", err)
	}
	if err := writeFileAtomicDurable(s.quarantinePath(rec.ID), data, 0o644); err != nil {
		return QuarantineRecord{}, fmt.Errorf("write quarantine record: %w", err)
	}
	return rec, nil
}

func (s *Store) LoadQuarantine(id string) (QuarantineRecord, error) {
	var rec QuarantineRecord
	if strings.TrimSpace(id) == "" {
		return QuarantineRecord{}, errors.New("id is required")
	}
	if err := readJSONStrict(s.quarantinePath(id), &rec); err != nil {
		return QuarantineRecord{}, err
	}
	if err := rec.Validate(); err != nil {
		return QuarantineRecord{}, fmt.Errorf("invalid quarantine record on disk: %w", err)
	}
	return rec, nil
}

// ListQuarantineIDs returns all quarantine record IDs.
//
// Determinism: the returned slice is sorted lexicographically.
func (s *Store) ListQuarantineIDs() ([]string, error) {
	if s == nil {
		return nil, errors.New("nil Store")
	}
	return listJSONNames(s.quarantineDir())
}
