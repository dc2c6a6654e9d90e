package migration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrDuplicateMigration       = errors.New("duplicate migration")
	ErrMigrationLoop            = errors.New("migration loop detected")
	ErrNoMigrationPath          = errors.New("no migration path")
	ErrUnsupportedFutureVersion = errors.New("unsupported future schema version")
)

// Error wraps migration failures with their kind sentinel and context.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func duplicateError(from string) error {
	return &Error{Kind: ErrDuplicateMigration, Msg: fmt.Sprintf("a migration from %s is already registered", from)}
}

func loopError(path []string) error {
	msg := "cycle"
	if len(path) > 0 {
		msg = "cycle: " + strings.Join(path, " -> ")
	}
	return &Error{Kind: ErrMigrationLoop, Msg: msg}
}

func noPathError(from string) error {
	return &Error{Kind: ErrNoMigrationPath, Msg: fmt.Sprintf("no migration registered from %s", from)}
}

func futureError(version, latest string) error {
	return &Error{
		Kind: ErrUnsupportedFutureVersion,
		Msg:  fmt.Sprintf("document at %s exceeds latest supported %s", version, latest),
	}
}
