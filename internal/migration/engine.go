package migration

import (
	"fmt"

	"pageforge/internal/definition"
	"pageforge/internal/trace"
	"pageforge/internal/version"
)

// Engine walks the migration registry from a definition's current schema
// version up to the latest supported version.
//
// The engine is stateless between calls and performs no I/O; concurrent
// calls on different definitions never interfere. Worst-case cost of a
// walk is bounded by the number of registered source versions, since a
// revisited version aborts immediately.
type Engine struct {
	registry *Registry
	latest   string
	sink     trace.Sink
}

// NewEngine returns an engine targeting the given latest schema version.
func NewEngine(registry *Registry, latest string) (*Engine, error) {
	if _, err := version.Parse(latest); err != nil {
		return nil, err
	}
	return &Engine{registry: registry, latest: latest, sink: trace.NopSink{}}, nil
}

// WithSink returns a copy of the engine that records observational trace
// events to s. The sink never affects migration behavior.
func (e *Engine) WithSink(s trace.Sink) *Engine {
	out := *e
	if s == nil {
		s = trace.NopSink{}
	}
	out.sink = s
	return &out
}

// Latest returns the latest schema version the engine migrates to.
func (e *Engine) Latest() string { return e.latest }

// MigrateToLatest advances def along registry edges until its schema
// version equals the engine's latest version.
//
// The result either carries exactly the latest version or the call fails;
// a partially migrated definition is never returned. The input is never
// mutated.
//
// Failure modes:
//   - ErrMigrationLoop: a schema version was revisited during this walk
//   - ErrNoMigrationPath: no edge is registered from the current version
//   - ErrUnsupportedFutureVersion: the document was authored by a newer
//     runtime; backward migration is never attempted
//   - ErrInvalidVersion: a version string (input or edge target) does not
//     parse
func (e *Engine) MigrateToLatest(def definition.Definition) (definition.Definition, error) {
	current := def.Clone()
	visited := make(map[string]struct{})
	var walk []string

	for {
		behind, err := version.LessThan(current.SchemaVersion, e.latest)
		if err != nil {
			return definition.Definition{}, err
		}
		if !behind {
			break
		}

		if _, seen := visited[current.SchemaVersion]; seen {
			return definition.Definition{}, loopError(append(walk, current.SchemaVersion))
		}
		visited[current.SchemaVersion] = struct{}{}
		walk = append(walk, current.SchemaVersion)

		mig, ok := e.registry.Find(current.SchemaVersion)
		if !ok {
			return definition.Definition{}, noPathError(current.SchemaVersion)
		}

		next, err := mig.Transform(current)
		if err != nil {
			return definition.Definition{}, fmt.Errorf("transform %s -> %s: %w", mig.From, mig.To, err)
		}
		next.SchemaVersion = mig.To
		current = next

		trace.SafeRecord(e.sink, trace.Event{
			Kind: trace.EventMigrationApplied,
			From: mig.From,
			To:   mig.To,
		})
	}

	ahead, err := version.GreaterThan(current.SchemaVersion, e.latest)
	if err != nil {
		return definition.Definition{}, err
	}
	if ahead {
		return definition.Definition{}, futureError(current.SchemaVersion, e.latest)
	}

	if len(walk) == 0 {
		trace.SafeRecord(e.sink, trace.Event{Kind: trace.EventAlreadyLatest, To: e.latest})
	}
	return current, nil
}
