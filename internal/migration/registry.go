package migration

import (
	"sort"

	"pageforge/internal/definition"
	"pageforge/internal/version"
)

// Transform is an externally authored migration body. It must be a pure,
// total, deterministic function of its input; it receives a working copy
// it may freely modify and returns the definition shaped for the edge's
// To version. The engine owns retagging SchemaVersion.
type Transform func(definition.Definition) (definition.Definition, error)

// Migration is a single directed edge in the schema version graph.
type Migration struct {
	From      string
	To        string
	Transform Transform
}

// Registry holds the finite set of migration edges, keyed by source
// version.
//
// Invariant: at most one outgoing edge per source version. A second
// registration with the same From is a configuration error, never a
// silent override; the original's first-array-match lookup relied on
// scan order and is deliberately not preserved.
//
// A Registry is read-only after construction and therefore safe for
// unlimited concurrent readers.
type Registry struct {
	edges map[string]Migration
}

// NewRegistry builds a frozen registry from the given edges.
//
// Fails with ErrDuplicateMigration when two edges share a From version,
// and with ErrInvalidVersion when any endpoint does not parse.
func NewRegistry(migs ...Migration) (*Registry, error) {
	edges := make(map[string]Migration, len(migs))
	for _, m := range migs {
		if _, err := version.Parse(m.From); err != nil {
			return nil, err
		}
		if _, err := version.Parse(m.To); err != nil {
			return nil, err
		}
		if _, exists := edges[m.From]; exists {
			return nil, duplicateError(m.From)
		}
		edges[m.From] = m
	}
	return &Registry{edges: edges}, nil
}

// Find returns the single outgoing migration for a source version.
func (r *Registry) Find(from string) (Migration, bool) {
	m, ok := r.edges[from]
	return m, ok
}

// SourceVersions returns all registered From versions.
//
// Determinism: the returned slice is sorted by semantic version
// precedence (endpoints were validated at construction).
func (r *Registry) SourceVersions() []string {
	out := make([]string, 0, len(r.edges))
	for from := range r.edges {
		out = append(out, from)
	}
	sort.Slice(out, func(i, j int) bool {
		less, _ := version.LessThan(out[i], out[j])
		return less
	})
	return out
}

// Len returns the number of registered edges.
func (r *Registry) Len() int { return len(r.edges) }
