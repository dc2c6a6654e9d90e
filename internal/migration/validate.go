package migration

import (
	"pageforge/internal/version"
)

// Validate proves that every registered source version reaches latest in
// a finite number of steps without revisiting a version.
//
// It is meant to run once at startup, before any document is processed:
// a registry that fails here would fail some future document at request
// time, with the same error kinds.
//
// Determinism: sources are checked in version order and a cycle reports a
// stable witness path (a -> b -> a).
func (r *Registry) Validate(latest string) error {
	if _, err := version.Parse(latest); err != nil {
		return err
	}

	for _, from := range r.SourceVersions() {
		if err := r.validateFrom(from, latest); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) validateFrom(from, latest string) error {
	current := from
	visited := make(map[string]struct{})
	var walk []string

	for {
		behind, err := version.LessThan(current, latest)
		if err != nil {
			return err
		}
		if !behind {
			break
		}

		if _, seen := visited[current]; seen {
			return loopError(append(walk, current))
		}
		visited[current] = struct{}{}
		walk = append(walk, current)

		mig, ok := r.Find(current)
		if !ok {
			return noPathError(current)
		}
		current = mig.To
	}

	// A chain that skips past latest is as misconfigured as one that
	// dead-ends: no document on it can ever arrive at exactly latest.
	ahead, err := version.GreaterThan(current, latest)
	if err != nil {
		return err
	}
	if ahead {
		return futureError(current, latest)
	}
	return nil
}
