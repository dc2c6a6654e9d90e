package definition

// Definition is a versioned canonical page definition.
//
// Invariants:
//   - SchemaVersion is a strict semantic version string.
//   - Page holds only JSON-like values: nil, bool, numbers, strings,
//     []any, and map[string]any.
//   - Checksum, when set, is the lowercase-hex sha256 of the canonical
//     encoding of Page. It is a function of Page alone; SchemaVersion and
//     Checksum itself never contribute to it.
//
// Definitions are treated as immutable: every operation in this module
// returns a new value and leaves its input untouched.
type Definition struct {
	SchemaVersion string         `json:"schemaVersion" yaml:"schemaVersion"`
	Page          map[string]any `json:"page,omitempty" yaml:"page,omitempty"`
	Checksum      string         `json:"checksum,omitempty" yaml:"checksum,omitempty"`
}

// Clone returns a deep copy of the definition. Mutating the copy's Page
// never affects the original.
func (d Definition) Clone() Definition {
	out := d
	if d.Page != nil {
		out.Page = clonePage(d.Page)
	}
	return out
}

func clonePage(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return clonePage(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		// Scalars (and anything else) are copied by value.
		return v
	}
}
