// Package page owns the page definition schema: its latest version and
// the migration chain that brings older documents up to it.
//
// Transform bodies here are the authored steps the engine treats as
// opaque. Each must be pure and deterministic: it derives its output
// from the working copy it receives and nothing else.
package page

import (
	"pageforge/internal/definition"
	"pageforge/internal/migration"
)

// LatestSchemaVersion is the schema version this runtime writes.
// Documents newer than this are refused, never downgraded.
const LatestSchemaVersion = "1.2.0"

// NewRegistry assembles the page schema's migration chain:
//
//	0.9.0 -> 1.0.0 -> 1.1.0 -> 1.2.0
//
// Called once at startup; the result is read-only.
func NewRegistry() (*migration.Registry, error) {
	return migration.NewRegistry(
		migration.Migration{From: "0.9.0", To: "1.0.0", Transform: renameWidgetsToComponents},
		migration.Migration{From: "1.0.0", To: "1.1.0", Transform: addDefaultLayout},
		migration.Migration{From: "1.1.0", To: "1.2.0", Transform: moveDescriptionIntoMeta},
	)
}

// renameWidgetsToComponents (0.9.0 -> 1.0.0): the pre-1.0 schema called
// page children "widgets"; 1.0.0 renamed the field to "components" and
// made "title" mandatory (empty when absent).
func renameWidgetsToComponents(def definition.Definition) (definition.Definition, error) {
	page := pageOf(def)
	if widgets, ok := page["widgets"]; ok {
		page["components"] = widgets
		delete(page, "widgets")
	}
	if _, ok := page["components"]; !ok {
		page["components"] = []any{}
	}
	if _, ok := page["title"]; !ok {
		page["title"] = ""
	}
	def.Page = page
	return def, nil
}

// addDefaultLayout (1.0.0 -> 1.1.0): 1.1.0 introduced an explicit layout
// object; earlier documents rendered with an implicit vertical stack.
func addDefaultLayout(def definition.Definition) (definition.Definition, error) {
	page := pageOf(def)
	if _, ok := page["layout"]; !ok {
		page["layout"] = map[string]any{"type": "stack"}
	}
	def.Page = page
	return def, nil
}

// moveDescriptionIntoMeta (1.1.0 -> 1.2.0): 1.2.0 gathered descriptive
// fields under a single "meta" object.
func moveDescriptionIntoMeta(def definition.Definition) (definition.Definition, error) {
	page := pageOf(def)
	meta, _ := page["meta"].(map[string]any)
	if meta == nil {
		meta = map[string]any{}
	}
	if desc, ok := page["description"]; ok {
		if _, taken := meta["description"]; !taken {
			meta["description"] = desc
		}
		delete(page, "description")
	}
	page["meta"] = meta
	def.Page = page
	return def, nil
}

// pageOf returns the definition's page, materializing an empty one for
// documents that omit it. The engine hands transforms a working copy, so
// in-place edits are safe here.
func pageOf(def definition.Definition) map[string]any {
	if def.Page == nil {
		return map[string]any{}
	}
	return def.Page
}
