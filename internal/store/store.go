// Package store provides persistent storage for migrated definitions and
// a quarantine for documents the pipeline rejects, under:
//
//	<baseDir>/.pageforge/definitions/<slug>.json
//	<baseDir>/.pageforge/quarantine/<id>.json
//
// All writes are atomic and durable (file sync + atomic rename + dir
// sync). The pipeline itself never touches this package; it belongs to
// the loader/orchestrator side of the boundary.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pageforge/internal/definition"
)

// Store provides durable storage rooted at a base directory.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("baseDir is required")
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) definitionsDir() string {
	return filepath.Join(s.baseDir, ".pageforge", "definitions")
}

func (s *Store) quarantineDir() string {
	return filepath.Join(s.baseDir, ".pageforge", "quarantine")
}

func (s *Store) definitionPath(slug string) string {
	// Assumption: slug is a stable identifier safe to use as a filename;
	// the CLI derives it from the input basename.
	return filepath.Join(s.definitionsDir(), slug+".json")
}

// SaveDefinition durably writes a migrated definition under slug.
//
// Only fully processed definitions belong here: the schema version and
// checksum must both be populated.
func (s *Store) SaveDefinition(slug string, def definition.Definition) error {
	if strings.TrimSpace(slug) == "" {
		return errors.New("slug is required")
	}
	if def.SchemaVersion == "" {
		return errors.New("definition has no schemaVersion")
	}
	if def.Checksum == "" {
		return errors.New("definition has no checksum")
	}
	if err := ensureDirDurable(s.definitionsDir(), 0o755); err != nil {
		return fmt.Errorf("ensure definitions dir: %w", err)
	}
	data, err := definition.Encode(def)
	if err != nil {
		return fmt.Errorf("marshal definition: %w", err)
	}
	if err := writeFileAtomicDurable(s.definitionPath(slug), data, 0o644); err != nil {
		return fmt.Errorf("write definition: %w", err)
	}
	return nil
}

func (s *Store) LoadDefinition(slug string) (definition.Definition, error) {
	var def definition.Definition
	if strings.TrimSpace(slug) == "" {
		return definition.Definition{}, errors.New("slug is required")
	}
	if err := readJSONStrict(s.definitionPath(slug), &def); err != nil {
		return definition.Definition{}, err
	}
	if def.SchemaVersion == "" {
		return definition.Definition{}, errors.New("invalid definition on disk: schemaVersion is empty")
	}
	return def, nil
}

// ListSlugs returns all stored definition slugs.
//
// Determinism: the returned slice is sorted lexicographically.
func (s *Store) ListSlugs() ([]string, error) {
	if s == nil {
		return nil, errors.New("nil Store")
	}
	return listJSONNames(s.definitionsDir())
}

func listJSONNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		base := strings.TrimSuffix(name, ".json")
		if strings.TrimSpace(base) == "" {
			continue
		}
		names = append(names, base)
	}
	sort.Strings(names)
	return names, nil
}

func jsonMarshalStable(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func readJSONStrict(path string, dst any) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	// Ensure no trailing junk.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("invalid JSON: trailing content")
	}
	return nil
}

func ensureDirDurable(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return err
	}
	// Best-effort durability: sync the directory and its parent.
	if err := fsyncDir(dir); err != nil {
		return err
	}
	parent := filepath.Dir(dir)
	if parent != dir {
		if err := fsyncDir(parent); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomicDurable(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return fsyncDir(dir)
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
