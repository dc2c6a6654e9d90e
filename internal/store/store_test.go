package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pageforge/internal/definition"
	"pageforge/internal/migration"
	"pageforge/internal/version"
)

func TestNewStore_RequiresBaseDir(t *testing.T) {
	_, err := NewStore("  ")
	assert.Error(t, err)
}

func TestSaveDefinition_RoundTrip(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	def := definition.Definition{
		SchemaVersion: "1.2.0",
		Page:          map[string]any{"title": "Hi", "count": float64(3)},
		Checksum:      "deadbeef",
	}
	require.NoError(t, st.SaveDefinition("landing", def))

	back, err := st.LoadDefinition("landing")
	require.NoError(t, err)
	assert.Equal(t, def, back)
}

// TestSaveDefinition_RejectsUnprocessedDefinitions verifies only fully
// pipelined definitions (version + checksum) are persisted.
func TestSaveDefinition_RejectsUnprocessedDefinitions(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	err = st.SaveDefinition("x", definition.Definition{SchemaVersion: "1.0.0"})
	assert.Error(t, err, "missing checksum")

	err = st.SaveDefinition("x", definition.Definition{Checksum: "abc"})
	assert.Error(t, err, "missing schemaVersion")

	err = st.SaveDefinition("", definition.Definition{SchemaVersion: "1.0.0", Checksum: "abc"})
	assert.Error(t, err, "missing slug")
}

func TestListSlugs_SortedAndFiltered(t *testing.T) {
	base := t.TempDir()
	st, err := NewStore(base)
	require.NoError(t, err)

	for _, slug := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, st.SaveDefinition(slug, definition.Definition{
			SchemaVersion: "1.0.0",
			Checksum:      "abc",
		}))
	}
	// Non-JSON debris must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(base, ".pageforge", "definitions", "notes.txt"), []byte("x"), 0o644))

	slugs, err := st.ListSlugs()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, slugs)
}

func TestListSlugs_MissingDirIsEmpty(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	slugs, err := st.ListSlugs()
	require.NoError(t, err)
	assert.Empty(t, slugs)
}

// TestLoadDefinition_StrictRead verifies on-disk corruption (unknown
// fields) is refused rather than silently dropped.
func TestLoadDefinition_StrictRead(t *testing.T) {
	base := t.TempDir()
	st, err := NewStore(base)
	require.NoError(t, err)

	dir := filepath.Join(base, ".pageforge", "definitions")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "bad.json"),
		[]byte(`{"schemaVersion":"1.0.0","checksum":"abc","owner":"me"}`),
		0o644,
	))

	_, err = st.LoadDefinition("bad")
	assert.Error(t, err)
}

func TestQuarantine_RoundTrip(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	raw := []byte(`{"schemaVersion":"9.9.9","page":{}}`)
	rec, err := st.Quarantine("landing", raw, migration.ErrUnsupportedFutureVersion)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, FailureClassFutureVersion, rec.FailureClass)

	back, err := st.LoadQuarantine(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec, back)
	assert.Equal(t, raw, back.Raw, "original bytes must be preserved for operators")

	ids, err := st.ListQuarantineIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{rec.ID}, ids)
}

func TestQuarantine_NilCause(t *testing.T) {
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = st.Quarantine("x", nil, nil)
	assert.Error(t, err)
}

// TestClassifyFailure_Taxonomy verifies each pipeline error kind maps to
// its operator-facing class.
func TestClassifyFailure_Taxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want FailureClass
	}{
		{migration.ErrMigrationLoop, FailureClassLoop},
		{migration.ErrNoMigrationPath, FailureClassNoPath},
		{migration.ErrUnsupportedFutureVersion, FailureClassFutureVersion},
		{definition.ErrMalformedDocument, FailureClassDecode},
		{definition.ErrMissingSchemaVersion, FailureClassDecode},
		{version.ErrInvalidVersion, FailureClassDecode},
		{definition.ErrUnencodableValue, FailureClassChecksum},
		{assert.AnError, FailureClassUnknown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ClassifyFailure(c.err), "%v", c.err)
	}
}
