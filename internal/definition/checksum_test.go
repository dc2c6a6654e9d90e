package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStamp_KeyOrderDoesNotAffectChecksum verifies the determinism
// requirement: structurally equal pages, differing only in map key
// insertion order, fingerprint identically.
func TestStamp_KeyOrderDoesNotAffectChecksum(t *testing.T) {
	c := NewChecksummer()

	first := map[string]any{}
	first["a"] = float64(1)
	first["b"] = float64(2)

	second := map[string]any{}
	second["b"] = float64(2)
	second["a"] = float64(1)

	s1, err := c.Checksum(first)
	require.NoError(t, err)
	s2, err := c.Checksum(second)
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

// TestStamp_ValueChangeInvalidatesChecksum verifies content sensitivity.
func TestStamp_ValueChangeInvalidatesChecksum(t *testing.T) {
	c := NewChecksummer()

	s1, err := c.Checksum(map[string]any{"a": float64(1)})
	require.NoError(t, err)
	s2, err := c.Checksum(map[string]any{"a": float64(2)})
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

// TestStamp_ArrayOrderMatters verifies array element order is preserved:
// [1,2] and [2,1] are different payloads.
func TestStamp_ArrayOrderMatters(t *testing.T) {
	c := NewChecksummer()

	s1, err := c.Checksum(map[string]any{"xs": []any{float64(1), float64(2)}})
	require.NoError(t, err)
	s2, err := c.Checksum(map[string]any{"xs": []any{float64(2), float64(1)}})
	require.NoError(t, err)
	assert.NotEqual(t, s1, s2)
}

func TestStamp_NestedKeyOrderDoesNotAffectChecksum(t *testing.T) {
	c := NewChecksummer()

	s1, err := c.Checksum(map[string]any{
		"meta": map[string]any{"x": "1", "y": "2"},
	})
	require.NoError(t, err)
	s2, err := c.Checksum(map[string]any{
		"meta": map[string]any{"y": "2", "x": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, s1, s2)
}

// TestStamp_AbsentPageHashesAsEmptyObject verifies nil and {} pages
// fingerprint identically.
func TestStamp_AbsentPageHashesAsEmptyObject(t *testing.T) {
	c := NewChecksummer()

	nilSum, err := c.Checksum(nil)
	require.NoError(t, err)
	emptySum, err := c.Checksum(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, nilSum, emptySum)
}

// TestStamp_ChecksumCoversPageOnly verifies the envelope fields never
// contribute: two definitions with equal pages but different versions and
// prior checksums stamp the same fingerprint.
func TestStamp_ChecksumCoversPageOnly(t *testing.T) {
	c := NewChecksummer()
	pageA := map[string]any{"title": "Hi"}

	d1, err := c.Stamp(Definition{SchemaVersion: "1.0.0", Page: pageA})
	require.NoError(t, err)
	d2, err := c.Stamp(Definition{SchemaVersion: "9.9.9", Page: map[string]any{"title": "Hi"}, Checksum: "stale"})
	require.NoError(t, err)

	assert.Equal(t, d1.Checksum, d2.Checksum)
}

// TestStamp_DoesNotMutateInput verifies value semantics: the input
// definition is returned untouched.
func TestStamp_DoesNotMutateInput(t *testing.T) {
	c := NewChecksummer()
	in := Definition{SchemaVersion: "1.0.0", Page: map[string]any{"title": "Hi"}}

	out, err := c.Stamp(in)
	require.NoError(t, err)

	assert.Empty(t, in.Checksum, "input checksum must stay unset")
	assert.NotEmpty(t, out.Checksum)
	out.Page["title"] = "changed"
	assert.Equal(t, "Hi", in.Page["title"], "stamped copy must not alias the input page")
}

func TestStamp_HexFormat(t *testing.T) {
	c := NewChecksummer()
	sum, err := c.Checksum(map[string]any{"k": "v"})
	require.NoError(t, err)

	// sha256 produces 32 bytes = 64 hex characters.
	require.Len(t, sum, 64)
	for _, r := range sum {
		valid := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		assert.True(t, valid, "invalid hex character %q", r)
	}
}

// TestCanonicalEncode_IntegralNumbersAgreeAcrossSources verifies a YAML
// int and a JSON float64 of the same value encode identically, so the
// same document fingerprints the same regardless of source format.
func TestCanonicalEncode_IntegralNumbersAgreeAcrossSources(t *testing.T) {
	fromJSON, err := CanonicalEncode(map[string]any{"n": float64(7)})
	require.NoError(t, err)
	fromYAML, err := CanonicalEncode(map[string]any{"n": 7})
	require.NoError(t, err)
	assert.Equal(t, fromJSON, fromYAML)
}

func TestCanonicalEncode_RejectsNonJSONValues(t *testing.T) {
	_, err := CanonicalEncode(map[string]any{"ch": make(chan int)})
	assert.ErrorIs(t, err, ErrUnencodableValue)

	_, err = CanonicalEncode(map[string]any{"nested": []any{struct{ X int }{1}}})
	assert.ErrorIs(t, err, ErrUnencodableValue)
}

func TestCanonicalEncode_Deterministic(t *testing.T) {
	page := map[string]any{
		"title":      "Landing",
		"components": []any{map[string]any{"type": "hero", "order": float64(1)}},
		"meta":       map[string]any{"description": "d"},
	}

	first, err := CanonicalEncode(page)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := CanonicalEncode(page)
		require.NoError(t, err)
		require.Equal(t, first, again, "iteration %d", i)
	}
}
