package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInvocation_MinimalValid(t *testing.T) {
	inv, err := ParseInvocation([]string{"--workdir", "/work", "--in", "page.json"})
	require.NoError(t, err)

	assert.Equal(t, "/work", inv.WorkDir)
	assert.Equal(t, filepath.Join("/work", "page.json"), inv.InputPath)
	assert.Equal(t, "page", inv.Slug, "slug derives from the input basename")
	assert.Empty(t, inv.OutputPath)
	assert.Empty(t, inv.StoreDir)
	assert.Empty(t, inv.TracePath)
}

func TestParseInvocation_ResolvesRelativePathsUnderWorkDir(t *testing.T) {
	inv, err := ParseInvocation([]string{
		"--workdir", "/work",
		"--in", "defs/page.yaml",
		"--out", "out/page.json",
		"--store-dir", "store",
		"--trace", "trace.json",
	})
	require.NoError(t, err)

	assert.Equal(t, "/work/defs/page.yaml", inv.InputPath)
	assert.Equal(t, "/work/out/page.json", inv.OutputPath)
	assert.Equal(t, "/work/store", inv.StoreDir)
	assert.Equal(t, "/work/trace.json", inv.TracePath)
}

func TestParseInvocation_AbsolutePathsAcceptedAsIs(t *testing.T) {
	inv, err := ParseInvocation([]string{"--workdir", "/work", "--in", "/elsewhere/page.json"})
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/page.json", inv.InputPath)
}

func TestParseInvocation_ExplicitSlugWins(t *testing.T) {
	inv, err := ParseInvocation([]string{"--workdir", "/work", "--in", "page.json", "--slug", "landing"})
	require.NoError(t, err)
	assert.Equal(t, "landing", inv.Slug)
}

func TestParseInvocation_Invalid(t *testing.T) {
	cases := []struct {
		name string
		args []string
	}{
		{"missing workdir", []string{"--in", "page.json"}},
		{"relative workdir", []string{"--workdir", "work", "--in", "page.json"}},
		{"missing input", []string{"--workdir", "/work"}},
		{"unknown flag", []string{"--workdir", "/work", "--in", "page.json", "--bogus"}},
		{"positional args", []string{"--workdir", "/work", "--in", "page.json", "extra"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseInvocation(c.args)
			require.Error(t, err)
			assert.Equal(t, ExitInvalidInvocation, ExitCode(err))
		})
	}
}

func TestExitCode_Mapping(t *testing.T) {
	assert.Equal(t, ExitSuccess, ExitCode(nil))
	assert.Equal(t, ExitInvalidInvocation, ExitCode(&InvocationError{ExitCode: ExitInvalidInvocation, Message: "m"}))
	assert.Equal(t, ExitInternalError, ExitCode(assert.AnError))
}
