package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_ReadsKnownFields(t *testing.T) {
	m, err := Parse([]byte(`{"name":"mcp-demo","description":"Demo","version":"1.2.0","main":"build/run.js"}`))
	require.NoError(t, err)
	require.Equal(t, Manifest{Description: "Demo", Version: "1.2.0", Main: "build/run.js"}, m)
}

func TestParse_IgnoresNonStringFields(t *testing.T) {
	m, err := Parse([]byte(`{"description": 3, "version": ["1"], "main": null}`))
	require.NoError(t, err)
	require.Equal(t, Manifest{}, m)
}

func TestParse_RejectsInvalidDocuments(t *testing.T) {
	cases := map[string]string{
		"syntax": `{"main": `,
		"null":   `null`,
		"array":  `[1,2]`,
		"string": `"index.js"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "package.json"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestEntryPointFallsBack(t *testing.T) {
	require.Equal(t, "index.js", Manifest{}.EntryPoint("index.js"))
	require.Equal(t, "dist/server.js", Manifest{Main: "dist/server.js"}.EntryPoint("index.js"))
	require.Equal(t, filepath.Join("/tools/mcp-a", "index.js"), Manifest{}.ResolveEntryPoint("/tools/mcp-a", "index.js"))
}

func TestCanonicalVersion(t *testing.T) {
	require.Equal(t, "v1.2.0", CanonicalVersion("1.2.0"))
	require.Equal(t, "v1.2.0", CanonicalVersion("v1.2"))
	require.Equal(t, "v0.1.0-beta.1", CanonicalVersion("0.1.0-beta.1"))
	require.Equal(t, "", CanonicalVersion("latest"))
	require.Equal(t, "", CanonicalVersion(""))
}
