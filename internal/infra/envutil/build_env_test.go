package envutil

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergePATHDeduplicates(t *testing.T) {
	sep := string(os.PathListSeparator)
	primary := strings.Join([]string{"/opt/homebrew/bin", "/usr/bin"}, sep)
	fallback := strings.Join([]string{"/usr/bin", "/bin"}, sep)

	got := mergePATH(primary, fallback)
	require.Equal(t, strings.Join([]string{"/opt/homebrew/bin", "/usr/bin", "/bin"}, sep), got)
	require.Equal(t, "", mergePATH("", ""))
}

func TestSetEnvValueReplacesAll(t *testing.T) {
	env := []string{"A=1", "PATH=/bin", "B=2", "PATH=/usr/bin"}
	out := setEnvValue(env, "PATH", "/opt/bin")
	require.Equal(t, []string{"A=1", "B=2", "PATH=/opt/bin"}, out)
	require.Equal(t, "/opt/bin", envVarValue(out, "PATH"))
}

func TestPatchPATHOnlyOnDarwinWithoutTerminal(t *testing.T) {
	resolve := func(string) (string, error) { return "/opt/homebrew/bin", nil }
	env := []string{"PATH=/usr/bin"}

	require.Equal(t, env, patchPATH(env, "linux", resolve))
	require.Equal(t, []string{"PATH=/usr/bin", "TERM=xterm"}, patchPATH([]string{"PATH=/usr/bin", "TERM=xterm"}, "darwin", resolve))
	require.Equal(t, env, patchPATH(env, "darwin", func(string) (string, error) { return "", errors.New("no shell") }))

	got := patchPATH(env, "darwin", resolve)
	sep := string(os.PathListSeparator)
	require.Equal(t, "/opt/homebrew/bin"+sep+"/usr/bin", envVarValue(got, "PATH"))
}

func TestBuildEnvAppliesOverrides(t *testing.T) {
	got := BuildEnv([]string{"NODE_ENV=development", "HOME=/home/u"}, map[string]string{"NODE_ENV": "production"})
	require.Equal(t, "production", envVarValue(got, "NODE_ENV"))
	require.Equal(t, "/home/u", envVarValue(got, "HOME"))
}
