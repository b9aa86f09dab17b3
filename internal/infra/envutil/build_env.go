package envutil

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	skipPathPatchEnv = "MCPREG_SKIP_PATH_PATCH"
	termEnv          = "TERM"
	shellEnv         = "SHELL"
	pathEnv          = "PATH"
)

type loginPath struct {
	path string
	err  error
}

var loginPathCache sync.Map

// BuildEnv returns the environment for build commands: base with extra
// applied on top and, on macOS, PATH merged with the login shell's PATH.
// The registry is usually spawned by a desktop client whose PATH lacks npm.
func BuildEnv(base []string, extra map[string]string) []string {
	env := append([]string(nil), base...)
	keys := make([]string, 0, len(extra))
	for key := range extra {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		env = setEnvValue(env, key, extra[key])
	}
	return patchPATH(env, runtime.GOOS, loginShellPATH)
}

func patchPATH(env []string, goos string, resolve func(shell string) (string, error)) []string {
	if goos != "darwin" {
		return env
	}
	if strings.TrimSpace(envVarValue(env, skipPathPatchEnv)) != "" {
		return env
	}
	if strings.TrimSpace(envVarValue(env, termEnv)) != "" {
		return env
	}
	shell := strings.TrimSpace(envVarValue(env, shellEnv))
	if shell == "" {
		shell = "/bin/zsh"
	}
	login, err := resolve(shell)
	if err != nil || strings.TrimSpace(login) == "" {
		return env
	}
	current := envVarValue(env, pathEnv)
	merged := mergePATH(login, current)
	if merged == "" || merged == current {
		return env
	}
	return setEnvValue(env, pathEnv, merged)
}

func envVarValue(env []string, key string) string {
	if key == "" {
		return ""
	}
	prefix := key + "="
	var value string
	for _, entry := range env {
		if strings.HasPrefix(entry, prefix) {
			value = strings.TrimPrefix(entry, prefix)
		}
	}
	return value
}

func setEnvValue(env []string, key, value string) []string {
	if key == "" {
		return env
	}
	prefix := key + "="
	out := make([]string, 0, len(env)+1)
	for _, entry := range env {
		if !strings.HasPrefix(entry, prefix) {
			out = append(out, entry)
		}
	}
	return append(out, prefix+value)
}

func loginShellPATH(shell string) (string, error) {
	if cached, ok := loginPathCache.Load(shell); ok {
		entry := cached.(loginPath)
		return entry.path, entry.err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, shell, "-lc", "echo $PATH")
	cmd.Env = append(os.Environ(), "LANG=C", "LC_ALL=C")
	output, err := cmd.Output()
	path := strings.TrimSpace(string(output))
	loginPathCache.Store(shell, loginPath{path: path, err: err})
	return path, err
}

func mergePATH(primary, fallback string) string {
	separator := string(os.PathListSeparator)
	seen := map[string]struct{}{}
	out := make([]string, 0, 8)
	for _, path := range []string{primary, fallback} {
		for _, entry := range strings.Split(path, separator) {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			if _, exists := seen[entry]; exists {
				continue
			}
			seen[entry] = struct{}{}
			out = append(out, entry)
		}
	}
	return strings.Join(out, separator)
}
