//go:build !unix

package process

import "os/exec"

// Setup kills only the direct child on platforms without process groups.
func Setup(cmd *exec.Cmd) Cleanup {
	return func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
}
