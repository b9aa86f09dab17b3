//go:build unix

package process

import (
	"os"
	"os/exec"
	"syscall"
)

// Setup places cmd in its own process group.
func Setup(cmd *exec.Cmd) Cleanup {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	return func() {
		_ = killProcessGroup(cmd.Process)
	}
}

func killProcessGroup(proc *os.Process) error {
	if proc == nil {
		return nil
	}
	if err := syscall.Kill(-proc.Pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return err
	}
	return nil
}
