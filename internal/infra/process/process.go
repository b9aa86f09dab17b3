package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"sync"
)

// Cleanup releases resources held for a started process.
type Cleanup func()

// Result is the outcome of a finished command.
type Result struct {
	Output   []byte
	ExitCode int
}

// Run starts cmd, waits for it and returns its combined output. Cancelling ctx
// kills the whole process group so package-manager children do not linger.
func Run(ctx context.Context, cmd *exec.Cmd) (Result, error) {
	if cmd == nil {
		return Result{}, errors.New("command is required")
	}
	var out lockedBuffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	cleanup := Setup(cmd)

	if err := cmd.Start(); err != nil {
		return Result{}, err
	}
	err := Wait(ctx, cmd, cleanup)
	result := Result{Output: out.Bytes(), ExitCode: exitCode(cmd)}
	return result, err
}

// Wait blocks until cmd exits or ctx is done. On cancellation the process
// group is killed and ctx.Err() is returned.
func Wait(ctx context.Context, cmd *exec.Cmd, cleanup Cleanup) error {
	if cmd == nil {
		return nil
	}
	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	if ctx == nil {
		return <-done
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if cleanup != nil {
			cleanup()
		}
		<-done
		return ctx.Err()
	}
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}
