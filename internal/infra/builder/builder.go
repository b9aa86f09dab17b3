package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/envutil"
	"mcpreg/internal/infra/process"
	"mcpreg/internal/infra/telemetry"
)

// maxOutputBytes bounds how much process output is kept on a ProcessError.
const maxOutputBytes = 4096

// CommandBuilder runs a fixed sequence of commands in the tool root.
// The default sequence is `npm install` followed by `npm run build`.
type CommandBuilder struct {
	steps  [][]string
	env    map[string]string
	logger *zap.Logger
}

// Options configures a CommandBuilder.
type Options struct {
	Steps  [][]string
	Env    map[string]string
	Logger *zap.Logger
}

func New(opts Options) *CommandBuilder {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	steps := opts.Steps
	if len(steps) == 0 {
		steps = domain.DefaultBuildSteps()
	}
	return &CommandBuilder{
		steps:  steps,
		env:    opts.Env,
		logger: logger.Named("builder"),
	}
}

// RunBuild runs every step in rootPath and stops at the first failure.
func (b *CommandBuilder) RunBuild(ctx context.Context, rootPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	info, err := os.Stat(rootPath)
	if err != nil {
		return fmt.Errorf("build root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("build root %s is not a directory", rootPath)
	}
	env := envutil.BuildEnv(os.Environ(), b.env)
	for _, step := range b.steps {
		if err := b.runStep(ctx, rootPath, step, env); err != nil {
			return err
		}
	}
	return nil
}

func (b *CommandBuilder) runStep(ctx context.Context, dir string, step []string, env []string) error {
	if len(step) == 0 {
		return errors.New("empty build step")
	}
	commandLine := strings.Join(step, " ")
	started := time.Now()
	b.logger.Info("build step starting",
		telemetry.EventField(telemetry.EventBuildStep),
		zap.String("dir", dir),
		zap.String("command", commandLine),
	)

	cmd := exec.CommandContext(ctx, step[0], step[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	res, err := process.Run(ctx, cmd)
	if err != nil {
		b.logger.Warn("build step failed",
			telemetry.EventField(telemetry.EventBuildStep),
			zap.String("command", commandLine),
			zap.Int("exit_code", res.ExitCode),
			telemetry.DurationField(time.Since(started)),
			zap.Error(err),
		)
		return &domain.ProcessError{
			Command: append([]string(nil), step...),
			Dir:     dir,
			Output:  tail(string(res.Output), maxOutputBytes),
			Cause:   fmt.Errorf("command failed: %s: %w", commandLine, err),
		}
	}
	b.logger.Info("build step finished",
		telemetry.EventField(telemetry.EventBuildStep),
		zap.String("command", commandLine),
		telemetry.DurationField(time.Since(started)),
	)
	return nil
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	cut := len(s) - limit
	for cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}

var _ domain.Builder = (*CommandBuilder)(nil)
