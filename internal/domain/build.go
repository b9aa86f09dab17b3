package domain

import (
	"context"
	"time"
)

// Builder installs dependencies and builds a tool in place.
type Builder interface {
	RunBuild(ctx context.Context, rootPath string) error
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, rootPath string) error

func (f BuilderFunc) RunBuild(ctx context.Context, rootPath string) error {
	return f(ctx, rootPath)
}

// ProcessError reports a build step that exited unsuccessfully.
type ProcessError struct {
	Command []string
	Dir     string
	Output  string
	Cause   error
}

func (e *ProcessError) Error() string {
	if e == nil {
		return ""
	}
	msg := "process failed"
	if e.Cause != nil {
		msg = e.Cause.Error()
	}
	if e.Output == "" {
		return msg
	}
	return msg + "\n" + e.Output
}

func (e *ProcessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// BuildRecord is one recorded build attempt.
type BuildRecord struct {
	ID        string        `json:"id" yaml:"id"`
	Tool      string        `json:"tool" yaml:"tool"`
	Path      string        `json:"path" yaml:"path"`
	StartedAt time.Time     `json:"startedAt" yaml:"startedAt"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Succeeded bool          `json:"succeeded" yaml:"succeeded"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// BuildHistory persists build attempts.
type BuildHistory interface {
	Append(record BuildRecord) error
	List(tool string, limit int) ([]BuildRecord, error)
	Last(tool string) (BuildRecord, bool, error)
}

// NoopBuildHistory discards build records.
type NoopBuildHistory struct{}

func (NoopBuildHistory) Append(BuildRecord) error                { return nil }
func (NoopBuildHistory) List(string, int) ([]BuildRecord, error) { return nil, nil }
func (NoopBuildHistory) Last(string) (BuildRecord, bool, error)  { return BuildRecord{}, false, nil }
