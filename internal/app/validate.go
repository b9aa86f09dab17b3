package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"mcpreg/internal/infra/enumerator"
	"mcpreg/internal/infra/membership"
)

// ValidateReport describes what the resolved settings point at.
type ValidateReport struct {
	SettingsFile      string   `json:"settingsFile,omitempty" yaml:"settingsFile,omitempty"`
	CandidateRoot     string   `json:"candidateRoot" yaml:"candidateRoot"`
	ArchiveRoot       string   `json:"archiveRoot" yaml:"archiveRoot"`
	ConfigDocument    string   `json:"configDocument" yaml:"configDocument"`
	ConfiguredEntries int      `json:"configuredEntries" yaml:"configuredEntries"`
	CandidateTools    int      `json:"candidateTools" yaml:"candidateTools"`
	ArchivedTools     int      `json:"archivedTools" yaml:"archivedTools"`
	RescanSchedule    string   `json:"rescanSchedule,omitempty" yaml:"rescanSchedule,omitempty"`
	Problems          []string `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// ErrInvalidSettings is returned by ValidateSettings when problems were found.
var ErrInvalidSettings = errors.New("settings validation failed")

// ValidateSettings checks that the candidate root is a directory, the config
// document decodes and the rescan schedule parses. Scans tolerate all of
// these; validate reports them so misconfiguration is visible.
func ValidateSettings(ctx context.Context, settings Settings, logger *zap.Logger) (ValidateReport, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := settings.Registry.WithDefaults()
	report := ValidateReport{
		SettingsFile:   settings.SettingsFile,
		CandidateRoot:  cfg.CandidateRoot,
		ArchiveRoot:    cfg.ArchiveRoot,
		ConfigDocument: cfg.ConfigDocumentPath,
		RescanSchedule: settings.RescanSchedule,
	}

	if err := cfg.Validate(); err != nil {
		report.Problems = append(report.Problems, err.Error())
	}
	if err := checkDir(cfg.CandidateRoot); err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("candidate root: %v", err))
	}

	reader := membership.NewReader(membership.Options{
		Path:       cfg.ConfigDocumentPath,
		Format:     cfg.ConfigFormat,
		ServersKey: cfg.ServersKey,
		Logger:     logger,
	})
	if err := ctx.Err(); err != nil {
		return report, err
	}
	members, err := reader.Load()
	if err != nil {
		report.Problems = append(report.Problems, fmt.Sprintf("config document: %v", err))
	} else {
		report.ConfiguredEntries = members.Len()
	}

	if settings.RescanSchedule != "" {
		if _, err := ParseRescanSchedule(settings.RescanSchedule); err != nil {
			report.Problems = append(report.Problems, err.Error())
		}
	}

	enum := enumerator.New(cfg.ToolPrefix, logger)
	report.CandidateTools = len(enum.Candidates(cfg.CandidateRoot))
	report.ArchivedTools = len(enum.Candidates(cfg.ArchiveRoot))

	if len(report.Problems) > 0 {
		logger.Warn("settings validation failed", zap.Strings("problems", report.Problems))
		return report, fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(report.Problems, "; "))
	}
	logger.Info("settings validated",
		zap.String("candidate_root", report.CandidateRoot),
		zap.Int("configured_entries", report.ConfiguredEntries),
		zap.Int("candidate_tools", report.CandidateTools),
	)
	return report, nil
}

func checkDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.New("not set")
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}
