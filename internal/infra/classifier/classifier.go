package classifier

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
	"mcpreg/internal/infra/manifest"
)

// Classifier turns one tool directory into a ToolRecord.
type Classifier struct {
	archiveRoot  string
	prefix       string
	manifestName string
	defaultEntry string
	discoverer   domain.CapabilityDiscoverer
	logger       *zap.Logger
}

// Options configures a Classifier.
type Options struct {
	ArchiveRoot  string
	ToolPrefix   string
	ManifestName string
	DefaultEntry string
	Discoverer   domain.CapabilityDiscoverer
	Logger       *zap.Logger
}

func New(opts Options) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	discoverer := opts.Discoverer
	if discoverer == nil {
		discoverer = domain.NoopCapabilityDiscoverer{}
	}
	manifestName := opts.ManifestName
	if manifestName == "" {
		manifestName = domain.DefaultManifestName
	}
	defaultEntry := opts.DefaultEntry
	if defaultEntry == "" {
		defaultEntry = domain.DefaultEntryPoint
	}
	archiveRoot := opts.ArchiveRoot
	if archiveRoot != "" {
		if abs, err := filepath.Abs(archiveRoot); err == nil {
			archiveRoot = abs
		}
	}
	return &Classifier{
		archiveRoot:  archiveRoot,
		prefix:       opts.ToolPrefix,
		manifestName: manifestName,
		defaultEntry: defaultEntry,
		discoverer:   discoverer,
		logger:       logger.Named("classifier"),
	}
}

// Classify inspects path against the scan's membership snapshot. It returns
// false when the directory cannot be stat'ed; such entries are skipped.
//
// Checks run in order and the first match wins: archive location, manifest,
// entry point. Capabilities are only discovered for active tools.
func (c *Classifier) Classify(ctx context.Context, path string, members domain.Membership) (domain.ToolRecord, bool) {
	location, err := filepath.Abs(path)
	if err != nil {
		return domain.ToolRecord{}, false
	}
	info, err := os.Stat(location)
	if err != nil {
		c.logger.Debug("skip unreadable tool directory", zap.String("path", location), zap.Error(err))
		return domain.ToolRecord{}, false
	}

	name := filepath.Base(location)
	short := domain.ShortName(name, c.prefix)
	record := domain.ToolRecord{
		Name:         name,
		ShortName:    short,
		Path:         location,
		Configured:   members.Has(short),
		Status:       domain.StatusUnconfigured,
		LastModified: info.ModTime(),
	}

	if c.IsArchived(location) {
		record.Status = domain.StatusArchived
		return record, true
	}

	m, err := manifest.Read(filepath.Join(location, c.manifestName))
	if err != nil {
		record.Status = domain.StatusBroken
		record.Error = domain.DiagnosticMissingManifest
		return record, true
	}
	record.Description = m.Description
	record.Version = m.Version

	entry := m.EntryPoint(c.defaultEntry)
	built := fileExists(filepath.Join(location, entry))
	switch {
	case built && record.Configured:
		record.Status = domain.StatusActive
	case built:
		record.Status = domain.StatusUnconfigured
	case record.Configured:
		record.Status = domain.StatusBroken
		record.Error = domain.NotBuiltDiagnostic(entry)
	default:
		record.Status = domain.StatusUnconfigured
	}

	if record.Status == domain.StatusActive {
		record.Tools = c.discoverer.Discover(ctx, location)
	}
	return record, true
}

// IsArchived reports whether location is the archive root or inside it.
func (c *Classifier) IsArchived(location string) bool {
	if c.archiveRoot == "" {
		return false
	}
	rel, err := filepath.Rel(c.archiveRoot, location)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
