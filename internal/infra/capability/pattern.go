package capability

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"mcpreg/internal/domain"
)

// namePattern matches `name: "tool_name"` declarations in tool sources.
var namePattern = regexp.MustCompile(`name:\s*["']([^"']+)["']`)

// PatternDiscoverer is a heuristic: it scans one conventional source file for
// name declarations. It reads text only and never executes the tool, so the
// result may miss capabilities declared any other way.
type PatternDiscoverer struct {
	source  string
	exclude string
	logger  *zap.Logger
}

// NewPatternDiscoverer scans <tool>/<source>. Matches containing exclude (the
// tool prefix token) are dropped so the server's own name is not reported.
func NewPatternDiscoverer(source, exclude string, logger *zap.Logger) *PatternDiscoverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PatternDiscoverer{
		source:  source,
		exclude: exclude,
		logger:  logger.Named("capability"),
	}
}

// SourcePath returns the file scanned for toolPath.
func (d *PatternDiscoverer) SourcePath(toolPath string) string {
	return filepath.Join(toolPath, d.source)
}

func (d *PatternDiscoverer) Discover(ctx context.Context, toolPath string) []string {
	if ctx != nil && ctx.Err() != nil {
		return []string{}
	}
	data, err := os.ReadFile(d.SourcePath(toolPath))
	if err != nil {
		d.logger.Debug("capability source unreadable", zap.String("path", toolPath), zap.Error(err))
		return []string{}
	}
	return Extract(string(data), d.exclude)
}

// Extract returns matched names in source order, duplicates kept.
func Extract(content, exclude string) []string {
	matches := namePattern.FindAllStringSubmatch(content, -1)
	out := make([]string, 0, len(matches))
	for _, match := range matches {
		name := match[1]
		if exclude != "" && strings.Contains(name, exclude) {
			continue
		}
		out = append(out, name)
	}
	return out
}

var _ domain.CapabilityDiscoverer = (*PatternDiscoverer)(nil)
