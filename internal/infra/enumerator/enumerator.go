package enumerator

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Enumerator lists candidate tool directories under a root.
type Enumerator struct {
	prefix string
	logger *zap.Logger
}

func New(prefix string, logger *zap.Logger) *Enumerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enumerator{prefix: prefix, logger: logger.Named("enumerator")}
}

// Candidates returns the immediate child directories of root whose names carry
// the tool prefix, sorted by name. An unreadable root yields no candidates.
func (e *Enumerator) Candidates(root string) []string {
	if strings.TrimSpace(root) == "" {
		return nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			e.logger.Debug("scan root missing", zap.String("root", root))
		} else {
			e.logger.Warn("scan root unreadable", zap.String("root", root), zap.Error(err))
		}
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), e.prefix) {
			continue
		}
		out = append(out, filepath.Join(root, entry.Name()))
	}
	sort.Strings(out)
	return out
}
