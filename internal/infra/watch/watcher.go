package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"mcpreg/internal/infra/enumerator"
	"mcpreg/internal/infra/telemetry"
)

const defaultDebounce = 300 * time.Millisecond

type Options struct {
	Roots      []string
	ConfigPath string
	ToolPrefix string
	Debounce   time.Duration
	Logger     *zap.Logger
}

// Trigger carries the paths that changed since the previous callback.
type Trigger struct {
	Paths []string
}

// Watcher reports debounced changes to the tool roots, the tool directories
// directly below them and the configuration document.
type Watcher struct {
	roots      []string
	configPath string
	prefix     string
	debounce   time.Duration
	enumerator *enumerator.Enumerator
	logger     *zap.Logger
}

func New(opts Options) *Watcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	roots := make([]string, 0, len(opts.Roots))
	for _, root := range opts.Roots {
		if strings.TrimSpace(root) == "" {
			continue
		}
		roots = append(roots, filepath.Clean(root))
	}
	configPath := ""
	if strings.TrimSpace(opts.ConfigPath) != "" {
		configPath = filepath.Clean(opts.ConfigPath)
	}
	return &Watcher{
		roots:      roots,
		configPath: configPath,
		prefix:     opts.ToolPrefix,
		debounce:   debounce,
		enumerator: enumerator.New(opts.ToolPrefix, logger),
		logger:     logger.Named("watch"),
	}
}

// Run blocks until ctx is done, invoking onChange once per quiet period
// following relevant filesystem events.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context, Trigger)) error {
	if onChange == nil {
		return fmt.Errorf("watch callback is required")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	for _, path := range w.watchPaths() {
		w.add(watcher, path)
	}

	var timer *time.Timer
	pending := make(map[string]struct{})
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Warn("watcher error", zap.Error(err))
			}
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) && w.isToolDir(event.Name) {
				w.add(watcher, event.Name)
			}
			pending[event.Name] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
		case <-timerChan(timer):
			timer = nil
			trigger := Trigger{Paths: drain(pending)}
			w.logger.Debug("filesystem change",
				telemetry.EventField(telemetry.EventWatchTrigger),
				zap.Strings("paths", trigger.Paths),
			)
			onChange(ctx, trigger)
		}
	}
}

func (w *Watcher) watchPaths() []string {
	paths := make([]string, 0, len(w.roots)+1)
	for _, root := range w.roots {
		paths = append(paths, root)
		paths = append(paths, w.enumerator.Candidates(root)...)
	}
	if w.configPath != "" {
		paths = append(paths, filepath.Dir(w.configPath))
	}
	return paths
}

func (w *Watcher) add(watcher *fsnotify.Watcher, path string) {
	if err := watcher.Add(path); err != nil {
		w.logger.Debug("watch add failed", zap.String("path", path), zap.Error(err))
	}
}

// relevant reports whether a change at path can alter a scan result.
func (w *Watcher) relevant(path string) bool {
	if path == "" {
		return false
	}
	cleaned := filepath.Clean(path)
	if w.configPath != "" && cleaned == w.configPath {
		return true
	}
	dir := filepath.Dir(cleaned)
	for _, root := range w.roots {
		if dir == root {
			return strings.HasPrefix(filepath.Base(cleaned), w.prefix)
		}
		if filepath.Dir(dir) == root && strings.HasPrefix(filepath.Base(dir), w.prefix) {
			return true
		}
	}
	return false
}

func (w *Watcher) isToolDir(path string) bool {
	if !strings.HasPrefix(filepath.Base(path), w.prefix) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func drain(pending map[string]struct{}) []string {
	out := make([]string, 0, len(pending))
	for path := range pending {
		out = append(out, path)
		delete(pending, path)
	}
	return out
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
