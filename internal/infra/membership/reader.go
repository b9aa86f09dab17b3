package membership

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"mcpreg/internal/domain"
)

// codexServersKey is where Codex-style TOML documents keep server tables.
const codexServersKey = "mcp_servers"

// Reader extracts registered server names from a client configuration document.
type Reader struct {
	path       string
	format     domain.ConfigFormat
	serversKey string
	logger     *zap.Logger
}

// Options configures a Reader.
type Options struct {
	Path       string
	Format     domain.ConfigFormat
	ServersKey string
	Logger     *zap.Logger
}

func NewReader(opts Options) *Reader {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	format := opts.Format
	if format == "" {
		format = domain.ConfigFormatAuto
	}
	return &Reader{
		path:       opts.Path,
		format:     format,
		serversKey: opts.ServersKey,
		logger:     logger.Named("membership"),
	}
}

// Path returns the configuration document location.
func (r *Reader) Path() string {
	return r.path
}

// Read returns the registered names. A missing or malformed document yields an
// empty set; an unconfigured environment is a valid scan condition.
func (r *Reader) Read(ctx context.Context) domain.Membership {
	if ctx != nil && ctx.Err() != nil {
		return domain.NewMembership()
	}
	members, err := r.Load()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			r.logger.Debug("config document not found", zap.String("path", r.path))
		} else {
			r.logger.Warn("config document unreadable", zap.String("path", r.path), zap.Error(err))
		}
		return domain.NewMembership()
	}
	return members
}

// Load reads the document strictly, returning read and decode failures.
func (r *Reader) Load() (domain.Membership, error) {
	names, err := r.load()
	if err != nil {
		return nil, err
	}
	return domain.NewMembership(names...), nil
}

func (r *Reader) load() ([]string, error) {
	if strings.TrimSpace(r.path) == "" {
		return nil, os.ErrNotExist
	}
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	format := resolveFormat(r.format, r.path)
	payload, err := decode(format, data)
	if err != nil {
		return nil, err
	}
	table := lookupTable(payload, splitKey(r.keyFor(format))...)
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	return names, nil
}

func (r *Reader) keyFor(format domain.ConfigFormat) string {
	key := strings.TrimSpace(r.serversKey)
	if format == domain.ConfigFormatTOML && (key == "" || key == domain.DefaultServersKey) {
		return codexServersKey
	}
	if key == "" {
		return domain.DefaultServersKey
	}
	return key
}

func resolveFormat(format domain.ConfigFormat, path string) domain.ConfigFormat {
	if format != domain.ConfigFormatAuto && format != "" {
		return format
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return domain.ConfigFormatTOML
	}
	return domain.ConfigFormatJSON
}

func decode(format domain.ConfigFormat, data []byte) (map[string]any, error) {
	var payload map[string]any
	switch format {
	case domain.ConfigFormatTOML:
		if err := toml.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	}
	if payload == nil {
		return nil, errors.New("config document is not an object")
	}
	return payload, nil
}

func splitKey(key string) []string {
	parts := strings.Split(key, ".")
	out := parts[:0]
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func lookupTable(payload map[string]any, path ...string) map[string]any {
	if len(path) == 0 {
		return nil
	}
	current := payload
	for i, key := range path {
		value, ok := current[key]
		if !ok {
			return nil
		}
		next, ok := value.(map[string]any)
		if !ok {
			return nil
		}
		if i == len(path)-1 {
			return next
		}
		current = next
	}
	return nil
}

var _ domain.MembershipReader = (*Reader)(nil)
