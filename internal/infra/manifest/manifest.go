package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
)

// ErrNotObject is returned when the manifest parses but is not a JSON object.
var ErrNotObject = errors.New("manifest is not a JSON object")

// Manifest holds the package.json fields the registry reads.
type Manifest struct {
	Description string
	Version     string
	Main        string
}

// Read loads and parses the manifest at path.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes manifest bytes. Fields with a non-string type are ignored.
func Parse(data []byte) (Manifest, error) {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if payload == nil {
		return Manifest{}, ErrNotObject
	}
	return Manifest{
		Description: stringField(payload, "description"),
		Version:     stringField(payload, "version"),
		Main:        stringField(payload, "main"),
	}, nil
}

// EntryPoint returns the declared main entry, or fallback when unset.
func (m Manifest) EntryPoint(fallback string) string {
	if m.Main == "" {
		return fallback
	}
	return m.Main
}

// ResolveEntryPoint joins the entry point onto the tool root.
func (m Manifest) ResolveEntryPoint(root, fallback string) string {
	return filepath.Join(root, m.EntryPoint(fallback))
}

// CanonicalVersion returns the semver canonical form of Version, or "" when
// the version is not semver.
func (m Manifest) CanonicalVersion() string {
	return CanonicalVersion(m.Version)
}

// CanonicalVersion normalises an npm-style version ("1.2.0") to "v1.2.0".
func CanonicalVersion(version string) string {
	v := strings.TrimSpace(version)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return semver.Canonical(v)
}

func stringField(payload map[string]any, key string) string {
	value, ok := payload[key].(string)
	if !ok {
		return ""
	}
	return value
}
