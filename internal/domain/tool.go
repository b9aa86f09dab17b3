package domain

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// ToolStatus is the lifecycle verdict for a tool directory.
type ToolStatus string

const (
	// StatusActive means built and registered in the client config.
	StatusActive ToolStatus = "active"
	// StatusBroken means the manifest is unusable, or the tool is registered but not built.
	StatusBroken ToolStatus = "broken"
	// StatusUnconfigured means the tool is not registered in the client config.
	StatusUnconfigured ToolStatus = "unconfigured"
	// StatusArchived means the directory lives under the archive root.
	StatusArchived ToolStatus = "archived"
)

// StatusFilterAll selects every status when listing.
const StatusFilterAll = "all"

// AllStatuses lists the statuses in presentation order.
var AllStatuses = []ToolStatus{StatusActive, StatusBroken, StatusUnconfigured, StatusArchived}

// ParseStatusFilter validates a list filter. An empty filter means all.
func ParseStatusFilter(raw string) (ToolStatus, bool, error) {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" || value == StatusFilterAll {
		return "", true, nil
	}
	for _, status := range AllStatuses {
		if string(status) == value {
			return status, false, nil
		}
	}
	return "", false, fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

// ToolRecord is the classification result for one tool directory.
type ToolRecord struct {
	Name         string     `json:"name" yaml:"name"`
	ShortName    string     `json:"shortName" yaml:"shortName"`
	Path         string     `json:"path" yaml:"path"`
	Configured   bool       `json:"configured" yaml:"configured"`
	Status       ToolStatus `json:"status" yaml:"status"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty"`
	Version      string     `json:"version,omitempty" yaml:"version,omitempty"`
	Tools        []string   `json:"tools,omitempty" yaml:"tools,omitempty"`
	LastModified time.Time  `json:"lastModified" yaml:"lastModified"`
	Error        string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// NotBuiltDiagnostic explains a configured tool whose entry point is missing.
func NotBuiltDiagnostic(entryPoint string) string {
	return fmt.Sprintf(diagnosticNotBuiltFormat, entryPoint)
}

// ShortName strips the tool prefix from a directory name.
func ShortName(name, prefix string) string {
	if prefix == "" {
		return name
	}
	return strings.TrimPrefix(name, prefix)
}

// Membership is the set of short names registered in the client config.
type Membership map[string]struct{}

// NewMembership builds a membership set from names.
func NewMembership(names ...string) Membership {
	out := make(Membership, len(names))
	for _, name := range names {
		out[name] = struct{}{}
	}
	return out
}

// Has reports whether the short name is registered.
func (m Membership) Has(shortName string) bool {
	if m == nil {
		return false
	}
	_, ok := m[shortName]
	return ok
}

// Len returns the number of registered names.
func (m Membership) Len() int {
	return len(m)
}

// MembershipReader loads the registered short names from the client config.
// A missing or malformed document yields an empty set.
type MembershipReader interface {
	Read(ctx context.Context) Membership
}
