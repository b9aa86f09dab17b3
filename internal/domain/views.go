package domain

import (
	"context"
	"sort"
)

// RegistryService is the presentation surface over registry scans.
type RegistryService interface {
	List(ctx context.Context, filter string) ([]ListEntry, error)
	Info(ctx context.Context, name string) (ToolDetail, error)
	ConfigSnippet(ctx context.Context, name string) (string, error)
	Build(ctx context.Context, name string) (string, error)
	Summary(ctx context.Context) (Summary, error)
}

// ListEntry is the condensed record shown by list views.
type ListEntry struct {
	Name        string     `json:"name" yaml:"name"`
	Status      ToolStatus `json:"status" yaml:"status"`
	Configured  bool       `json:"configured" yaml:"configured"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string     `json:"version,omitempty" yaml:"version,omitempty"`
	Tools       int        `json:"tools" yaml:"tools"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewListEntry condenses a record for list views.
func NewListEntry(record ToolRecord) ListEntry {
	return ListEntry{
		Name:        record.Name,
		Status:      record.Status,
		Configured:  record.Configured,
		Description: record.Description,
		Version:     record.Version,
		Tools:       len(record.Tools),
		Error:       record.Error,
	}
}

// ToolDetail is the full record plus derived fields.
type ToolDetail struct {
	ToolRecord       `yaml:",inline"`
	CanonicalVersion string       `json:"canonicalVersion,omitempty" yaml:"canonicalVersion,omitempty"`
	LastBuild        *BuildRecord `json:"lastBuild,omitempty" yaml:"lastBuild,omitempty"`
}

type SummaryCounts struct {
	Total        int `json:"total" yaml:"total"`
	Active       int `json:"active" yaml:"active"`
	Broken       int `json:"broken" yaml:"broken"`
	Unconfigured int `json:"unconfigured" yaml:"unconfigured"`
	Archived     int `json:"archived" yaml:"archived"`
	Configured   int `json:"configured" yaml:"configured"`
}

type BrokenTool struct {
	Name  string `json:"name" yaml:"name"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

type SummaryDetails struct {
	Active       []string     `json:"active" yaml:"active"`
	Broken       []BrokenTool `json:"broken" yaml:"broken"`
	Unconfigured []string     `json:"unconfigured" yaml:"unconfigured"`
	Archived     []string     `json:"archived" yaml:"archived"`
}

// Summary holds aggregate counts and per-status name lists.
type Summary struct {
	Summary SummaryCounts  `json:"summary" yaml:"summary"`
	Details SummaryDetails `json:"details" yaml:"details"`
}

// Summarize counts records per status. Detail lists keep scan order.
func Summarize(records []ToolRecord) Summary {
	out := Summary{
		Details: SummaryDetails{
			Active:       []string{},
			Broken:       []BrokenTool{},
			Unconfigured: []string{},
			Archived:     []string{},
		},
	}
	out.Summary.Total = len(records)
	for _, record := range records {
		if record.Configured {
			out.Summary.Configured++
		}
		switch record.Status {
		case StatusActive:
			out.Summary.Active++
			out.Details.Active = append(out.Details.Active, record.Name)
		case StatusBroken:
			out.Summary.Broken++
			out.Details.Broken = append(out.Details.Broken, BrokenTool{Name: record.Name, Error: record.Error})
		case StatusUnconfigured:
			out.Summary.Unconfigured++
			out.Details.Unconfigured = append(out.Details.Unconfigured, record.Name)
		case StatusArchived:
			out.Summary.Archived++
			out.Details.Archived = append(out.Details.Archived, record.Name)
		}
	}
	return out
}

// StatusChange describes a tool whose status differs between two scans.
// An empty From means the tool appeared; an empty To means it disappeared.
type StatusChange struct {
	Path string     `json:"path" yaml:"path"`
	Name string     `json:"name" yaml:"name"`
	From ToolStatus `json:"from,omitempty" yaml:"from,omitempty"`
	To   ToolStatus `json:"to,omitempty" yaml:"to,omitempty"`
}

// DiffScans reports status transitions keyed by tool path, sorted by path.
func DiffScans(prev, next []ToolRecord) []StatusChange {
	before := make(map[string]ToolRecord, len(prev))
	for _, record := range prev {
		before[record.Path] = record
	}
	var changes []StatusChange
	seen := make(map[string]struct{}, len(next))
	for _, record := range next {
		seen[record.Path] = struct{}{}
		old, ok := before[record.Path]
		switch {
		case !ok:
			changes = append(changes, StatusChange{Path: record.Path, Name: record.Name, To: record.Status})
		case old.Status != record.Status:
			changes = append(changes, StatusChange{Path: record.Path, Name: record.Name, From: old.Status, To: record.Status})
		}
	}
	for _, record := range prev {
		if _, ok := seen[record.Path]; !ok {
			changes = append(changes, StatusChange{Path: record.Path, Name: record.Name, From: record.Status})
		}
	}
	sort.Slice(changes, func(i, j int) bool {
		return changes[i].Path < changes[j].Path
	})
	return changes
}
