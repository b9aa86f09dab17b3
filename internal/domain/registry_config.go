package domain

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
)

// ConfigFormat identifies how the client configuration document is encoded.
type ConfigFormat string

const (
	ConfigFormatAuto ConfigFormat = "auto"
	ConfigFormatJSON ConfigFormat = "json"
	ConfigFormatTOML ConfigFormat = "toml"
)

// RegistryConfig carries every filesystem root and naming convention the
// classifier depends on. Nothing below the app layer reads paths from the
// environment directly.
type RegistryConfig struct {
	CandidateRoot       string        `json:"candidateRoot"`
	ArchiveRoot         string        `json:"archiveRoot"`
	ConfigDocumentPath  string        `json:"configDocumentPath"`
	ConfigFormat        ConfigFormat  `json:"configFormat"`
	ServersKey          string        `json:"serversKey"`
	ToolPrefix          string        `json:"toolPrefix"`
	ManifestName        string        `json:"manifestName"`
	DefaultEntryPoint   string        `json:"defaultEntryPoint"`
	CapabilitySource    string        `json:"capabilitySource"`
	ScanConcurrency     int           `json:"scanConcurrency"`
	CapabilityCacheSize int           `json:"capabilityCacheSize"`
	Snippet             SnippetConfig `json:"snippet"`
	BuildSteps          [][]string    `json:"buildSteps"`
}

// SnippetConfig shapes the generated client configuration fragment.
type SnippetConfig struct {
	Command    string `json:"command"`
	EntryPoint string `json:"entryPoint"`
}

// WithDefaults fills unset fields. ArchiveRoot defaults to a child of CandidateRoot.
func (c RegistryConfig) WithDefaults() RegistryConfig {
	if c.ArchiveRoot == "" && c.CandidateRoot != "" {
		c.ArchiveRoot = filepath.Join(c.CandidateRoot, DefaultArchiveDirName)
	}
	if c.ConfigFormat == "" {
		c.ConfigFormat = ConfigFormatAuto
	}
	if c.ServersKey == "" {
		c.ServersKey = DefaultServersKey
	}
	if c.ToolPrefix == "" {
		c.ToolPrefix = DefaultToolPrefix
	}
	if c.ManifestName == "" {
		c.ManifestName = DefaultManifestName
	}
	if c.DefaultEntryPoint == "" {
		c.DefaultEntryPoint = DefaultEntryPoint
	}
	if c.CapabilitySource == "" {
		c.CapabilitySource = DefaultCapabilitySource
	}
	if c.ScanConcurrency <= 0 {
		c.ScanConcurrency = DefaultScanConcurrency
	}
	if c.CapabilityCacheSize <= 0 {
		c.CapabilityCacheSize = DefaultCapabilityCacheSize
	}
	if c.Snippet.Command == "" {
		c.Snippet.Command = DefaultSnippetCommand
	}
	if c.Snippet.EntryPoint == "" {
		c.Snippet.EntryPoint = DefaultSnippetEntryPoint
	}
	if len(c.BuildSteps) == 0 {
		c.BuildSteps = DefaultBuildSteps()
	}
	return c
}

// Validate checks the fields that have no usable default.
func (c RegistryConfig) Validate() error {
	var errs []string
	if strings.TrimSpace(c.CandidateRoot) == "" {
		errs = append(errs, "candidateRoot is required")
	}
	if strings.TrimSpace(c.ConfigDocumentPath) == "" {
		errs = append(errs, "configDocumentPath is required")
	}
	switch c.ConfigFormat {
	case "", ConfigFormatAuto, ConfigFormatJSON, ConfigFormatTOML:
	default:
		errs = append(errs, "configFormat must be auto, json or toml")
	}
	for i, step := range c.BuildSteps {
		if len(step) == 0 || strings.TrimSpace(step[0]) == "" {
			errs = append(errs, "build step "+strconv.Itoa(i)+" has no command")
		}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
