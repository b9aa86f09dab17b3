package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"mcpreg/internal/domain"
)

const (
	envPrefix           = "MCPREG"
	settingsDirName     = "mcpreg"
	settingsFileName    = "registry.yaml"
	buildLogFileName    = "builds.db"
	claudeConfigDirName = "Claude"
	defaultToolsDirName = "Code"
)

// Settings is the resolved configuration of one process.
type Settings struct {
	Registry                   domain.RegistryConfig
	BuildLogPath               string
	ObservabilityListenAddress string
	RescanSchedule             string
	SettingsFile               string
}

// SettingsOptions controls where settings are read from.
type SettingsOptions struct {
	// File is an explicit settings file; a missing explicit file is an error.
	File string
	// DotEnv loads .env from the working directory before reading the environment.
	DotEnv bool
	// Flags maps settings keys to command-line flags that override every other source.
	Flags map[string]*pflag.Flag
}

type rawSettings struct {
	CandidateRoot       string           `mapstructure:"candidateRoot"`
	ArchiveRoot         string           `mapstructure:"archiveRoot"`
	ConfigDocumentPath  string           `mapstructure:"configDocumentPath"`
	ConfigFormat        string           `mapstructure:"configFormat"`
	ServersKey          string           `mapstructure:"serversKey"`
	ToolPrefix          string           `mapstructure:"toolPrefix"`
	ManifestName        string           `mapstructure:"manifestName"`
	DefaultEntryPoint   string           `mapstructure:"defaultEntryPoint"`
	CapabilitySource    string           `mapstructure:"capabilitySource"`
	ScanConcurrency     int              `mapstructure:"scanConcurrency"`
	CapabilityCacheSize int              `mapstructure:"capabilityCacheSize"`
	Snippet             rawSnippet       `mapstructure:"snippet"`
	Build               rawBuild         `mapstructure:"build"`
	BuildLog            rawBuildLog      `mapstructure:"buildLog"`
	Observability       rawObservability `mapstructure:"observability"`
	RescanSchedule      string           `mapstructure:"rescanSchedule"`
}

type rawSnippet struct {
	Command    string `mapstructure:"command"`
	EntryPoint string `mapstructure:"entryPoint"`
}

type rawBuild struct {
	Steps [][]string `mapstructure:"steps"`
}

type rawBuildLog struct {
	Path string `mapstructure:"path"`
}

type rawObservability struct {
	ListenAddress string `mapstructure:"listenAddress"`
}

func newSettingsViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setSettingsDefaults(v)
	return v
}

func setSettingsDefaults(v *viper.Viper) {
	v.SetDefault("candidateRoot", defaultCandidateRoot())
	v.SetDefault("archiveRoot", "")
	v.SetDefault("configDocumentPath", DefaultClaudeConfigPath())
	v.SetDefault("configFormat", string(domain.ConfigFormatAuto))
	v.SetDefault("serversKey", domain.DefaultServersKey)
	v.SetDefault("toolPrefix", domain.DefaultToolPrefix)
	v.SetDefault("manifestName", domain.DefaultManifestName)
	v.SetDefault("defaultEntryPoint", domain.DefaultEntryPoint)
	v.SetDefault("capabilitySource", domain.DefaultCapabilitySource)
	v.SetDefault("scanConcurrency", domain.DefaultScanConcurrency)
	v.SetDefault("capabilityCacheSize", domain.DefaultCapabilityCacheSize)
	v.SetDefault("snippet.command", domain.DefaultSnippetCommand)
	v.SetDefault("snippet.entryPoint", domain.DefaultSnippetEntryPoint)
	v.SetDefault("build.steps", domain.DefaultBuildSteps())
	v.SetDefault("buildLog.path", defaultBuildLogPath())
	v.SetDefault("observability.listenAddress", domain.DefaultObservabilityListenAddress)
	v.SetDefault("rescanSchedule", "")
}

// LoadSettings resolves settings from defaults, the settings file, the
// MCPREG_ environment and flags, in increasing precedence.
func LoadSettings(opts SettingsOptions) (Settings, error) {
	if opts.DotEnv {
		if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("load .env: %w", err)
		}
	}

	v := newSettingsViper()
	for key, flag := range opts.Flags {
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return Settings{}, fmt.Errorf("bind flag %s: %w", flag.Name, err)
		}
	}

	file, explicit := resolveSettingsFile(opts.File)
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			if explicit || !isNotExist(err) {
				return Settings{}, fmt.Errorf("read settings %s: %w", file, err)
			}
			file = ""
		}
	}

	var raw rawSettings
	if err := v.Unmarshal(&raw); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	settings := Settings{
		Registry: domain.RegistryConfig{
			CandidateRoot:       expandHome(raw.CandidateRoot),
			ArchiveRoot:         expandHome(raw.ArchiveRoot),
			ConfigDocumentPath:  expandHome(raw.ConfigDocumentPath),
			ConfigFormat:        domain.ConfigFormat(strings.ToLower(strings.TrimSpace(raw.ConfigFormat))),
			ServersKey:          raw.ServersKey,
			ToolPrefix:          raw.ToolPrefix,
			ManifestName:        raw.ManifestName,
			DefaultEntryPoint:   raw.DefaultEntryPoint,
			CapabilitySource:    raw.CapabilitySource,
			ScanConcurrency:     raw.ScanConcurrency,
			CapabilityCacheSize: raw.CapabilityCacheSize,
			Snippet: domain.SnippetConfig{
				Command:    raw.Snippet.Command,
				EntryPoint: raw.Snippet.EntryPoint,
			},
			BuildSteps: raw.Build.Steps,
		},
		BuildLogPath:               expandHome(raw.BuildLog.Path),
		ObservabilityListenAddress: strings.TrimSpace(raw.Observability.ListenAddress),
		RescanSchedule:             strings.TrimSpace(raw.RescanSchedule),
		SettingsFile:               file,
	}
	settings.Registry = settings.Registry.WithDefaults()
	if err := settings.Registry.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

// DefaultClaudeConfigPath is the desktop client's config document under the
// user config dir ($HOME/Library/Application Support on macOS, $XDG_CONFIG_HOME elsewhere).
func DefaultClaudeConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, claudeConfigDirName, domain.DefaultClaudeConfigFileName)
}

// DefaultSettingsPath is where the settings file is looked up when none is given.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, settingsDirName, settingsFileName)
}

func defaultCandidateRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultToolsDirName)
}

func defaultBuildLogPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, settingsDirName, buildLogFileName)
}

func resolveSettingsFile(file string) (string, bool) {
	if trimmed := strings.TrimSpace(file); trimmed != "" {
		return expandHome(trimmed), true
	}
	if env := strings.TrimSpace(os.Getenv(envPrefix + "_CONFIG")); env != "" {
		return expandHome(env), true
	}
	return DefaultSettingsPath(), false
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}
