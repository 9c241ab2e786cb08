/*
Package config manages the TOML config for docsearch.
*/
package config

import (
	"os"
	"path/filepath"

	"github.com/bastiangx/docsearch/internal/utils"
	"github.com/bastiangx/docsearch/pkg/search"
	"github.com/charmbracelet/log"
)

const (
	AppName  = "docsearch"
	FileName = "config.toml"
)

// Config holds the entire config structure
type Config struct {
	Search  SearchConfig  `toml:"search"`
	Sources SourcesConfig `toml:"sources"`
	CLI     CliConfig     `toml:"cli"`
}

// SearchConfig has matcher and ranking options.
type SearchConfig struct {
	MaxEdits    int    `toml:"max_edits"`
	MinOffset   int    `toml:"min_offset"`
	Lookahead   int    `toml:"lookahead"`
	Bold        bool   `toml:"bold"`
	IgnoreCase  bool   `toml:"ignore_case"`
	Rank        string `toml:"rank"`
	Workers     int    `toml:"workers"`
	IndexSearch bool   `toml:"index_search"`
	ShowQuery   bool   `toml:"show_query"`
}

// SourcesConfig lists where recent documents come from.
type SourcesConfig struct {
	Lists   []string `toml:"lists"`
	Exclude []string `toml:"exclude"`
	Watch   bool     `toml:"watch"`
}

// CliConfig holds cli interface options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// GetConfigDir returns the config directory with fallback priority:
// 1. ~/.config/docsearch
// 2. ~/Library/Application Support/docsearch (macOS)
// 3. Current executable dir
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Errorf("Failed to get home directory: %v", err)
		return utils.GetExecutableDir()
	}
	primaryPath := filepath.Join(homeDir, ".config", AppName)
	if result := utils.CheckDirStatus(primaryPath); result.Writable {
		return primaryPath, nil
	}
	macOSPath := filepath.Join(homeDir, "Library", "Application Support", AppName)
	if result := utils.CheckDirStatus(macOSPath); result.Writable {
		return macOSPath, nil
	}
	execDir, err := utils.GetExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return execDir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path: [UserConfigDir]/docsearch/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}
	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}

	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	opts := search.DefaultOptions()
	return &Config{
		Search: SearchConfig{
			MaxEdits:    opts.MaxEdits,
			MinOffset:   opts.MinOffset,
			Lookahead:   opts.Lookahead,
			Rank:        string(opts.Rank),
			Workers:     opts.Workers,
			IndexSearch: false,
			ShowQuery:   false,
		},
		Sources: SourcesConfig{
			Lists:   []string{},
			Exclude: []string{"~$*"},
			Watch:   true,
		},
		CLI: CliConfig{
			DefaultLimit: 10,
		},
	}
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	config.normalize()
	return config, nil
}

// tryPartialParse keeps every well-typed key of a TOML file that failed strict decoding
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if searchSection, ok := utils.ExtractSection(tempConfig, "search"); ok {
		extractSearchConfig(searchSection, &config.Search)
	}
	if sourcesSection, ok := utils.ExtractSection(tempConfig, "sources"); ok {
		extractSourcesConfig(sourcesSection, &config.Sources)
	}
	if cliSection, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		extractCliConfig(cliSection, &config.CLI)
	}
	config.normalize()
	return config, nil
}

// extractSearchConfig extracts search configuration from a map
func extractSearchConfig(data map[string]any, s *SearchConfig) {
	if val, ok := utils.ExtractInt64(data, "max_edits"); ok {
		s.MaxEdits = val
	}
	if val, ok := utils.ExtractInt64(data, "min_offset"); ok {
		s.MinOffset = val
	}
	if val, ok := utils.ExtractInt64(data, "lookahead"); ok {
		s.Lookahead = val
	}
	if val, ok := utils.ExtractBool(data, "bold"); ok {
		s.Bold = val
	}
	if val, ok := utils.ExtractBool(data, "ignore_case"); ok {
		s.IgnoreCase = val
	}
	if val, ok := utils.ExtractString(data, "rank"); ok {
		s.Rank = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		s.Workers = val
	}
	if val, ok := utils.ExtractBool(data, "index_search"); ok {
		s.IndexSearch = val
	}
	if val, ok := utils.ExtractBool(data, "show_query"); ok {
		s.ShowQuery = val
	}
}

// extractSourcesConfig extracts candidate source configuration from a map
func extractSourcesConfig(data map[string]any, src *SourcesConfig) {
	if val, ok := utils.ExtractStrings(data, "lists"); ok {
		src.Lists = val
	}
	if val, ok := utils.ExtractStrings(data, "exclude"); ok {
		src.Exclude = val
	}
	if val, ok := utils.ExtractBool(data, "watch"); ok {
		src.Watch = val
	}
}

// extractCliConfig extracts CLI config from a map
func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt64(data, "default_limit"); ok {
		cli.DefaultLimit = val
	}
}

// normalize replaces out of range values with defaults
func (c *Config) normalize() {
	defaults := DefaultConfig()
	if c.Search.MaxEdits < 0 {
		log.Warnf("search.max_edits must not be negative, using %d", defaults.Search.MaxEdits)
		c.Search.MaxEdits = defaults.Search.MaxEdits
	}
	if c.Search.MaxEdits > search.MaxBudget {
		log.Warnf("search.max_edits %d is above %d, using %d", c.Search.MaxEdits, search.MaxBudget, search.MaxBudget)
		c.Search.MaxEdits = search.MaxBudget
	}
	if c.Search.Lookahead < 0 {
		c.Search.Lookahead = defaults.Search.Lookahead
	}
	if c.Search.Workers < 1 {
		c.Search.Workers = 1
	}
	switch search.RankMode(c.Search.Rank) {
	case search.RankOffset, search.RankSimilarity:
	default:
		log.Warnf("Unknown search.rank %q, using %q", c.Search.Rank, defaults.Search.Rank)
		c.Search.Rank = defaults.Search.Rank
	}
	if c.CLI.DefaultLimit < 1 {
		c.CLI.DefaultLimit = defaults.CLI.DefaultLimit
	}
}

// SearchOptions maps the config onto engine options.
func (c *Config) SearchOptions() search.Options {
	return search.Options{
		MaxEdits:   c.Search.MaxEdits,
		MinOffset:  c.Search.MinOffset,
		Lookahead:  c.Search.Lookahead,
		Bold:       c.Search.Bold,
		IgnoreCase: c.Search.IgnoreCase,
		Rank:       search.RankMode(c.Search.Rank),
		Workers:    c.Search.Workers,
	}
}

// ListPaths resolves the configured lists; relative entries are taken
// relative to the directory of the config file.
func (c *Config) ListPaths(configPath string) []string {
	baseDir := ""
	if configPath != "" {
		baseDir = filepath.Dir(configPath)
	}
	paths := make([]string, 0, len(c.Sources.Lists))
	for _, list := range c.Sources.Lists {
		paths = append(paths, utils.ResolvePath(list, baseDir))
	}
	return paths
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}
