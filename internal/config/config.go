// Package config loads the optional jp2gml configuration file.
//
// The file supplies defaults for command-line flags. YAML files are parsed
// with gopkg.in/yaml.v3. JSON files may contain comments and trailing
// commas; they are cleaned with github.com/tidwall/jsonc before being
// parsed by encoding/json.
//
// Lookup order:
//  1. the path given with --config
//  2. the path in $JP2GML_CONFIG
//  3. .jp2gml.yaml, .jp2gml.yml or .jp2gml.json in the working directory
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/jp2gml/internal/model"
	"github.com/shinji-kodama/jp2gml/internal/refsys"
)

// EnvVar names the environment variable holding a config file path.
const EnvVar = "JP2GML_CONFIG"

// candidateNames are searched in order by Find.
var candidateNames = []string{".jp2gml.yaml", ".jp2gml.yml", ".jp2gml.json"}

// Config holds every setting a config file may provide.
type Config struct {
	// Format is the default output format (xml, json, tfw, worldfile, info).
	Format string `json:"format,omitempty" yaml:"format,omitempty"`

	// Formatting is pretty or raw.
	Formatting string `json:"formatting,omitempty" yaml:"formatting,omitempty"`

	// CacheDir holds downloaded reference-system definitions.
	CacheDir string `json:"cacheDir,omitempty" yaml:"cacheDir,omitempty"`

	// BaseURL is the registry definitions are downloaded from.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`

	// UserAgent is sent with every download.
	UserAgent string `json:"userAgent,omitempty" yaml:"userAgent,omitempty"`

	// Timeout bounds one download, as a Go duration string such as "10s".
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// ResolveCRS adds reference-system details to the info output.
	ResolveCRS bool `json:"resolveCRS,omitempty" yaml:"resolveCRS,omitempty"`

	// Verbose enables progress output on stderr.
	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the settings used when no file overrides them.
func Defaults() *Config {
	return &Config{
		Formatting: string(model.FormattingPretty),
		CacheDir:   DefaultCacheDir(),
		BaseURL:    refsys.DefaultBaseURL,
		UserAgent:  refsys.DefaultUserAgent,
		Timeout:    refsys.DefaultTimeout.String(),
	}
}

// DefaultCacheDir returns the per-user cache directory for definitions,
// or the working directory when the platform has none.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "jp2gml")
}

// Load reads the file at path on top of Defaults. The extension selects
// the parser: .yaml and .yml for YAML, .json and .jsonc for JSON with
// comments.
//
// A missing file is reported as a CLIError with ExitUsage, since the path
// came from the user.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, model.WrapCLIError(
				model.ExitUsage,
				fmt.Sprintf("config file not found: %s", path),
				err,
			)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	default:
		return nil, model.NewCLIError(
			model.ExitUsage,
			fmt.Sprintf("unsupported config file type %q (use .yaml, .yml, .json or .jsonc)", filepath.Ext(path)),
		)
	}
	return cfg, nil
}

// Find returns the first config file present in dir.
func Find(dir string) (string, bool) {
	for _, name := range candidateNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// Locate applies the lookup order. It returns an empty path when no file
// is configured and none exists in dir.
func Locate(explicit, dir string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvVar); env != "" {
		return env
	}
	path, _ := Find(dir)
	return path
}

// TimeoutDuration parses Timeout, falling back to the default when empty.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return refsys.DefaultTimeout, nil
	}
	return time.ParseDuration(c.Timeout)
}
