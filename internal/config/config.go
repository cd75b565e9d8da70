package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// Config is the top-level peep configuration.
type Config struct {
	MaxScanDepth         int          `mapstructure:"max_scan_depth" yaml:"max_scan_depth"`
	ExcludeDirs          []string     `mapstructure:"exclude_dirs" yaml:"exclude_dirs"`
	CustomTechFiles      []CustomTech `mapstructure:"custom_tech_files" yaml:"custom_tech_files"`
	MaxProjectNameLength int          `mapstructure:"max_project_name_length" yaml:"max_project_name_length"`
	GitTimeout           float64      `mapstructure:"git_timeout" yaml:"git_timeout"`
	GitCacheSize         int          `mapstructure:"git_cache_size" yaml:"git_cache_size"`
	Workers              int          `mapstructure:"workers" yaml:"workers"`
	Output               Output       `mapstructure:"output" yaml:"output"`
}

// CustomTech declares that the presence of File implies Labels.
//
// It is a list entry rather than a map key because configuration keys are
// case-insensitive while file names are matched exactly.
type CustomTech struct {
	File   string   `mapstructure:"file" yaml:"file"`
	Labels []string `mapstructure:"labels" yaml:"labels"`
}

// Output defines output preferences.
type Output struct {
	Color  bool   `mapstructure:"color" yaml:"color"`
	Format string `mapstructure:"format" yaml:"format"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies PEEP_* environment overrides and returns a validated Config with
// all defaults applied. A .env file in the working directory is loaded into
// the environment first.
func Load(cfgFile string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("max_scan_depth", DefaultMaxScanDepth)
	v.SetDefault("exclude_dirs", DefaultExcludeDirs)
	v.SetDefault("max_project_name_length", DefaultMaxProjectNameLength)
	v.SetDefault("git_timeout", DefaultGitTimeout)
	v.SetDefault("git_cache_size", DefaultGitCacheSize)
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.format", DefaultOutput.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(ConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var err error
	if c.MaxScanDepth < 0 {
		err = multierr.Append(err, fmt.Errorf("max_scan_depth must be >= 0, got %d", c.MaxScanDepth))
	}
	if c.MaxProjectNameLength <= 0 {
		err = multierr.Append(err, fmt.Errorf("max_project_name_length must be > 0, got %d", c.MaxProjectNameLength))
	}
	if c.GitTimeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("git_timeout must be > 0, got %v", c.GitTimeout))
	}
	if c.GitCacheSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("git_cache_size must be > 0, got %d", c.GitCacheSize))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf("workers must be >= 0, got %d", c.Workers))
	}
	if !slices.Contains(OutputFormats, c.Output.Format) {
		err = multierr.Append(err, fmt.Errorf("output.format must be one of %s, got %q",
			strings.Join(OutputFormats, ", "), c.Output.Format))
	}
	for i, ct := range c.CustomTechFiles {
		if ct.File == "" {
			err = multierr.Append(err, fmt.Errorf("custom_tech_files[%d]: file is required", i))
		}
		if len(ct.Labels) == 0 {
			err = multierr.Append(err, fmt.Errorf("custom_tech_files[%d]: at least one label is required", i))
		}
	}
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// CustomTechMap returns custom technology files keyed by file name. Labels
// for a file listed more than once are concatenated.
func (c *Config) CustomTechMap() map[string][]string {
	m := make(map[string][]string, len(c.CustomTechFiles))
	for _, ct := range c.CustomTechFiles {
		m[ct.File] = append(m[ct.File], ct.Labels...)
	}
	return m
}

// GitTimeoutDuration converts GitTimeout seconds to a time.Duration.
func (c *Config) GitTimeoutDuration() time.Duration {
	return time.Duration(c.GitTimeout * float64(time.Second))
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), DefaultConfigFile)
}
