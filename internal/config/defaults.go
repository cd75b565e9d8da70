// Package config provides configuration loading and defaults for peep.
package config

// DefaultConfigDir is the default location for peep configuration.
const DefaultConfigDir = "~/.config/peep"

// DefaultConfigFile is the filename for the YAML config.
const DefaultConfigFile = "config.yaml"

// EnvPrefix is prepended to configuration keys looked up in the environment,
// e.g. PEEP_MAX_SCAN_DEPTH.
const EnvPrefix = "PEEP"

// DefaultMaxScanDepth is how many directory levels below the root are
// searched for projects.
const DefaultMaxScanDepth = 5

// DefaultExcludeDirs are pruned from every walk.
var DefaultExcludeDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "__pycache__", ".venv", "venv",
	".idea", ".vscode",
	"dist", "build", "target",
	".cache", ".pytest_cache", ".mypy_cache", ".tox",
}

// DefaultMaxProjectNameLength caps display names, in characters.
const DefaultMaxProjectNameLength = 40

// DefaultGitTimeout is the per-lookup git timeout in seconds.
const DefaultGitTimeout = 2.0

// DefaultGitCacheSize bounds the in-process branch cache.
const DefaultGitCacheSize = 4096

// DefaultWorkers of zero means one worker per available CPU.
const DefaultWorkers = 0

// DefaultOutput holds the default output preferences.
var DefaultOutput = Output{
	Color:  true,
	Format: "table",
}

// OutputFormats lists the accepted values of output.format.
var OutputFormats = []string{"table", "json", "yaml"}
