// Package config loads cddpre's tool configuration. Values merge from
// four layers, lowest to highest precedence: built-in defaults, the
// cddpre.yaml config file, CDDPRE_ environment variables, and command
// line flags.
package config

import (
	"fmt"
	"os"
	"strings"

	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// DefaultFormat is the output format used when nothing else is configured.
const DefaultFormat = "human"

// Config is the tool configuration shared by all commands.
type Config struct {
	// IncludeDirs are the include search directories, in resolution order.
	IncludeDirs []string `koanf:"include_dirs" yaml:"include_dirs"`
	// Defines are macros registered before any scan, name to raw value.
	Defines map[string]string `koanf:"defines" yaml:"defines"`
	// Format selects the report style: human, json or table.
	Format string `koanf:"format" yaml:"format"`
	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose" yaml:"verbose"`
}

// configFileUsed tracks the file the last Load consumed, if any.
var configFileUsed string

// findConfigFile finds the config file to use.
// Priority: explicit path > cddpre.yaml > cddpre.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("cddpre.yaml"); err == nil {
		return "cddpre.yaml"
	}
	if _, err := os.Stat("cddpre.yml"); err == nil {
		return "cddpre.yml"
	}
	return ""
}

// Load merges configuration from defaults, config file, environment and
// flags. flags may be nil; only --format and --verbose flow through it,
// since include directories and defines from the command line merge
// with the config instead of replacing it and the commands handle that
// themselves.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"include_dirs": []string{},
		"defines":      map[string]string{},
		"format":       DefaultFormat,
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), kyaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables: CDDPRE_FORMAT -> format
	if err := k.Load(env.Provider("CDDPRE_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "CDDPRE_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			switch f.Name {
			case "format", "verbose":
				return f.Name, posflag.FlagVal(flags, f)
			}
			return "", nil
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

const configHeader = `# cddpre configuration file
#
# include_dirs: include search directories, tried in order for both
#               quoted and <system> includes.
# defines:      macros registered before every scan (name: raw value).
# format:       default report format (human, json, table).
# verbose:      debug logging.

`

// WriteDefault writes a commented starter configuration to path.
func WriteDefault(path string) error {
	cfg := Config{
		IncludeDirs: []string{"include"},
		Defines:     map[string]string{"PROJECT_VERSION": "1"},
		Format:      DefaultFormat,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0644)
}
