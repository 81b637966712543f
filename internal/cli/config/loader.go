package config

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/querydeck/pkg/adapter"
	"github.com/spf13/pflag"
)

// loggerKey is used to store the logger in a command context.
type loggerKey struct{}

// EnvPrefix prefixes every environment variable the loader reads.
// A double underscore separates nested keys: QUERYDECK_TARGET__HOST.
const EnvPrefix = "QUERYDECK_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

var configFileNames = []string{"querydeck.yaml", "querydeck.yml"}

// pathFlags are flags holding filesystem paths, keyed by config key.
var pathFlags = map[string]string{
	"catalog":    "catalog",
	"output_dir": "output-dir",
	"state_path": "state",
}

// skipFlags are flags consumed by the loader itself rather than stored as keys.
var skipFlags = map[string]bool{"config": true, "target": true}

// flagKeys maps flag names whose config key is not the snake_case of the flag.
var flagKeys = map[string]string{
	"state": "state_path",
	"env":   "environment",
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

func configExistsIn(dir string) string {
	for _, name := range configFileNames {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// findConfigUpward searches upward from startDir for a querydeck config file.
// Returns empty string if not found within maxUpwardSearchLevels.
func findConfigUpward(startDir string) string {
	dir := startDir
	for i := 0; i < maxUpwardSearchLevels; i++ {
		if found := configExistsIn(dir); found != "" {
			return found
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || filepath.IsAbs(path) || path == ":memory:" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

func defaults() map[string]any {
	return map[string]any{
		"catalog":       DefaultCatalog,
		"output_dir":    DefaultOutputDir,
		"insights_file": DefaultInsightsFile,
		"charts_dir":    DefaultChartsDir,
		"chart_format":  DefaultChartFormat,
		"export_format": DefaultExportFormat,
		"compress":      false,
		"state_path":    DefaultStateFile,
		"history":       true,
		"environment":   DefaultEnv,
		"verbose":       false,
		"log_level":     DefaultLogLevel,
		"log_format":    DefaultLogFormat,
		"output":        DefaultOutput,
		"default_limit": DefaultLimit,
		"currency":      DefaultCurrency,
		"report_title":  DefaultReportTitle,
	}
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithTarget(cfgFile, "", flags, nil)
}

// LoadConfigWithTarget loads configuration with an optional environment
// override. targetOverride names the entry of environments whose target is
// merged over the base target. Warnings found while validating go to logger.
func LoadConfigWithTarget(cfgFile, targetOverride string, flags *pflag.FlagSet, logger *slog.Logger) (*Config, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	k = koanf.New(".")

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	// 1. Defaults
	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else searched upward from CWD
	configFileUsed = cfgFile
	if configFileUsed == "" {
		configFileUsed = findConfigUpward(cwd)
	}
	projectRoot := cwd
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
		if abs, err := filepath.Abs(configFileUsed); err == nil {
			projectRoot = filepath.Dir(abs)
		}
	}

	// 3. Environment variables: QUERYDECK_TARGET__HOST -> target.host
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags, only those explicitly set
	flagPaths := map[string]string{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed || skipFlags[f.Name] {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}

		// Paths given on the command line are relative to CWD, not the project.
		for key, name := range pathFlags {
			if f := flags.Lookup(name); f != nil && f.Changed && f.Value.String() != "" {
				if abs, err := filepath.Abs(f.Value.String()); err == nil {
					flagPaths[key] = abs
				}
			}
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	envName := cfg.Environment
	if targetOverride != "" {
		envName = targetOverride
	}
	if envCfg, ok := cfg.Environments[envName]; ok {
		if envCfg.Catalog != "" && flagPaths["catalog"] == "" {
			cfg.Catalog = envCfg.Catalog
		}
		if envCfg.OutputDir != "" && flagPaths["output_dir"] == "" {
			cfg.OutputDir = envCfg.OutputDir
		}
		cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
	} else if targetOverride != "" {
		return nil, fmt.Errorf("environment %q is not defined in config", targetOverride)
	}

	// 6. Resolve relative paths against the project root
	resolve := func(key string, p *string) {
		if v, ok := flagPaths[key]; ok {
			*p = v
			return
		}
		*p = resolvePathRelativeTo(*p, projectRoot)
	}
	resolve("catalog", &cfg.Catalog)
	resolve("output_dir", &cfg.OutputDir)
	resolve("insights_file", &cfg.InsightsFile)
	resolve("charts_dir", &cfg.ChartsDir)
	resolve("state_path", &cfg.StatePath)

	if cfg.Target == nil {
		cfg.Target = &TargetConfig{
			Type:     DefaultTargetType,
			Host:     DefaultTargetHost,
			User:     DefaultTargetUser,
			Database: DefaultTargetDatabase,
		}
	}
	ApplyTargetDefaults(cfg.Target)
	expandTargetEnvVars(cfg.Target)
	if cfg.Target.IsFileBased() {
		cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, projectRoot)
	}

	if err := cfg.Validate(logger); err != nil {
		return nil, err
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the currently loaded configuration.
// This is available after LoadConfig or LoadConfigWithTarget is called.
func GetCurrentConfig() *Config {
	return currentConfig
}

// LoggerKey returns the context key used for storing the logger.
// This allows the commands package to retrieve the logger from context
// without creating an import cycle with the cli package.
func LoggerKey() any {
	return loggerKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return slog.New(slog.DiscardHandler)
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
// Unset variables are left as written.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

// ApplyTargetDefaults fills in the port and schema implied by the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Type = adapter.Canonical(t.Type)
	switch t.Type {
	case "mysql":
		if t.Port == 0 {
			t.Port = 3306
		}
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
		if t.Schema == "" {
			t.Schema = "public"
		}
	case "duckdb":
		if t.Schema == "" {
			t.Schema = "main"
		}
		if t.Database == "" {
			t.Database = ":memory:"
		}
	case "sqlite":
		if t.Database == "" {
			t.Database = ":memory:"
		}
	}
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := *base
	merged.Options = make(map[string]string, len(base.Options)+len(override.Options))
	merged.Params = make(map[string]any, len(base.Params)+len(override.Params))
	maps.Copy(merged.Options, base.Options)
	maps.Copy(merged.Params, base.Params)

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	maps.Copy(merged.Options, override.Options)
	maps.Copy(merged.Params, override.Params)

	return &merged
}
