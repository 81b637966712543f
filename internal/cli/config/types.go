// Package config provides configuration management for the querydeck CLI.
//
// Configuration is layered with koanf: built-in defaults, then
// querydeck.yaml, then QUERYDECK_* environment variables, then explicit
// command-line flags. The shared TargetConfig type lives in pkg/core and is
// re-exported here via a type alias.
package config

import "github.com/leapstack-labs/querydeck/pkg/core"

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = core.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	Catalog      string `koanf:"catalog"`
	OutputDir    string `koanf:"output_dir"`
	InsightsFile string `koanf:"insights_file"`
	ChartsDir    string `koanf:"charts_dir"`
	ChartFormat  string `koanf:"chart_format"`
	ExportFormat string `koanf:"export_format"`
	Compress     bool   `koanf:"compress"`

	StatePath string `koanf:"state_path"`
	History   bool   `koanf:"history"`

	Environment  string `koanf:"environment"`
	Verbose      bool   `koanf:"verbose"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`
	OutputFormat string `koanf:"output"`

	DefaultLimit int    `koanf:"default_limit"`
	Currency     string `koanf:"currency"`
	ReportTitle  string `koanf:"report_title"`

	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`
	Reports      []core.ReportConfig  `koanf:"reports"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	Catalog   string        `koanf:"catalog"`
	OutputDir string        `koanf:"output_dir"`
	Target    *TargetConfig `koanf:"target"`
}

// Default configuration values.
const (
	DefaultCatalog      = "queries.json"
	DefaultOutputDir    = "output"
	DefaultInsightsFile = "insights/insights.md"
	DefaultChartsDir    = "insights/charts"
	DefaultChartFormat  = "svg"
	DefaultExportFormat = "csv"
	DefaultStateFile    = ".querydeck/state.db"
	DefaultEnv          = "dev"
	DefaultOutput       = "auto" // TTY=table, non-TTY=markdown
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	DefaultLimit        = 10
	DefaultCurrency     = "₹"
	DefaultReportTitle  = "Sales Data Analysis Report"
)

// Default MySQL target, matching a local development server.
const (
	DefaultTargetType     = "mysql"
	DefaultTargetHost     = "localhost"
	DefaultTargetUser     = "root"
	DefaultTargetDatabase = "sales_analytics"
)

// ReportSuite returns the configured reports, or the standard suite bound
// to DefaultLimit when none are configured.
func (c *Config) ReportSuite() []core.ReportConfig {
	if len(c.Reports) > 0 {
		return c.Reports
	}
	limit := c.DefaultLimit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return core.DefaultReports(limit)
}
