package config

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/querydeck/pkg/adapter"
	"github.com/leapstack-labs/querydeck/pkg/core"
)

var (
	chartFormats  = []string{"svg", "png"}
	exportFormats = []string{"csv", "xlsx"}
	outputFormats = []string{"auto", "table", "text", "json", "csv", "md", "markdown"}
	logLevels     = []string{"debug", "info", "warn", "error"}
	logFormats    = []string{"text", "json"}
)

// defaultPasswords are credentials a network target should not keep.
var defaultPasswords = []string{"", "root", "password"}

// Validate checks the configuration. Problems that do not stop the tool,
// like a default database password, are logged as warnings.
func (c *Config) Validate(logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if c.Catalog == "" {
		return fmt.Errorf("catalog is required")
	}
	if err := oneOf("chart_format", c.ChartFormat, chartFormats); err != nil {
		return err
	}
	if err := oneOf("export_format", c.ExportFormat, exportFormats); err != nil {
		return err
	}
	if err := oneOf("output", c.OutputFormat, outputFormats); err != nil {
		return err
	}
	if err := oneOf("log_level", c.LogLevel, logLevels); err != nil {
		return err
	}
	if err := oneOf("log_format", c.LogFormat, logFormats); err != nil {
		return err
	}
	if c.DefaultLimit < 0 {
		return fmt.Errorf("default_limit must not be negative, got %d", c.DefaultLimit)
	}
	for i, r := range c.Reports {
		if r.Name == "" {
			return fmt.Errorf("reports[%d]: name is required", i)
		}
		if err := core.CheckFileName(r.Name); err != nil {
			return fmt.Errorf("reports[%d]: %w", i, err)
		}
		if r.Chart != nil && r.Chart.File != "" {
			if err := core.CheckFileName(r.Chart.File); err != nil {
				return fmt.Errorf("reports[%d].chart.file: %w", i, err)
			}
		}
	}
	if err := ValidateTarget(c.Target); err != nil {
		return fmt.Errorf("invalid target configuration: %w", err)
	}

	if !c.Target.IsFileBased() && slices.Contains(defaultPasswords, c.Target.Password) {
		logger.Warn("default or empty database password detected; set target.password in querydeck.yaml or QUERYDECK_TARGET__PASSWORD",
			slog.String("target", c.Target.ToAdapterConfig().String()))
	}
	return nil
}

// ValidateTarget checks that the target names a registered adapter.
func ValidateTarget(t *TargetConfig) error {
	if t == nil {
		return fmt.Errorf("target is required")
	}
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(t.Type) {
		return &adapter.UnknownAdapterError{Type: t.Type, Available: adapter.ListAdapters()}
	}
	if !t.IsFileBased() && t.Host == "" {
		return fmt.Errorf("target host is required for %s", t.Type)
	}
	return nil
}

func oneOf(key, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("invalid %s %q (expected one of: %v)", key, value, allowed)
}
