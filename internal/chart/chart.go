// Package chart draws report result tables as SVG or PNG charts.
//
// Charts are line, area, vertical bar, horizontal bar or pie plots of one
// label column against one numeric column. SVG output is written directly;
// PNG output rasterizes the same document.
package chart

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/querydeck/pkg/core"
)

// Output formats.
const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

const pngScale = 2

// Renderer writes charts into a directory.
type Renderer struct {
	dir    string
	format string
	logger *slog.Logger
}

// NewRenderer creates a renderer writing files of the given format to dir.
// An empty format means SVG.
func NewRenderer(dir, format string, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	switch format {
	case "":
		format = FormatSVG
	case FormatSVG, FormatPNG:
	default:
		return nil, fmt.Errorf("unsupported chart format %q (use svg or png)", format)
	}
	return &Renderer{dir: dir, format: format, logger: logger}, nil
}

// Format returns the output format.
func (r *Renderer) Format() string {
	return r.format
}

// Render plots table for the named report and returns the written path.
// When the table lacks the configured columns the chart is skipped with a
// warning and Render returns "" and a nil error.
func (r *Renderer) Render(report string, cfg core.ChartConfig, table *core.ResultTable) (string, error) {
	labels, values, ok := extract(cfg, table)
	if !ok {
		r.logger.Warn("cannot plot chart: missing data",
			slog.String("report", report),
			slog.String("label", cfg.Label),
			slog.String("value", cfg.Value))
		return "", nil
	}

	data, err := Build(cfg, labels, values)
	if err != nil {
		return "", err
	}
	if r.format == FormatPNG {
		if data, err = Rasterize(data, pngScale); err != nil {
			return "", err
		}
	}

	name := cfg.File
	if name == "" {
		name = report
	}
	if err := core.CheckFileName(name); err != nil {
		return "", fmt.Errorf("chart for %s: %w", report, err)
	}
	if err := os.MkdirAll(r.dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create charts directory: %w", err)
	}
	path := filepath.Join(r.dir, name+"."+r.format)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write chart: %w", err)
	}

	r.logger.Info("chart saved", slog.String("report", report), slog.String("path", path))
	return path, nil
}

func extract(cfg core.ChartConfig, table *core.ResultTable) ([]string, []float64, bool) {
	if table.Empty() || !table.HasColumn(cfg.Label) {
		return nil, nil, false
	}
	values, ok := table.Floats(cfg.Value)
	if !ok {
		return nil, nil, false
	}
	raw := table.Column(cfg.Label)
	labels := make([]string, len(raw))
	for i, v := range raw {
		labels[i] = core.FormatValue(v)
	}
	return labels, values, true
}
