// Package main provides tests for the querydeck CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/querydeck/internal/cli"
	"github.com/leapstack-labs/querydeck/internal/cli/config"
)

// run executes the root command with args and returns its output.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// newProject initializes and seeds a project from the bundled template.
func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := run(t, "init"); err != nil {
		t.Fatalf("init error = %v", err)
	}
	out, err := run(t, "seed", "--create-tables")
	if err != nil {
		t.Fatalf("seed error = %v", err)
	}
	if !strings.Contains(out, "50 customers, 20 products, 150 sales") {
		t.Fatalf("unexpected seed output: %s", out)
	}
	return dir
}

func TestVersionCommand(t *testing.T) {
	output, err := run(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "querydeck v") {
		t.Errorf("version output should contain 'querydeck v', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := run(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"query", "list", "seed", "report", "history", "init", "completion"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestQueryCommand(t *testing.T) {
	newProject(t)

	output, err := run(t, "query", "top_products", "-p", "limit=3", "--output", "json")
	if err != nil {
		t.Fatalf("query command error = %v", err)
	}

	var rows []map[string]any
	if err := json.Unmarshal([]byte(output), &rows); err != nil {
		t.Fatalf("query output is not JSON: %v\n%s", err, output)
	}
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
	for _, col := range []string{"product_name", "category", "total_units", "total_revenue"} {
		if _, ok := rows[0][col]; !ok {
			t.Errorf("row should have column %q, got: %v", col, rows[0])
		}
	}
}

func TestListCommand(t *testing.T) {
	newProject(t)

	output, err := run(t, "list", "-o", "md")
	if err != nil {
		t.Fatalf("list command error = %v", err)
	}
	for _, name := range []string{"monthly_sales", "product_revenue_ranking"} {
		if !strings.Contains(output, name) {
			t.Errorf("list output should contain %q, got: %s", name, output)
		}
	}
}

func TestReportCommand(t *testing.T) {
	dir := newProject(t)

	output, err := run(t, "report")
	if err != nil {
		t.Fatalf("report command error = %v\n%s", err, output)
	}
	for _, want := range []string{"completed", "Succeeded: 8", "Exports: 8, charts: 6"} {
		if !strings.Contains(output, want) {
			t.Errorf("report output should contain %q, got: %s", want, output)
		}
	}

	for _, f := range []string{
		"output/monthly_sales.csv",
		"output/product_revenue_ranking.csv",
		"insights/charts/category_revenue.svg",
		"insights/insights.md",
	} {
		if _, err := os.Stat(filepath.Join(dir, f)); err != nil {
			t.Errorf("expected %s to exist: %v", f, err)
		}
	}

	output, err = run(t, "history", "runs", "-o", "json")
	if err != nil {
		t.Fatalf("history runs error = %v", err)
	}
	if !strings.Contains(output, `"status": "completed"`) {
		t.Errorf("history runs should list the completed run, got: %s", output)
	}
}

func TestReportCommand_FlagOverrides(t *testing.T) {
	dir := newProject(t)
	outDir := filepath.Join(dir, "exports")

	_, err := run(t, "report", "--only", "sales_by_city", "--output-dir", outDir, "--env", "ci")
	if err != nil {
		t.Fatalf("report command error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "sales_by_city.csv")); err != nil {
		t.Errorf("expected export in --output-dir: %v", err)
	}

	output, err := run(t, "history", "runs", "-o", "json")
	if err != nil {
		t.Fatalf("history runs error = %v", err)
	}
	if !strings.Contains(output, `"environment": "ci"`) {
		t.Errorf("run should record the environment, got: %s", output)
	}
}

func TestUnknownTarget(t *testing.T) {
	newProject(t)

	_, err := run(t, "list", "--target", "nowhere")
	if err == nil || !strings.Contains(err.Error(), "nowhere") {
		t.Errorf("expected undefined environment error, got %v", err)
	}
}
