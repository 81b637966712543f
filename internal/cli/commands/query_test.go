package commands

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/querydeck/internal/cli/config"
	"github.com/leapstack-labs/querydeck/internal/cli/testutil"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupProject creates a seeded test project and makes it the working directory.
func setupProject(t *testing.T) string {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	dir := testutil.SetupTestProject(t)
	testutil.SeedTestProject(t, dir)
	t.Chdir(dir)
	return dir
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func decodeRows(t *testing.T, out string) []map[string]any {
	t.Helper()
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows), "output: %s", out)
	return rows
}

func TestQueryCommand_NamedJSON(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, NewQueryCommand(), "top_products", "-p", "limit=2", "-f", "json")
	require.NoError(t, err)

	rows := decodeRows(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, "Gaming Mouse", rows[0]["product_name"])
	assert.EqualValues(t, 3, rows[0]["total_units"])
	assert.Equal(t, "Laptop Pro", rows[1]["product_name"])
}

func TestQueryCommand_CSV(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, NewQueryCommand(), "sales_by_city", "-f", "csv")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "city,total_sales", strings.TrimPrefix(lines[0], "\ufeff"))
	assert.True(t, strings.HasPrefix(lines[1], "Delhi,"), "got %q", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "Mumbai,"), "got %q", lines[2])
}

func TestQueryCommand_Markdown(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, NewQueryCommand(), "monthly_sales", "-f", "md")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, out)
	testutil.AssertMarkdownTable(t, out, "month", "total_sales")
	assert.Contains(t, out, "2024-01")
	assert.Contains(t, out, "2024-02")
}

func TestQueryCommand_Table(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, NewQueryCommand(), "sales_by_city", "-f", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Delhi")
	assert.Contains(t, out, "(2 rows)")
}

func TestQueryCommand_RawSQL(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, NewQueryCommand(),
		"--sql", "SELECT COUNT(*) AS n FROM sales WHERE total_amount > :min", "-p", "min=5000", "-f", "json")
	require.NoError(t, err)

	rows := decodeRows(t, out)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 3, rows[0]["n"])
}

func TestQueryCommand_InputFile(t *testing.T) {
	dir := setupProject(t)
	path := filepath.Join(dir, "count.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT COUNT(*) AS n FROM customers\n"), 0o600))

	out, err := runCommand(t, NewQueryCommand(), "-i", path, "-f", "json")
	require.NoError(t, err)
	assert.EqualValues(t, 50, decodeRows(t, out)[0]["n"])
}

func TestQueryCommand_Stdin(t *testing.T) {
	setupProject(t)

	cmd := NewQueryCommand()
	cmd.SetIn(strings.NewReader("SELECT COUNT(*) AS n FROM products"))
	out, err := runCommand(t, cmd, "-i", "-", "-f", "json")
	require.NoError(t, err)
	assert.EqualValues(t, 20, decodeRows(t, out)[0]["n"])
}

func TestQueryCommand_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "unknown query", args: []string{"nope"}, wantErr: "nope"},
		{name: "failing query", args: []string{"broken"}, wantErr: "no_such_table"},
		{name: "missing name", args: []string{}, wantErr: "arg"},
		{name: "name with raw sql", args: []string{"monthly_sales", "--sql", "SELECT 1"}, wantErr: "unknown command"},
		{name: "bad param", args: []string{"top_products", "-p", "limit"}, wantErr: "limit"},
		{name: "empty input", args: []string{"-i", "empty.sql"}, wantErr: "no SQL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := setupProject(t)
			require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.sql"), []byte("  \n"), 0o600))

			_, err := runCommand(t, NewQueryCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestListCommand(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, NewListCommand(), "-f", "json")
	require.NoError(t, err)

	var infos []queryInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	assert.ElementsMatch(t, []string{"monthly_sales", "top_products", "sales_by_city", "broken"}, names)
	for _, info := range infos {
		assert.Empty(t, info.SQL, "list should not include SQL")
		assert.NotNil(t, info.Params)
	}
}

func TestListCommand_Markdown(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, NewListCommand(), "-f", "md")
	require.NoError(t, err)
	testutil.AssertMarkdownTable(t, out, "name", "description", "params")
	assert.Contains(t, out, "Best selling products")
}

func TestListCommand_ShowQuery(t *testing.T) {
	setupProject(t)

	out, err := runCommand(t, NewListCommand(), "top_products", "-f", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Name:        top_products")
	assert.Contains(t, out, "Parameters:  limit")
	assert.Contains(t, out, "LIMIT :limit")

	out, err = runCommand(t, NewListCommand(), "monthly_sales", "-f", "json")
	require.NoError(t, err)
	var info queryInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "monthly_sales", info.Name)
	assert.Contains(t, info.SQL, "strftime")
	assert.Equal(t, []string{}, info.Params)

	_, err = runCommand(t, NewListCommand(), "nope")
	assert.Error(t, err)
}

func TestSeedCommand(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	dir := testutil.SetupTestProject(t)
	t.Chdir(dir)

	out, err := runCommand(t, NewSeedCommand(), "--create-tables")
	require.NoError(t, err)
	assert.Contains(t, out, "50 customers, 20 products, 4 sales")

	_, err = os.Stat(filepath.Join(dir, "data", "sales.db"))
	assert.NoError(t, err)
}

func TestSeedCommand_MissingSalesFile(t *testing.T) {
	setupProject(t)

	_, err := runCommand(t, NewSeedCommand(), "--sales-file", "missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.csv")
}

func TestReportCommand(t *testing.T) {
	dir := setupProject(t)

	out, err := runCommand(t, NewReportCommand(), "--only", "monthly_sales,sales_by_city")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")
	assert.Contains(t, out, "Succeeded: 2")
	assert.Contains(t, out, "Exports: 2, charts: 2")

	for _, f := range []string{
		"output/monthly_sales.csv",
		"output/sales_by_city.csv",
		"insights/charts/monthly_sales.svg",
		"insights/charts/sales_by_city.svg",
		"insights/insights.md",
	} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected %s", f)
	}

	digest, err := os.ReadFile(filepath.Join(dir, "insights", "insights.md"))
	require.NoError(t, err)
	assert.Contains(t, string(digest), "Delhi")
}

func TestReportCommand_UnknownReport(t *testing.T) {
	setupProject(t)

	_, err := runCommand(t, NewReportCommand(), "--only", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown report "nope"`)
}

func TestReportCommand_WatchAndScheduleExclusive(t *testing.T) {
	setupProject(t)

	_, err := runCommand(t, NewReportCommand(), "--watch", "--schedule", "@hourly")
	assert.Error(t, err)
}

func TestHistoryCommand(t *testing.T) {
	setupProject(t)

	_, err := runCommand(t, NewQueryCommand(), "top_products", "-p", "limit=1", "-f", "json")
	require.NoError(t, err)
	_, err = runCommand(t, NewQueryCommand(), "broken")
	require.Error(t, err)

	out, err := runCommand(t, NewHistoryCommand(), "-f", "json")
	require.NoError(t, err)
	rows := decodeRows(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, "broken", rows[0]["query"])
	assert.Equal(t, "failed", rows[0]["status"])
	assert.Equal(t, "top_products", rows[1]["query"])
	assert.Equal(t, "success", rows[1]["status"])
	assert.EqualValues(t, 1, rows[1]["rows"])

	out, err = runCommand(t, NewHistoryCommand(), "--query", "top_products", "-f", "json")
	require.NoError(t, err)
	assert.Len(t, decodeRows(t, out), 1)
}

func TestHistoryCommand_Runs(t *testing.T) {
	setupProject(t)

	_, err := runCommand(t, NewReportCommand(), "--only", "monthly_sales")
	require.NoError(t, err)

	out, err := runCommand(t, NewHistoryCommand(), "runs", "-f", "json")
	require.NoError(t, err)
	runs := decodeRows(t, out)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0]["status"])
	assert.EqualValues(t, 1, runs[0]["succeeded"])

	out, err = runCommand(t, NewHistoryCommand(), "--run", runs[0]["id"].(string), "-f", "json")
	require.NoError(t, err)
	execs := decodeRows(t, out)
	require.Len(t, execs, 1)
	assert.Equal(t, "monthly_sales", execs[0]["query"])
}

func TestHistoryCommand_NoStateYet(t *testing.T) {
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	t.Chdir(testutil.SetupTestProject(t))

	out, err := runCommand(t, NewHistoryCommand(), "-f", "table")
	require.NoError(t, err)
	assert.Equal(t, "(0 rows)\n", out)
}

func TestHistoryCommand_Disabled(t *testing.T) {
	dir := setupProject(t)
	cfg := testutil.ProjectConfig + "history: false\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "querydeck.yaml"), []byte(cfg), 0o600))

	_, err := runCommand(t, NewHistoryCommand())
	assert.ErrorIs(t, err, errHistoryDisabled)
}

func TestRenderResults(t *testing.T) {
	table := core.NewResultTable(&core.RowSet{
		Columns: []string{"city", "total"},
		Rows: []core.Row{
			{"city": "Delhi", "total": int64(94000)},
			{"city": "Pune", "total": nil},
		},
	})
	empty := core.NewResultTable(nil)

	tests := []struct {
		name   string
		table  *core.ResultTable
		format string
		want   []string
		exact  string
	}{
		{name: "table", table: table, format: "table", want: []string{"Delhi", "NULL", "(2 rows)"}},
		{name: "text is table", table: table, format: "text", want: []string{"(2 rows)"}},
		{name: "markdown", table: table, format: "markdown", want: []string{"| Delhi |", "| Pune | NULL |"}},
		{name: "auto off terminal is markdown", table: table, format: "auto", want: []string{"| Delhi |"}},
		{name: "json", table: table, format: "json", want: []string{`"city": "Delhi"`, `"total": null`}},
		{name: "csv", table: table, format: "csv", want: []string{"city,total", "Delhi,94000"}},
		{name: "empty table", table: empty, format: "table", exact: "(0 rows)\n"},
		{name: "empty markdown", table: empty, format: "md", exact: "(0 rows)\n"},
		{name: "empty json", table: empty, format: "json", exact: "[]\n"},
		{name: "empty csv", table: empty, format: "csv", exact: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			require.NoError(t, renderResults(buf, tt.table, tt.format))
			testutil.AssertNoANSI(t, buf.String())
			if tt.want == nil {
				assert.Equal(t, tt.exact, buf.String())
			}
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestRenderResults_UnknownFormat(t *testing.T) {
	err := renderResults(new(bytes.Buffer), core.NewResultTable(nil), "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "yaml"`)
}

func TestResolveFormat(t *testing.T) {
	buf := new(bytes.Buffer)
	assert.Equal(t, formatMD, resolveFormat("", buf))
	assert.Equal(t, formatMD, resolveFormat(formatAuto, buf))
	assert.Equal(t, formatTable, resolveFormat(formatText, buf))
	assert.Equal(t, formatMD, resolveFormat(formatMarkdown, buf))
	assert.Equal(t, formatJSON, resolveFormat(formatJSON, buf))
}
