// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/querydeck/internal/connection"
	"github.com/leapstack-labs/querydeck/internal/seed"
	"github.com/leapstack-labs/querydeck/pkg/core"

	// sqlite adapter for test projects.
	_ "github.com/leapstack-labs/querydeck/pkg/adapters/sqlite"
)

// ProjectConfig is the querydeck.yaml written by SetupTestProject.
const ProjectConfig = `catalog: queries.json
target:
  type: sqlite
  database: data/sales.db
output: table
`

// ProjectCatalog is the catalog written by SetupTestProject.
const ProjectCatalog = `{
  "monthly_sales": {
    "sql": "SELECT strftime('%Y-%m', order_date) AS month, SUM(total_amount) AS total_sales FROM sales GROUP BY month ORDER BY month",
    "description": "Total sales per month",
    "params": []
  },
  "top_products": {
    "sql": "SELECT p.product_name AS product_name, SUM(s.quantity) AS total_units FROM sales s JOIN products p ON p.product_id = s.product_id GROUP BY p.product_name ORDER BY total_units DESC, product_name LIMIT :limit",
    "description": "Best selling products",
    "params": ["limit"]
  },
  "sales_by_city": {
    "sql": "SELECT c.city AS city, SUM(s.total_amount) AS total_sales FROM sales s JOIN customers c ON c.customer_id = s.customer_id GROUP BY c.city ORDER BY total_sales DESC",
    "description": "Sales per city",
    "params": []
  },
  "broken": {
    "sql": "SELECT * FROM no_such_table",
    "description": "Always fails",
    "params": []
  }
}
`

// ProjectSales is the sales CSV written by SetupTestProject.
// Customer 1 is in Mumbai and customer 2 in Delhi.
const ProjectSales = `customer_id,product_id,quantity,order_date,total_amount
1,1,1,2024-01-05,85000
2,5,3,2024-01-20,9000
1,7,2,2024-02-11,3000
2,1,1,2024-02-28,85000
`

// SetupTestProject creates a temporary querydeck project with a SQLite
// target and returns its directory. The database is not created; see
// SeedTestProject.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	files := map[string]string{
		"querydeck.yaml":          ProjectConfig,
		"queries.json":            ProjectCatalog,
		"data/raw_sales_data.csv": ProjectSales,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}
	return dir
}

// SeedTestProject creates the sample tables in the project's SQLite
// database and loads the sample data.
func SeedTestProject(t *testing.T, dir string) {
	t.Helper()

	m := connection.New(core.AdapterConfig{Type: "sqlite", Path: filepath.Join(dir, "data", "sales.db")}, nil)
	err := m.Do(context.Background(), func(ctx context.Context, m *connection.Manager) error {
		_, err := seed.New(m, nil).Run(ctx, seed.Options{
			SalesFile:    filepath.Join(dir, "data", "raw_sales_data.csv"),
			CreateTables: true,
		})
		return err
	})
	if err != nil {
		t.Fatalf("failed to seed test project: %v", err)
	}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertMarkdownTable checks that s is a markdown table with the given header.
func AssertMarkdownTable(t *testing.T, s string, header ...string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) < 2 {
		t.Errorf("markdown table needs a header and a separator, got %q", s)
		return
	}
	want := "| " + strings.Join(header, " | ") + " |"
	if strings.TrimSpace(lines[0]) != want {
		t.Errorf("markdown header = %q, want %q", lines[0], want)
	}
	if !strings.HasPrefix(strings.TrimSpace(lines[1]), "| ---") {
		t.Errorf("markdown separator missing: %q", lines[1])
	}
}
