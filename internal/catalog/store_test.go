package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/leapstack-labs/querydeck/internal/testutil"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesCatalog = `{
  "monthly_sales": {
    "sql": "SELECT DATE_FORMAT(order_date, '%Y-%m') AS month, SUM(sales_amount) AS total_sales FROM sales GROUP BY month",
    "description": "Total sales by month",
    "params": []
  },
  "top_products": {
    "sql": "SELECT p.name, SUM(s.quantity) AS total_quantity FROM sales s JOIN products p ON s.product_id = p.product_id GROUP BY p.name ORDER BY total_quantity DESC LIMIT :limit",
    "description": "Top products by quantity sold",
    "params": ["limit"]
  },
  "daily_sales_trend": {
    "sql": "SELECT order_date, SUM(sales_amount) AS daily_sales FROM sales GROUP BY order_date",
    "description": "Daily sales",
    "params": []
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_NamesInFileOrder(t *testing.T) {
	path := writeFile(t, t.TempDir(), "queries.json", salesCatalog)

	store, err := Load(path, testutil.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"monthly_sales", "top_products", "daily_sales_trend"}, store.Names())
	assert.Equal(t, 3, store.Len())
	assert.Equal(t, path, store.Source())

	def, err := store.Lookup("top_products")
	require.NoError(t, err)
	assert.Equal(t, []string{"limit"}, def.Params)
	assert.Equal(t, "Top products by quantity sold", def.Description)
	assert.Contains(t, def.SQL, "LIMIT :limit")
}

func TestLoad_YAML(t *testing.T) {
	doc := `
zeta:
  sql: SELECT 1
  description: last alphabetically, first in file
  params: []
alpha:
  sql: SELECT :x
  description: second
  params: [x]
`
	path := writeFile(t, t.TempDir(), "queries.yaml", doc)

	store, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, store.Names())

	def, err := store.Lookup("alpha")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, def.Params)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		query string
		field string
	}{
		{
			name:  "missing sql",
			doc:   `{"q1": {"description": "d", "params": []}}`,
			query: "q1",
			field: "sql",
		},
		{
			name:  "missing description",
			doc:   `{"q1": {"sql": "SELECT 1", "params": []}}`,
			query: "q1",
			field: "description",
		},
		{
			name:  "missing params",
			doc:   `{"q1": {"sql": "SELECT 1", "description": "d"}}`,
			query: "q1",
			field: "params",
		},
		{
			name:  "everything missing reports sql first",
			doc:   `{"q1": {}}`,
			query: "q1",
			field: "sql",
		},
		{
			name:  "params not a list",
			doc:   `{"q1": {"sql": "SELECT 1", "description": "d", "params": "limit"}}`,
			query: "q1",
			field: "params",
		},
		{
			name:  "params not strings",
			doc:   `{"q1": {"sql": "SELECT 1", "description": "d", "params": [1]}}`,
			query: "q1",
			field: "params",
		},
		{
			name:  "blank sql",
			doc:   `{"q1": {"sql": "   ", "description": "d", "params": []}}`,
			query: "q1",
			field: "sql",
		},
		{
			name:  "first failing query in file order wins",
			doc:   `{"ok": {"sql": "SELECT 1", "description": "d", "params": []}, "b": {"sql": "x", "params": []}, "a": {"description": "d", "params": []}}`,
			query: "b",
			field: "description",
		},
		{
			name:  "dotted query name",
			doc:   `{"sales.by_city": {"sql": "SELECT 1", "description": "d", "params": [true]}}`,
			query: "sales.by_city",
			field: "params",
		},
		{
			name:  "duplicate name",
			doc:   `{"q1": {"sql": "SELECT 1", "description": "d", "params": []}, "q1": {"sql": "SELECT 2", "description": "d", "params": []}}`,
			query: "q1",
			field: "name",
		},
		{
			name:  "entry not an object",
			doc:   `{"q1": "SELECT 1"}`,
			query: "q1",
		},
		{
			name: "root not an object",
			doc:  `["q1"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "queries.json", tt.doc)

			_, err := Load(path, nil)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
			assert.Equal(t, tt.query, ve.Query)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, path, ve.Source)
			if tt.field != "" {
				assert.Contains(t, ve.Error(), tt.field)
			}
		})
	}
}

func TestLoad_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.json"), nil)
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.True(t, errors.Is(err, fs.ErrNotExist))
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeFile(t, dir, "broken.json", `{"q1": {"sql": `)
		_, err := Load(path, nil)
		var le *LoadError
		require.True(t, errors.As(err, &le))
		assert.Contains(t, err.Error(), "malformed JSON")
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, dir, "broken.yaml", "q1: [unclosed")
		_, err := Load(path, nil)
		var le *LoadError
		require.True(t, errors.As(err, &le))
	})
}

func TestLookup_Unknown(t *testing.T) {
	store, err := LoadBytes("queries.json", []byte(salesCatalog), nil)
	require.NoError(t, err)

	_, err = store.Lookup("nonexistent")
	var uq *UnknownQueryError
	require.True(t, errors.As(err, &uq))
	assert.Equal(t, "nonexistent", uq.Name)
	assert.Equal(t, store.Names(), uq.Known)
	assert.Contains(t, err.Error(), "monthly_sales")
}

func TestLookup_ReturnsCopy(t *testing.T) {
	store, err := LoadBytes("queries.json", []byte(salesCatalog), nil)
	require.NoError(t, err)

	def, err := store.Lookup("top_products")
	require.NoError(t, err)
	def.Params[0] = "mutated"

	again, err := store.Lookup("top_products")
	require.NoError(t, err)
	assert.Equal(t, []string{"limit"}, again.Params)
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "queries.json", `{"q1": {"sql": "SELECT 1", "description": "d", "params": []}}`)

	store, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1"}, store.Names())

	writeFile(t, dir, "queries.json", `{"q2": {"sql": "SELECT 2", "description": "d", "params": []}}`)
	require.NoError(t, store.Reload(""))
	assert.Equal(t, []string{"q2"}, store.Names())

	_, err = store.Lookup("q1")
	assert.Error(t, err)

	t.Run("failed reload keeps previous catalog", func(t *testing.T) {
		writeFile(t, dir, "queries.json", `{"q3": {"sql": "SELECT 3"}}`)
		err := store.Reload(path)
		require.Error(t, err)
		assert.Equal(t, []string{"q2"}, store.Names())
	})
}

func TestReload_ReadersSeeWholeSnapshots(t *testing.T) {
	a := []byte(`{"q1": {"sql": "SELECT 1", "description": "d", "params": []}, "q1b": {"sql": "SELECT 1", "description": "d", "params": []}}`)
	b := []byte(`{"q2": {"sql": "SELECT 2", "description": "d", "params": []}, "q2b": {"sql": "SELECT 2", "description": "d", "params": []}}`)

	store, err := LoadBytes("queries.json", a, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			doc := a
			if i%2 == 0 {
				doc = b
			}
			_ = store.ReloadBytes("queries.json", doc)
		}
	}()

	for i := 0; i < 200; i++ {
		names := store.Names()
		require.Len(t, names, 2)
		assert.True(t,
			(names[0] == "q1" && names[1] == "q1b") || (names[0] == "q2" && names[1] == "q2b"),
			"mixed snapshot: %v", names)
	}
	wg.Wait()
}

func TestDefinitions(t *testing.T) {
	store, err := LoadBytes("queries.json", []byte(salesCatalog), nil)
	require.NoError(t, err)

	defs := store.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, core.QueryDefinition{
		Name:        "daily_sales_trend",
		SQL:         "SELECT order_date, SUM(sales_amount) AS daily_sales FROM sales GROUP BY order_date",
		Description: "Daily sales",
		Params:      []string{},
	}, defs[2])
}
