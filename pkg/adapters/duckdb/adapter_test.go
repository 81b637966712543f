package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/querydeck/pkg/adapter"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdapter_Connect(t *testing.T) {
	tests := []struct {
		name      string
		setupPath func(t *testing.T) string
		verify    func(t *testing.T, path string)
	}{
		{
			name: "in-memory",
			setupPath: func(_ *testing.T) string {
				return ":memory:"
			},
		},
		{
			name: "file-based",
			setupPath: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "test.duckdb")
			},
			verify: func(t *testing.T, path string) {
				_, err := os.Stat(path)
				assert.False(t, os.IsNotExist(err), "database file was not created")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			adp := New(nil)

			dbPath := tt.setupPath(t)
			require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: dbPath}))
			defer func() { _ = adp.Close() }()

			assert.True(t, adp.IsConnected())
			if tt.verify != nil {
				tt.verify(t, dbPath)
			}
		})
	}
}

func TestAdapter_Settings(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{
		Params: map[string]any{"settings": map[string]any{"threads": 1}},
	}))
	defer func() { _ = adp.Close() }()

	rs, err := adp.Query(ctx, "SELECT current_setting('threads') AS threads")
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "1", core.FormatValue(rs.Rows[0]["threads"]))
}

func TestAdapter_BindAndInsert(t *testing.T) {
	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, core.AdapterConfig{Path: ":memory:"}))
	defer func() { _ = adp.Close() }()

	_, err := adp.Exec(ctx, `CREATE TABLE products (name VARCHAR, price DOUBLE)`)
	require.NoError(t, err)

	stmt, args := adapter.BuildInsert(adp, "products", []core.Row{
		{"name": "Laptop", "price": 999.99},
		{"name": "Mouse", "price": 29.99},
		{"name": "Pen"},
	})
	n, err := adp.Exec(ctx, stmt, args...)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	b := adapter.Bind("SELECT name FROM products WHERE price > :min ORDER BY name LIMIT :limit",
		core.Params{"min": 10, "limit": 5}, adp)
	rs, err := adp.Query(ctx, b.SQL, b.Args...)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "Laptop", rs.Rows[0]["name"])
	assert.Equal(t, "Mouse", rs.Rows[1]["name"])
}

func TestAdapter_NotConnected(t *testing.T) {
	adp := New(nil)
	_, err := adp.Query(context.Background(), "SELECT 1")
	require.ErrorIs(t, err, adapter.ErrNotConnected)
	assert.NoError(t, adp.Close())
}
