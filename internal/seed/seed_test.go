package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/querydeck/internal/connection"
	"github.com/leapstack-labs/querydeck/internal/testutil"
	"github.com/leapstack-labs/querydeck/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/querydeck/pkg/adapters/sqlite"
)

const salesCSV = `customer_id,product_id,quantity,order_date,total_amount
1,1,1,2024-01-05,85000
2,7,3,2024-01-17,4500.50
6,20,2,2024-02-02,10000
`

func writeSales(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw_sales_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestCustomers(t *testing.T) {
	rows := Customers()
	require.Len(t, rows, 50)
	assert.Equal(t, core.Row{"customer_name": "Customer_1", "city": "Mumbai", "country": "India"}, rows[0])
	assert.Equal(t, "Chennai", rows[4]["city"])
	assert.Equal(t, "Mumbai", rows[5]["city"])
	assert.Equal(t, "Customer_50", rows[49]["customer_name"])
}

func TestProducts(t *testing.T) {
	rows := Products()
	require.Len(t, rows, 20)
	assert.Equal(t, core.Row{"product_name": "Laptop Pro", "category": "Electronics", "price": int64(85000)}, rows[0])
	assert.Equal(t, "Speaker", rows[19]["product_name"])
}

func TestReadSalesCSV(t *testing.T) {
	rows, err := ReadSalesCSV(strings.NewReader("\ufeffcustomer_id, note ,total_amount\n3,,12.5\n4,\"gift, wrapped\",7\n"))
	require.NoError(t, err)
	assert.Equal(t, []core.Row{
		{"customer_id": int64(3), "note": nil, "total_amount": 12.5},
		{"customer_id": int64(4), "note": "gift, wrapped", "total_amount": int64(7)},
	}, rows)
}

func TestReadSalesCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "sales file is empty"},
		{"blank header", "a,,c\n1,2,3\n", "column 2 is empty"},
		{"ragged", "a,b\n1,2,3\n", "failed to read sales record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadSalesCSV(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSchema(t *testing.T) {
	tests := []struct {
		dialect string
		stmts   int
	}{
		{"mysql", 3},
		{"postgres", 3},
		{"sqlite", 3},
		{"duckdb", 6},
	}
	for _, tt := range tests {
		t.Run(tt.dialect, func(t *testing.T) {
			stmts, err := Schema(tt.dialect)
			require.NoError(t, err)
			assert.Len(t, stmts, tt.stmts)
			for _, s := range stmts {
				assert.True(t, strings.HasPrefix(s, "CREATE "), s)
			}
		})
	}

	_, err := Schema("oracle")
	assert.ErrorContains(t, err, `no sample schema for dialect "oracle"`)
}

type recordingStore struct {
	inserts map[string]int
	batches int
	execs   []string
	failOn  string
}

func (r *recordingStore) Dialect() (string, error) { return "sqlite", nil }

func (r *recordingStore) Exec(_ context.Context, stmt string, _ core.Params) (int64, error) {
	r.execs = append(r.execs, stmt)
	return 0, nil
}

func (r *recordingStore) BulkInsert(_ context.Context, table string, records []core.Row) (int64, error) {
	if table == r.failOn {
		return 0, errors.New("table does not exist")
	}
	if r.inserts == nil {
		r.inserts = map[string]int{}
	}
	r.inserts[table] += len(records)
	r.batches++
	return int64(len(records)), nil
}

func TestSeeder_MissingSalesFile(t *testing.T) {
	store := &recordingStore{}
	_, err := New(store, nil).Run(context.Background(), Options{
		SalesFile:    filepath.Join(t.TempDir(), "missing.csv"),
		CreateTables: true,
	})
	assert.ErrorContains(t, err, "sample data file not found")
	assert.Empty(t, store.inserts)
	assert.Empty(t, store.execs)
}

func TestSeeder_Batches(t *testing.T) {
	var b strings.Builder
	b.WriteString("customer_id,product_id,quantity,order_date,total_amount\n")
	for i := 0; i < 1203; i++ {
		b.WriteString("1,1,1,2024-01-01,10\n")
	}
	store := &recordingStore{}

	res, err := New(store, nil).Run(context.Background(), Options{SalesFile: writeSales(t, b.String())})
	require.NoError(t, err)
	assert.Equal(t, int64(1203), res.Sales)
	assert.Equal(t, map[string]int{"customers": 50, "products": 20, "sales": 1203}, store.inserts)
	assert.Equal(t, 1+1+3, store.batches)
	assert.Empty(t, store.execs)
}

func TestSeeder_InsertFailure(t *testing.T) {
	store := &recordingStore{failOn: "products"}
	res, err := New(store, nil).Run(context.Background(), Options{SalesFile: writeSales(t, salesCSV)})
	assert.ErrorContains(t, err, "failed to load products")
	require.NotNil(t, res)
	assert.Equal(t, int64(50), res.Customers)
	assert.Zero(t, res.Sales)
}

func TestSeeder_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	logger := testutil.NewTestLogger(t)
	m := connection.New(core.AdapterConfig{Type: "sqlite", Path: ":memory:"}, logger)
	t.Cleanup(func() { _ = m.Disconnect() })

	res, err := New(m, logger).Run(ctx, Options{SalesFile: writeSales(t, salesCSV), CreateTables: true})
	require.NoError(t, err)
	assert.Equal(t, &Result{Customers: 50, Products: 20, Sales: 3}, res)

	rs, err := m.Run(ctx, `
		SELECT c.city AS city, SUM(s.total_amount) AS total_sales
		FROM sales s JOIN customers c ON c.customer_id = s.customer_id
		GROUP BY c.city ORDER BY total_sales DESC`, nil)
	require.NoError(t, err)
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, "Mumbai", rs.Rows[0]["city"])
	total, ok := core.ToFloat(rs.Rows[0]["total_sales"])
	require.True(t, ok)
	assert.InDelta(t, 95000, total, 1e-9)
}
