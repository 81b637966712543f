package seed

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/querydeck/internal/params"
	"github.com/leapstack-labs/querydeck/pkg/core"
)

//go:embed schema/*.sql
var schemas embed.FS

// Cities the sample customers are spread across, in rotation.
var Cities = []string{"Mumbai", "Delhi", "Bangalore", "Hyderabad", "Chennai"}

// CustomerCount is the number of sample customers.
const CustomerCount = 50

type product struct {
	name     string
	category string
	price    int
}

var products = []product{
	{"Laptop Pro", "Electronics", 85000},
	{"Desktop PC", "Electronics", 55000},
	{"Monitor 4K", "Electronics", 25000},
	{"Mechanical Keyboard", "Accessories", 8000},
	{"Gaming Mouse", "Accessories", 3000},
	{"Webcam HD", "Peripherals", 4500},
	{"USB Hub", "Accessories", 1500},
	{"Phone Stand", "Accessories", 800},
	{"Desk Lamp", "Accessories", 2000},
	{"Cable Organizer", "Accessories", 500},
	{"SSD 1TB", "Components", 8000},
	{"RAM 16GB", "Components", 5000},
	{"Graphics Card", "Components", 35000},
	{"Power Supply", "Components", 6000},
	{"Cooling Fan", "Components", 2500},
	{"Monitor Stand", "Accessories", 1200},
	{"Wireless Charger", "Accessories", 2500},
	{"Screen Protector", "Accessories", 300},
	{"Case Cover", "Accessories", 400},
	{"Speaker", "Peripherals", 5000},
}

// Customers returns the sample customer records.
func Customers() []core.Row {
	rows := make([]core.Row, CustomerCount)
	for i := range rows {
		rows[i] = core.Row{
			"customer_name": fmt.Sprintf("Customer_%d", i+1),
			"city":          Cities[i%len(Cities)],
			"country":       "India",
		}
	}
	return rows
}

// Products returns the sample product catalog.
func Products() []core.Row {
	rows := make([]core.Row, len(products))
	for i, p := range products {
		rows[i] = core.Row{
			"product_name": p.name,
			"category":     p.category,
			"price":        int64(p.price),
		}
	}
	return rows
}

// ReadSalesCSV reads sales records from CSV. The header row names the
// columns; numeric fields are converted and empty fields become NULL.
func ReadSalesCSV(r io.Reader) ([]core.Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("sales file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sales header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if header[i] == "" {
			return nil, fmt.Errorf("sales header column %d is empty", i+1)
		}
	}

	var rows []core.Row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read sales record: %w", err)
		}
		row := make(core.Row, len(header))
		for i, col := range header {
			row[col] = fieldValue(rec[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func fieldValue(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	switch v := params.ParseValue(s).(type) {
	case int64, float64:
		return v
	default:
		// Booleans and quoted text stay as written.
		return s
	}
}

// Schema returns the sample table DDL for a dialect, one statement per element.
func Schema(dialect string) ([]string, error) {
	data, err := schemas.ReadFile("schema/" + dialect + ".sql")
	if err != nil {
		return nil, fmt.Errorf("no sample schema for dialect %q", dialect)
	}
	var stmts []string
	for _, s := range strings.Split(string(data), ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts, nil
}
