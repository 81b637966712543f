package core

import (
	"fmt"
	"strings"
)

// Chart kinds understood by the reporting layer.
const (
	ChartLine = "line"
	ChartBar  = "bar"
	ChartBarH = "barh"
	ChartPie  = "pie"
	ChartArea = "area"
)

// Insight generators understood by the reporting layer.
const (
	InsightMonthly   = "monthly"
	InsightProducts  = "products"
	InsightCustomers = "customers"
	InsightCity      = "city"
	InsightCategory  = "category"
)

// ChartConfig describes how one report is plotted.
// Label names the category column and Value the numeric column.
type ChartConfig struct {
	Kind   string `koanf:"kind"`
	File   string `koanf:"file"`
	Title  string `koanf:"title"`
	XLabel string `koanf:"x_label"`
	YLabel string `koanf:"y_label"`
	Label  string `koanf:"label"`
	Value  string `koanf:"value"`
	Color  string `koanf:"color"`
}

// ReportConfig is one entry of the report suite.
type ReportConfig struct {
	Name    string         `koanf:"name"`
	Query   string         `koanf:"query"` // defaults to Name
	Params  map[string]any `koanf:"params"`
	Chart   *ChartConfig   `koanf:"chart"`
	Insight string         `koanf:"insight"`
}

// QueryName returns the catalog entry the report executes.
func (r ReportConfig) QueryName() string {
	if r.Query != "" {
		return r.Query
	}
	return r.Name
}

// DefaultReports returns the standard sales analysis suite.
// limit is bound to the top-N reports.
func DefaultReports(limit int) []ReportConfig {
	top := func() map[string]any { return map[string]any{"limit": limit} }
	return []ReportConfig{
		{
			Name:    "monthly_sales",
			Insight: InsightMonthly,
			Chart: &ChartConfig{
				Kind: ChartLine, Title: "Monthly Sales Trend",
				XLabel: "Month", YLabel: "Total Sales (₹)",
				Label: "month", Value: "total_sales", Color: "#2185ba",
			},
		},
		{
			Name:    "top_products",
			Params:  top(),
			Insight: InsightProducts,
			Chart: &ChartConfig{
				Kind: ChartBar, Title: "Top Selling Products by Quantity",
				XLabel: "Product", YLabel: "Units Sold",
				Label: "product_name", Value: "total_units", Color: "#40a68f",
			},
		},
		{
			Name:    "top_customers",
			Params:  top(),
			Insight: InsightCustomers,
			Chart: &ChartConfig{
				Kind: ChartBarH, Title: "Top Customers by Spending",
				XLabel: "Amount Spent (₹)", YLabel: "Customer",
				Label: "customer_name", Value: "total_spent", Color: "#f6a042",
			},
		},
		{
			Name:    "sales_by_city",
			Insight: InsightCity,
			Chart: &ChartConfig{
				Kind: ChartPie, Title: "Sales Distribution by City",
				Label: "city", Value: "total_sales",
			},
		},
		{
			Name:    "product_category_analysis",
			Insight: InsightCategory,
			Chart: &ChartConfig{
				Kind: ChartBar, File: "category_revenue", Title: "Revenue by Product Category",
				XLabel: "Category", YLabel: "Total Revenue (₹)",
				Label: "category", Value: "total_revenue", Color: "#6c757d",
			},
		},
		{
			Name: "daily_sales_trend",
			Chart: &ChartConfig{
				Kind: ChartArea, Title: "Daily Sales Trend",
				XLabel: "Date", YLabel: "Sales Amount (₹)",
				Label: "order_date", Value: "sales_amount", Color: "#2185ba",
			},
		},
		{Name: "customer_purchase_frequency"},
		{Name: "product_revenue_ranking", Params: top()},
	}
}

// CheckFileName reports an error unless name can be used as a single
// file name inside an output directory.
func CheckFileName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("invalid file name %q", name)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("invalid file name %q: must not contain a path separator", name)
	}
	return nil
}
