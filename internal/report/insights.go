package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/querydeck/pkg/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultInsight is used for reports without a dedicated generator.
const DefaultInsight = "Analysis completed successfully."

// Insights turns result tables into short markdown summaries.
type Insights struct {
	currency string
	p        *message.Printer
}

// NewInsights creates a generator that prefixes amounts with currency.
func NewInsights(currency string) *Insights {
	return &Insights{currency: currency, p: message.NewPrinter(language.English)}
}

// Generate returns the summary for table using the named generator.
func (in *Insights) Generate(kind string, table *core.ResultTable) string {
	switch kind {
	case core.InsightMonthly:
		return in.monthly(table)
	case core.InsightProducts:
		return in.products(table)
	case core.InsightCustomers:
		return in.customers(table)
	case core.InsightCity:
		return in.city(table)
	case core.InsightCategory:
		return in.category(table)
	default:
		return DefaultInsight
	}
}

// Money formats v with the currency symbol and two grouped decimals.
func (in *Insights) Money(v float64) string {
	return in.currency + in.p.Sprintf("%.2f", v)
}

func (in *Insights) count(v float64) string {
	if v == math.Trunc(v) {
		return in.p.Sprintf("%.0f", v)
	}
	return in.p.Sprintf("%.2f", v)
}

func (in *Insights) monthly(t *core.ResultTable) string {
	if t.Empty() {
		return "No data available for monthly analysis."
	}
	var b lines
	b.add("**Monthly Sales Summary**")
	b.add("- Total records: %d", t.Len())
	if sales, ok := t.Floats("total_sales"); ok {
		hi, lo := argMax(sales), argMin(sales)
		b.add("- Average monthly sales: %s", in.Money(mean(sales)))
		b.add("- Peak month: %s (%s)", cell(t, hi, "month"), in.Money(sales[hi]))
		b.add("- Lowest month: %s (%s)", cell(t, lo, "month"), in.Money(sales[lo]))
	}
	return b.String()
}

func (in *Insights) products(t *core.ResultTable) string {
	if t.Empty() {
		return "No data available for product analysis."
	}
	var b lines
	b.add("**Top Products Summary**")
	b.add("- Products analyzed: %d", t.Len())
	if units, ok := t.Floats("total_units"); ok {
		b.add("- Total units sold: %s", in.count(sum(units)))
	}
	b.add("- Best performer: %s", cell(t, 0, "product_name"))
	return b.String()
}

func (in *Insights) customers(t *core.ResultTable) string {
	if t.Empty() {
		return "No data available for customer analysis."
	}
	var b lines
	b.add("**Top Customers Summary**")
	b.add("- Top customers analyzed: %d", t.Len())
	if spent, ok := t.Floats("total_spent"); ok {
		b.add("- Combined spend (top %d): %s", t.Len(), in.Money(sum(spent)))
		b.add("- Average spend per customer: %s", in.Money(mean(spent)))
	}
	return b.String()
}

func (in *Insights) city(t *core.ResultTable) string {
	if t.Empty() {
		return "No data available for city analysis."
	}
	var b lines
	b.add("**Sales by City Summary**")
	b.add("- Cities with sales: %d", t.Len())
	if sales, ok := t.Floats("total_sales"); ok {
		hi := argMax(sales)
		b.add("- Leading city: %s (%s)", cell(t, hi, "city"), in.Money(sales[hi]))
	}
	return b.String()
}

func (in *Insights) category(t *core.ResultTable) string {
	if t.Empty() {
		return "No data available for category analysis."
	}
	var b lines
	b.add("**Product Category Performance**")
	b.add("- Categories: %d", t.Len())
	if revenue, ok := t.Floats("total_revenue"); ok {
		b.add("- Total category revenue: %s", in.Money(sum(revenue)))
	}
	return b.String()
}

type lines []string

func (l *lines) add(format string, args ...any) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func (l lines) String() string {
	return strings.Join(l, "\n")
}

// cell returns the text of one value, or N/A when the column is absent.
func cell(t *core.ResultTable, row int, col string) string {
	if !t.HasColumn(col) || row >= t.Len() {
		return "N/A"
	}
	return core.FormatValue(t.Rows[row][col])
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sum(xs) / float64(len(xs))
}

// argMax returns the first index of the largest value.
func argMax(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x > xs[best] {
			best = i
		}
	}
	return best
}

func argMin(xs []float64) int {
	best := 0
	for i, x := range xs {
		if x < xs[best] {
			best = i
		}
	}
	return best
}
