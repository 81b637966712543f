package chart

import (
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/leapstack-labs/querydeck/pkg/core"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Canvas geometry in SVG user units.
const (
	width        = 960
	height       = 480
	tallHeight   = 640
	marginLeft   = 100
	marginRight  = 40
	marginTop    = 60
	marginBottom = 120
	maxTicks     = 20
)

// palette is used for pie slices.
var palette = []string{
	"#f77189", "#ce8f31", "#97a431", "#32b166",
	"#36ada4", "#39a7d0", "#a48cf4", "#f561dd",
}

var numbers = message.NewPrinter(language.English)

// Build renders one chart as an SVG document.
// labels and values must have the same length.
func Build(cfg core.ChartConfig, labels []string, values []float64) ([]byte, error) {
	if len(labels) != len(values) {
		return nil, fmt.Errorf("chart %q: %d labels for %d values", cfg.Title, len(labels), len(values))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("chart %q: no data points", cfg.Title)
	}

	var c *canvas
	switch cfg.Kind {
	case core.ChartLine:
		c = newCanvas(width, height, cfg)
		c.series(labels, values, false)
	case core.ChartArea:
		c = newCanvas(width, height, cfg)
		c.series(labels, values, true)
	case core.ChartBar:
		c = newCanvas(width, height, cfg)
		c.bars(labels, values)
	case core.ChartBarH:
		c = newCanvas(width, tallHeight, cfg)
		c.hbars(labels, values)
	case core.ChartPie:
		c = newCanvas(width, tallHeight, cfg)
		c.pie(labels, values)
	default:
		return nil, fmt.Errorf("unknown chart kind %q", cfg.Kind)
	}
	return c.close(), nil
}

type canvas struct {
	b    strings.Builder
	w, h float64
	cfg  core.ChartConfig
}

func newCanvas(w, h int, cfg core.ChartConfig) *canvas {
	if cfg.Color == "" {
		cfg.Color = "#2185ba"
	}
	c := &canvas{w: float64(w), h: float64(h), cfg: cfg}
	fmt.Fprintf(&c.b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, w, h, w, h)
	fmt.Fprintf(&c.b, `<rect x="0" y="0" width="%d" height="%d" fill="#ffffff"/>`, w, h)
	if cfg.Title != "" {
		c.text(c.w/2, 32, "middle", 18, "bold", 0, cfg.Title)
	}
	return c
}

func (c *canvas) close() []byte {
	c.b.WriteString(`</svg>`)
	return []byte(c.b.String())
}

func (c *canvas) plotArea() (x0, y0, pw, ph float64) {
	return marginLeft, marginTop, c.w - marginLeft - marginRight, c.h - marginTop - marginBottom
}

func (c *canvas) text(x, y float64, anchor string, size int, weight string, rotate float64, s string) {
	fmt.Fprintf(&c.b, `<text x="%s" y="%s" text-anchor="%s" font-family="sans-serif" font-size="%d"`,
		num(x), num(y), anchor, size)
	if weight != "" {
		fmt.Fprintf(&c.b, ` font-weight="%s"`, weight)
	}
	if rotate != 0 {
		fmt.Fprintf(&c.b, ` transform="rotate(%s %s %s)"`, num(rotate), num(x), num(y))
	}
	c.b.WriteString(">")
	_ = xml.EscapeText(&c.b, []byte(s))
	c.b.WriteString("</text>")
}

func (c *canvas) line(x1, y1, x2, y2 float64, stroke string, w float64) {
	fmt.Fprintf(&c.b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="%s"/>`,
		num(x1), num(y1), num(x2), num(y2), stroke, num(w))
}

func (c *canvas) rect(x, y, w, h float64, fill string) {
	fmt.Fprintf(&c.b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
		num(x), num(y), num(w), num(h), fill)
}

// valueAxis draws horizontal gridlines for a vertical value scale.
func (c *canvas) valueAxis(top float64) {
	x0, y0, pw, ph := c.plotArea()
	for i := 0; i <= 4; i++ {
		v := top * float64(i) / 4
		y := y0 + ph - ph*float64(i)/4
		c.line(x0, y, x0+pw, y, "#e5e5e5", 1)
		c.text(x0-8, y+4, "end", 11, "", 0, grouped(v))
	}
	c.line(x0, y0+ph, x0+pw, y0+ph, "#333333", 1)
	c.axisTitles()
}

func (c *canvas) axisTitles() {
	x0, y0, pw, ph := c.plotArea()
	if c.cfg.XLabel != "" {
		c.text(x0+pw/2, c.h-12, "middle", 13, "", 0, c.cfg.XLabel)
	}
	if c.cfg.YLabel != "" {
		c.text(22, y0+ph/2, "middle", 13, "", -90, c.cfg.YLabel)
	}
}

// categoryLabels writes rotated tick labels under the plot, thinning them
// so at most maxTicks are shown.
func (c *canvas) categoryLabels(labels []string, xAt func(int) float64) {
	_, y0, _, ph := c.plotArea()
	every := int(math.Ceil(float64(len(labels)) / maxTicks))
	for i, l := range labels {
		if i%every != 0 {
			continue
		}
		x := xAt(i)
		c.text(x, y0+ph+16, "end", 11, "", -45, l)
	}
}

func (c *canvas) series(labels []string, values []float64, fill bool) {
	x0, y0, pw, ph := c.plotArea()
	top := niceMax(values)
	c.valueAxis(top)

	xAt := func(i int) float64 {
		if len(values) == 1 {
			return x0 + pw/2
		}
		return x0 + pw*float64(i)/float64(len(values)-1)
	}
	yAt := func(v float64) float64 { return y0 + ph - ph*math.Max(v, 0)/top }

	pts := make([]string, len(values))
	for i, v := range values {
		pts[i] = num(xAt(i)) + "," + num(yAt(v))
	}
	if fill {
		area := append([]string{num(xAt(0)) + "," + num(y0+ph)}, pts...)
		area = append(area, num(xAt(len(values)-1))+","+num(y0+ph))
		fmt.Fprintf(&c.b, `<polygon points="%s" fill="%s" fill-opacity="0.4" stroke="none"/>`,
			strings.Join(area, " "), c.cfg.Color)
	}
	fmt.Fprintf(&c.b, `<polyline points="%s" fill="none" stroke="%s" stroke-width="2"/>`,
		strings.Join(pts, " "), c.cfg.Color)
	if !fill {
		for i, v := range values {
			fmt.Fprintf(&c.b, `<circle cx="%s" cy="%s" r="4" fill="%s"/>`, num(xAt(i)), num(yAt(v)), c.cfg.Color)
		}
	}
	c.categoryLabels(labels, xAt)
}

func (c *canvas) bars(labels []string, values []float64) {
	x0, y0, pw, ph := c.plotArea()
	top := niceMax(values)
	c.valueAxis(top)

	band := pw / float64(len(values))
	center := func(i int) float64 { return x0 + band*float64(i) + band/2 }
	for i, v := range values {
		h := ph * math.Max(v, 0) / top
		c.rect(center(i)-band*0.35, y0+ph-h, band*0.7, h, c.cfg.Color)
		c.text(center(i), y0+ph-h-4, "middle", 10, "", 0, grouped(v))
	}
	c.categoryLabels(labels, center)
}

func (c *canvas) hbars(labels []string, values []float64) {
	x0, y0, pw, ph := c.plotArea()
	// Category names sit in the left margin, so shift the plot right.
	x0 += 80
	pw -= 80
	top := niceMax(values)

	for i := 0; i <= 4; i++ {
		x := x0 + pw*float64(i)/4
		c.line(x, y0, x, y0+ph, "#e5e5e5", 1)
		c.text(x, y0+ph+16, "middle", 11, "", 0, grouped(top*float64(i)/4))
	}
	c.line(x0, y0, x0, y0+ph, "#333333", 1)

	band := ph / float64(len(values))
	for i, v := range values {
		w := pw * math.Max(v, 0) / top
		y := y0 + band*float64(i)
		c.rect(x0, y+band*0.15, w, band*0.7, c.cfg.Color)
		c.text(x0-8, y+band/2+4, "end", 11, "", 0, labels[i])
		c.text(x0+w+4, y+band/2+4, "start", 10, "bold", 0, grouped(v))
	}
	if c.cfg.XLabel != "" {
		c.text(x0+pw/2, c.h-40, "middle", 13, "", 0, c.cfg.XLabel)
	}
	if c.cfg.YLabel != "" {
		c.text(22, y0+ph/2, "middle", 13, "", -90, c.cfg.YLabel)
	}
}

func (c *canvas) pie(labels []string, values []float64) {
	var total float64
	for _, v := range values {
		total += math.Max(v, 0)
	}
	cx, cy := c.w*0.4, c.h/2+20
	r := math.Min(c.w, c.h)/2 - 80

	if total == 0 {
		fmt.Fprintf(&c.b, `<circle cx="%s" cy="%s" r="%s" fill="#e5e5e5"/>`, num(cx), num(cy), num(r))
		return
	}

	// Start at twelve o'clock and go clockwise.
	angle := -math.Pi / 2
	for i, v := range values {
		share := math.Max(v, 0) / total
		color := palette[i%len(palette)]
		switch {
		case share == 0:
		case share >= 0.9999:
			fmt.Fprintf(&c.b, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`, num(cx), num(cy), num(r), color)
		default:
			end := angle + share*2*math.Pi
			large := 0
			if share > 0.5 {
				large = 1
			}
			fmt.Fprintf(&c.b, `<path d="M %s %s L %s %s A %s %s 0 %d 1 %s %s Z" fill="%s" stroke="#ffffff" stroke-width="1"/>`,
				num(cx), num(cy),
				num(cx+r*math.Cos(angle)), num(cy+r*math.Sin(angle)),
				num(r), num(r), large,
				num(cx+r*math.Cos(end)), num(cy+r*math.Sin(end)),
				color)
			mid := (angle + end) / 2
			c.text(cx+r*0.65*math.Cos(mid), cy+r*0.65*math.Sin(mid)+4, "middle", 11, "", 0,
				strconv.FormatFloat(share*100, 'f', 1, 64)+"%")
			angle = end
		}

		ly := marginTop + 10 + float64(i)*24
		c.rect(c.w*0.75, ly, 14, 14, color)
		c.text(c.w*0.75+22, ly+12, "start", 12, "", 0, labels[i])
	}
}

// niceMax rounds the largest value up to a readable axis maximum.
func niceMax(values []float64) float64 {
	var m float64
	for _, v := range values {
		m = math.Max(m, v)
	}
	if m <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(m)))
	for _, step := range []float64{1, 2, 2.5, 5, 10} {
		if step*mag >= m {
			return step * mag
		}
	}
	return 10 * mag
}

func grouped(v float64) string {
	return numbers.Sprintf("%.0f", v)
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}
