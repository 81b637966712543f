package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTitle heads the digest when no title is configured.
const DefaultTitle = "Sales Data Analysis Report"

// Digest collects per-report insight sections into one markdown document.
type Digest struct {
	title     string
	generated time.Time
	sections  []section
}

type section struct {
	name string
	body string
}

// NewDigest starts a digest generated at the given time.
func NewDigest(title string, generated time.Time) *Digest {
	if title == "" {
		title = DefaultTitle
	}
	return &Digest{title: title, generated: generated}
}

// Add appends a section for the named report.
func (d *Digest) Add(name, body string) {
	d.sections = append(d.sections, section{name: name, body: body})
}

// Len returns the number of sections.
func (d *Digest) Len() int {
	return len(d.sections)
}

// String renders the digest as markdown.
func (d *Digest) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", d.title)
	fmt.Fprintf(&b, "**Generated**: %s\n\n", d.generated.Format(time.DateTime))
	for _, s := range d.sections {
		fmt.Fprintf(&b, "\n## %s\n%s\n", s.name, s.body)
	}
	return b.String()
}

// WriteFile writes the digest to path, creating parent directories.
func (d *Digest) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create insights directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(d.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write insights: %w", err)
	}
	return nil
}
