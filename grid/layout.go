// Package grid derives Blueprint grid measures and CSS from three layout
// numbers: column count, column width and gutter width.
package grid

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"
)

//go:embed grid.css.tmpl
var gridTmpl string

// Default Blueprint layout.
const (
	DefaultColumnCount = 24
	DefaultColumnWidth = 30
	DefaultGutterWidth = 10
)

// InvalidLayoutError is returned when layout numbers cannot describe a grid.
type InvalidLayoutError struct {
	Field string
	Value int
}

func (e *InvalidLayoutError) Error() string {
	return fmt.Sprintf("invalid grid layout: %s must be %s, got %d", e.Field, requirement(e.Field), e.Value)
}

func requirement(field string) string {
	if field == "gutter_width" {
		return "non-negative"
	}
	return "positive"
}

// Layout is a set of base grid values. All derived measures are computed on
// demand and never stored.
type Layout struct {
	ColumnCount int
	ColumnWidth int
	GutterWidth int
}

// Default returns standard 24 column 950px layout.
func Default() Layout {
	return Layout{ColumnCount: DefaultColumnCount, ColumnWidth: DefaultColumnWidth, GutterWidth: DefaultGutterWidth}
}

// Validate checks base values.
func (l Layout) Validate() error {
	switch {
	case l.ColumnCount <= 0:
		return &InvalidLayoutError{Field: "column_count", Value: l.ColumnCount}
	case l.ColumnWidth <= 0:
		return &InvalidLayoutError{Field: "column_width", Value: l.ColumnWidth}
	case l.GutterWidth < 0:
		return &InvalidLayoutError{Field: "gutter_width", Value: l.GutterWidth}
	}
	return nil
}

// PageWidth is the width of all columns with gutters between them.
func (l Layout) PageWidth() int {
	return l.SpanWidth(l.ColumnCount)
}

// SpanWidth is the width of n adjacent columns including n-1 inner gutters.
func (l Layout) SpanWidth(n int) int {
	return n*l.ColumnWidth + (n-1)*l.GutterWidth
}

// Offset is the distance covered by m columns with their gutters.
func (l Layout) Offset(m int) int {
	return m * (l.ColumnWidth + l.GutterWidth)
}

// Measure is a numbered grid class and its pixel value.
type Measure struct {
	N  int
	Px int
}

type templateData struct {
	Layout
	PageWidth int
	Columns   []string  // div.span-1 ... div.span-N
	Spans     []Measure // 1 ... N-1, last span rendered separately
	Offsets   []Measure // 1 ... N-1 for append/prepend
	Shifts    []Measure // 1 ... N for push/pull
	Pulls     []string
	Pushes    []string

	BorderPadding    int
	BorderMargin     int
	ColBorderPadding int
	ColBorderMargin  int
}

// Result is computed grid.
type Result struct {
	PageWidth int
	CSS       string
}

// Compute validates layout and renders grid stylesheet.
func Compute(l Layout) (*Result, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}

	data := templateData{
		Layout:           l,
		PageWidth:        l.PageWidth(),
		BorderPadding:    max(l.GutterWidth/2-1, 0),
		ColBorderPadding: (l.ColumnWidth + 2*l.GutterWidth - 1) / 2,
		ColBorderMargin:  (l.ColumnWidth + 2*l.GutterWidth) / 2,
	}
	// padding, margin and 1px border fill the gutter
	data.BorderMargin = max(l.GutterWidth-data.BorderPadding-1, 0)
	for n := 1; n <= l.ColumnCount; n++ {
		data.Columns = append(data.Columns, fmt.Sprintf("div.span-%d", n))
		data.Pulls = append(data.Pulls, fmt.Sprintf(".pull-%d", n))
		data.Pushes = append(data.Pushes, fmt.Sprintf(".push-%d", n))
		data.Shifts = append(data.Shifts, Measure{N: n, Px: l.Offset(n)})
		if n < l.ColumnCount {
			data.Spans = append(data.Spans, Measure{N: n, Px: l.SpanWidth(n)})
			data.Offsets = append(data.Offsets, Measure{N: n, Px: l.Offset(n)})
		}
	}

	tmpl, err := template.New("grid.css").Funcs(sprig.FuncMap()).Parse(gridTmpl)
	if err != nil {
		return nil, fmt.Errorf("unable to parse grid template: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, data); err != nil {
		return nil, fmt.Errorf("unable to render grid template: %w", err)
	}
	return &Result{PageWidth: data.PageWidth, CSS: buf.String()}, nil
}
