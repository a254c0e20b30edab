// Package assemble builds distribution stylesheets out of ordered groups of
// already loaded sources. It never touches the file system.
package assemble

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"bpc/css"
	"bpc/grid"
	"bpc/semantic"
)

// DefaultHeader is put on top of every generated file.
const DefaultHeader = `/* -----------------------------------------------------------------------

   Blueprint CSS Framework
   http://blueprintcss.org

   * Copyright (c) 2007-Now. See LICENSE for more info.
   * See README for instructions on how to use Blueprint.
   * For credits and origins, see AUTHORS.
   * This is a compressed file. See the sources in the 'src' directory.

----------------------------------------------------------------------- */`

// GridSource is the name of the generated grid stylesheet.
const GridSource = "grid.css"

// Source is a named piece of stylesheet text.
type Source struct {
	Name string
	Text string
	// Generated sources carry no text, their content is computed from layout.
	Generated bool
}

// Group lists sources of a single output file in concatenation order.
type Group struct {
	Name    string
	Sources []Source
}

// Plugin holds resolved plugin stylesheets keyed by output file name.
type Plugin struct {
	Name  string
	Files map[string]Source
}

// Input is everything a single run needs. It is not modified by Run.
type Input struct {
	Namespace string
	Layout    grid.Layout
	Style     css.Style
	Header    string

	Groups []Group
	// Overrides are appended after base assembly of the file with the same
	// name. Their selectors are not namespaced.
	Overrides map[string]Source
	// Plugins are appended after overrides, in order.
	Plugins []Plugin

	Semantic semantic.Assignment
	// SemanticTarget names the file semantic aliases are looked up in and
	// appended to, screen.css when empty.
	SemanticTarget string
}

// Result holds generated file contents.
type Result struct {
	Files     map[string]string
	Order     []string // file names in group order
	PageWidth int
	// Classes lists class names of base sources before namespacing.
	Classes []string
}

// Run assembles all groups. Groups are independent and processed in
// parallel, errors from all of them are reported together.
func Run(ctx context.Context, log *zap.Logger, in Input) (*Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("assemble")

	gridRes, err := grid.Compute(in.Layout)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Files:     make(map[string]string, len(in.Groups)),
		Order:     make([]string, 0, len(in.Groups)),
		PageWidth: gridRes.PageWidth,
	}
	for _, g := range in.Groups {
		if _, ok := res.Files[g.Name]; ok {
			return nil, fmt.Errorf("output file %q listed more than once", g.Name)
		}
		res.Files[g.Name] = ""
		res.Order = append(res.Order, g.Name)
	}

	var (
		wg      sync.WaitGroup
		outputs = make([]string, len(in.Groups))
		classes = make([][]string, len(in.Groups))
		errs    = make([]error, len(in.Groups))
	)
	for i, g := range in.Groups {
		wg.Go(func() {
			outputs[i], classes[i], errs[i] = in.assembleGroup(ctx, log, g, gridRes.CSS)
		})
	}
	wg.Wait()
	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for i, g := range in.Groups {
		res.Files[g.Name] = outputs[i]
		for _, c := range classes[i] {
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				res.Classes = append(res.Classes, c)
			}
		}
	}
	sort.Sort(natural.StringSlice(res.Classes))

	if err := in.appendSemantic(log, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (in *Input) assembleGroup(ctx context.Context, log *zap.Logger, g Group, gridCSS string) (string, []string, error) {
	var (
		b       strings.Builder
		classes []string
		p       = css.NewParser(log)
	)

	if in.Header != "" {
		b.WriteString(in.Header)
		b.WriteString("\n\n")
	}

	for _, src := range g.Sources {
		if err := ctx.Err(); err != nil {
			return "", nil, fmt.Errorf("%s: %w", g.Name, err)
		}
		text := src.Text
		if src.Generated {
			text = gridCSS
		}
		doc, err := p.Parse(text, src.Name)
		if err != nil {
			return "", nil, fmt.Errorf("%s: unable to process source: %w", g.Name, err)
		}
		classes = append(classes, doc.Classes()...)
		fmt.Fprintf(&b, "/* %s */\n", src.Name)
		writeBlock(&b, css.Render(doc.RewriteAll(in.Namespace), in.Style))
		log.Debug("Source added", zap.String("file", g.Name), zap.String("source", src.Name), zap.Bool("generated", src.Generated))
	}

	if o, ok := in.Overrides[g.Name]; ok && strings.TrimSpace(o.Text) != "" {
		out, err := p.Transform(o.Text, o.Name, "", in.Style)
		if err != nil {
			return "", nil, fmt.Errorf("%s: unable to process custom styles: %w", g.Name, err)
		}
		fmt.Fprintf(&b, "/* %s */\n", o.Name)
		writeBlock(&b, out)
		log.Debug("Custom styles added", zap.String("file", g.Name), zap.String("source", o.Name))
	}

	for _, pl := range in.Plugins {
		src, ok := pl.Files[g.Name]
		if !ok {
			continue
		}
		out, err := p.Transform(src.Text, src.Name, "", in.Style)
		if err != nil {
			return "", nil, fmt.Errorf("%s: unable to process plugin %s: %w", g.Name, pl.Name, err)
		}
		fmt.Fprintf(&b, "/* %s */\n", pl.Name)
		writeBlock(&b, out)
		log.Debug("Plugin added", zap.String("file", g.Name), zap.String("plugin", pl.Name))
	}

	return strings.TrimRightFunc(b.String(), unicode.IsSpace), classes, nil
}

func (in *Input) appendSemantic(log *zap.Logger, res *Result) error {
	if len(in.Semantic) == 0 {
		return nil
	}
	target := in.SemanticTarget
	if target == "" {
		target = "screen.css"
	}
	base, ok := res.Files[target]
	if !ok {
		return fmt.Errorf("semantic classes target %q is not produced", target)
	}

	aliases, err := semantic.NewGenerator(log).Generate(in.Semantic, base, in.Namespace, in.Style)
	if err != nil {
		return fmt.Errorf("%s: %w", target, err)
	}
	if aliases != "" {
		res.Files[target] = strings.TrimRightFunc(base+"\n\n"+semantic.Header+"\n"+aliases, unicode.IsSpace)
	}
	return nil
}

func writeBlock(b *strings.Builder, text string) {
	b.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		b.WriteByte('\n')
	}
}
