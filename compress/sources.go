package compress

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/h2non/filetype"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"bpc/assemble"
	"bpc/config"
	"bpc/css"
)

//go:embed src/*.css
var defaultSources embed.FS

// outputFile lists sources of a distribution file in concatenation order.
type outputFile struct {
	name    string
	sources []string
}

var outputFiles = []outputFile{
	{"screen.css", []string{"reset.css", "typography.css", assemble.GridSource, "forms.css"}},
	{"print.css", []string{"print.css"}},
	{"ie.css", []string{"ie.css"}},
}

func outputNames() []string {
	names := make([]string, 0, len(outputFiles))
	for _, f := range outputFiles {
		names = append(names, f.name)
	}
	return names
}

// sourceFS returns directory with Blueprint sources, embedded ones when path
// is empty.
func sourceFS(path string) (fs.FS, error) {
	if path == "" {
		return fs.Sub(defaultSources, "src")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to access source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path '%s' is not a directory", path)
	}
	return os.DirFS(path), nil
}

// readStylesheet returns stylesheet as UTF-8 text without BOM. Files which
// look like known binary formats are rejected.
func readStylesheet(fsys fs.FS, name string) (string, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return decodeStylesheet(f, name)
}

func decodeStylesheet(r io.Reader, name string) (string, error) {
	data, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return "", fmt.Errorf("unable to read stylesheet %s: %w", name, err)
	}
	if kind, _ := filetype.Match(data); kind != filetype.Unknown {
		return "", fmt.Errorf("%s is not a stylesheet, looks like %s", name, kind.MIME.Value)
	}
	return string(bytes.ToValidUTF8(data, []byte("�"))), nil
}

// loadGroups reads sources for every output file.
func loadGroups(fsys fs.FS) ([]assemble.Group, error) {
	groups := make([]assemble.Group, 0, len(outputFiles))
	for _, of := range outputFiles {
		g := assemble.Group{Name: of.name}
		for _, name := range of.sources {
			if name == assemble.GridSource {
				g.Sources = append(g.Sources, assemble.Source{Name: name, Generated: true})
				continue
			}
			text, err := readStylesheet(fsys, name)
			if err != nil {
				return nil, fmt.Errorf("unable to load source for %s: %w", of.name, err)
			}
			g.Sources = append(g.Sources, assemble.Source{Name: name, Text: text})
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// readOptional reads stylesheet from disk, missing file is not an error.
func readOptional(path string) (string, bool, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	defer f.Close()
	text, err := decodeStylesheet(f, path)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// storeParsed puts structure of every loaded source into debug report.
func storeParsed(groups []assemble.Group, rpt *config.Report, log *zap.Logger) {
	if rpt == nil {
		return
	}
	p := css.NewParser(log)
	for _, g := range groups {
		for _, src := range g.Sources {
			if src.Generated {
				continue
			}
			doc, err := p.Parse(src.Text, src.Name)
			if err != nil {
				// reported by assembly
				continue
			}
			rpt.StoreData("parsed/"+src.Name+".txt", []byte(doc.Dump()))
		}
	}
}
