package compress

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/h2non/filetype"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/unicode"

	"bpc/config"
	"bpc/css"
	"bpc/semantic"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unable to read %s: %v", path, err)
	}
	return string(data)
}

func testSettings(t *testing.T, root string, flags config.Flags, project *config.Project) *config.Settings {
	t.Helper()
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	cfg.Project.PluginsPath = filepath.Join(root, "plugins")
	cfg.Project.Tests.Path = filepath.Join(root, "tests")
	if flags.Destination == "" {
		flags.Destination = filepath.Join(root, "out")
	}
	s, err := config.Resolve(&cfg.Project, flags, "test", project)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return s
}

func TestProcess(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"out/my-screen.css":                 ".mine { color: red; }",
		"plugins/buttons/screen.css":        "a.button { padding: 5px; }",
		"plugins/fancy-type/fancy-type.css": "p + p { text-indent: 2em; }",
		"tests/index.html":                  `<div class="container"><p class="span-4 last">x</p></div>`,
		"tests/parts/grid.html":             `<div class='span-24'>grid</div>`,
	})

	ns := "bp-"
	s := testSettings(t, root, config.Flags{Namespace: &ns}, &config.Project{
		Plugins: []string{"buttons", "fancy-type", "absent"},
	})

	if err := process(context.Background(), s, nil, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	out := filepath.Join(root, "out")
	screen := readFile(t, filepath.Join(out, "screen.css"))
	for _, want := range []string{
		"/* reset.css */\n",
		"/* typography.css */\n",
		"/* grid.css */\n.bp-container {width:950px;margin:0 auto;}",
		"/* forms.css */\n",
		".bp-span-24, div.bp-span-24 {width:950px;margin:0;}",
		"/* " + filepath.Join(out, "my-screen.css") + " */\n.mine {color:red;}",
		"/* buttons */\na.button {padding:5px;}",
		"/* fancy-type */\np + p {text-indent:2em;}",
	} {
		if !strings.Contains(screen, want) {
			t.Errorf("screen.css does not contain %q", want)
		}
	}
	if !strings.HasPrefix(screen, "/* ----") || strings.HasSuffix(screen, "\n") {
		t.Error("screen.css must start with header and have no trailing whitespace")
	}
	if strings.Index(screen, "reset.css") > strings.Index(screen, "typography.css") ||
		strings.Index(screen, "grid.css */") > strings.Index(screen, "forms.css */") {
		t.Error("sources are out of order")
	}

	printCSS := readFile(t, filepath.Join(out, "print.css"))
	if !strings.Contains(printCSS, "/* fancy-type */") || strings.Contains(printCSS, "buttons") {
		t.Errorf("unexpected plugins in print.css:\n%s", printCSS)
	}
	ie := readFile(t, filepath.Join(out, "ie.css"))
	if strings.Contains(ie, "fancy-type") || !strings.Contains(ie, "* html div.bp-span-24") {
		t.Errorf("unexpected ie.css:\n%s", ie)
	}

	img, err := os.ReadFile(filepath.Join(out, "src", "grid.png"))
	if err != nil {
		t.Fatalf("grid image was not written: %v", err)
	}
	if !filetype.Is(img, "png") {
		t.Error("grid image is not PNG")
	}
	if cfg, err := png.DecodeConfig(bytes.NewReader(img)); err != nil || cfg.Width != 40 || cfg.Height != 18 {
		t.Errorf("unexpected grid image %+v (%v)", cfg, err)
	}

	if got := readFile(t, filepath.Join(root, "tests", "index.html")); got != `<div class="bp-container"><p class="bp-span-4 bp-last">x</p></div>` {
		t.Errorf("index.html = %q", got)
	}
	if got := readFile(t, filepath.Join(root, "tests", "parts", "grid.html")); got != `<div class='bp-span-24'>grid</div>` {
		t.Errorf("grid.html = %q", got)
	}
}

func TestProcess_DefaultDestinationSkipsCustomStyles(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	writeFiles(t, root, map[string]string{"blueprint/my-screen.css": ".mine { color: red; }"})
	s := testSettings(t, root, config.Flags{Destination: config.DefaultDestination, NoGridImage: true}, nil)
	if s.CustomDestination {
		t.Fatal("default destination must not be custom")
	}
	if err := process(context.Background(), s, nil, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if screen := readFile(t, filepath.Join(root, "blueprint", "screen.css")); strings.Contains(screen, ".mine") {
		t.Error("custom styles must be ignored for default destination")
	}
	if _, err := os.Stat(filepath.Join(root, "blueprint", "src", "grid.png")); err == nil {
		t.Error("grid image must not be written when disabled")
	}
}

func TestProcess_SemanticAndKnownClasses(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"tests/index.html": `<div class="span-8 sidebar">x</div>`,
	})
	ns := "x-"
	s := testSettings(t, root, config.Flags{Namespace: &ns, NoGridImage: true}, &config.Project{
		SemanticClasses: semantic.Assignment{{Name: "sidebar", Targets: semantic.Targets{"span-8", "last"}}},
	})
	s.Tests.KnownClassesOnly = true

	if err := process(context.Background(), s, nil, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	screen := readFile(t, filepath.Join(root, "out", "screen.css"))
	if !strings.Contains(screen, "/* semantic class names */\n.x-sidebar {width:310px;") {
		t.Errorf("semantic section missing:\n%s", screen[len(screen)-200:])
	}
	if got := readFile(t, filepath.Join(root, "tests", "index.html")); got != `<div class="x-span-8 sidebar">x</div>` {
		t.Errorf("index.html = %q", got)
	}
}

func TestProcess_Report(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"tests/index.html": `<p class="span-2">`})
	conf := config.ReporterConfig{Destination: filepath.Join(root, "report.zip")}
	rpt, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	ns := "r-"
	s := testSettings(t, root, config.Flags{Namespace: &ns}, nil)
	if err := process(context.Background(), s, rpt, zaptest.NewLogger(t)); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if err := rpt.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	zr, err := zip.OpenReader(conf.Destination)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()
	names := make(map[string]bool)
	for _, f := range zr.File {
		names[f.Name] = true
	}
	for _, want := range []string{
		"output/screen.css", "output/print.css", "output/ie.css", "output/src/grid.png",
		"parsed/reset.css.txt", "parsed/ie.css.txt", "tests/index.html",
	} {
		if !names[want] {
			t.Errorf("report does not contain %s", want)
		}
	}
}

func TestProcess_Errors(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/reset.css":      "html { margin: 0; }",
		"src/typography.css": "body { color: #222;",
		"src/forms.css":      "",
		"src/print.css":      "@media print { body { color: black; } }",
		"src/ie.css":         "",
	})
	s := testSettings(t, root, config.Flags{NoGridImage: true}, nil)
	s.SourcePath = filepath.Join(root, "src")

	err := process(context.Background(), s, nil, zaptest.NewLogger(t))
	var me *css.MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
	if !strings.Contains(err.Error(), "typography.css") || !strings.Contains(err.Error(), "print.css") {
		t.Errorf("error must name all failing sources: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "out", "screen.css")); err == nil {
		t.Error("nothing must be written when assembly fails")
	}

	s.SourcePath = filepath.Join(root, "absent")
	if err := process(context.Background(), s, nil, zaptest.NewLogger(t)); err == nil {
		t.Error("expected error for missing source directory")
	}
}

func TestDecodeStylesheet(t *testing.T) {
	enc := unicode.UTF8BOM.NewEncoder()
	withBOM, err := enc.Bytes([]byte(".a { color: red; }"))
	if err != nil {
		t.Fatal(err)
	}
	text, err := decodeStylesheet(bytes.NewReader(withBOM), "a.css")
	if err != nil {
		t.Fatalf("decodeStylesheet() error = %v", err)
	}
	if text != ".a { color: red; }" {
		t.Errorf("BOM not removed: %q", text)
	}

	utf16, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().Bytes([]byte(".b {}"))
	if err != nil {
		t.Fatal(err)
	}
	if text, err := decodeStylesheet(bytes.NewReader(utf16), "b.css"); err != nil || text != ".b {}" {
		t.Errorf("UTF-16 source decoded to %q (%v)", text, err)
	}

	pngHeader := []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}
	if _, err := decodeStylesheet(bytes.NewReader(pngHeader), "grid.png"); err == nil {
		t.Error("expected error for binary file")
	}
}

func TestResolvePlugins(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"generic/generic.css":   ".g {}",
		"specific/ie.css":       ".s {}",
		"specific/specific.css": ".gs {}",
	})
	plugins, err := resolvePlugins(root, []string{"generic", "specific", "none"}, outputNames(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("resolvePlugins() error = %v", err)
	}
	if len(plugins) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(plugins))
	}
	g := plugins[0].Files
	if len(g) != 2 || g["screen.css"].Text != ".g {}" || g["print.css"].Text != ".g {}" {
		t.Errorf("generic plugin files = %+v", g)
	}
	sp := plugins[1].Files
	if sp["ie.css"].Text != ".s {}" || sp["screen.css"].Text != ".gs {}" {
		t.Errorf("specific plugin files = %+v", sp)
	}
}

func TestLoadProject(t *testing.T) {
	root := t.TempDir()
	settings := filepath.Join(root, "settings.yml")
	writeFiles(t, root, map[string]string{"settings.yml": "site:\n  namespace: site-\n"})
	log := zaptest.NewLogger(t)

	p, err := loadProject("site", settings, nil, log)
	if err != nil || p == nil || *p.Namespace != "site-" {
		t.Errorf("loadProject() = %+v, %v", p, err)
	}
	for _, tt := range []struct{ name, path string }{
		{"", settings},
		{"other", settings},
		{"site", ""},
		{"site", filepath.Join(root, "absent.yml")},
	} {
		if p, err := loadProject(tt.name, tt.path, nil, log); p != nil || err != nil {
			t.Errorf("loadProject(%q, %q) = %+v, %v", tt.name, tt.path, p, err)
		}
	}

	writeFiles(t, root, map[string]string{"settings.yml": "site: [1, 2]\n"})
	if _, err := loadProject("site", settings, nil, log); err == nil {
		t.Error("expected error for malformed settings file")
	}
}

func TestDefaultSources(t *testing.T) {
	fsys, err := sourceFS("")
	if err != nil {
		t.Fatal(err)
	}
	groups, err := loadGroups(fsys)
	if err != nil {
		t.Fatalf("loadGroups() error = %v", err)
	}
	p := css.NewParser(zaptest.NewLogger(t))
	for _, g := range groups {
		for _, src := range g.Sources {
			if src.Generated {
				continue
			}
			if _, err := p.Parse(src.Text, src.Name); err != nil {
				t.Errorf("embedded %s does not parse: %v", src.Name, err)
			}
		}
	}
}
