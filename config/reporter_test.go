package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("unable to open report: %v", err)
	}
	defer zr.Close()

	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("unable to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("unable to read %s: %v", f.Name, err)
		}
		files[f.Name] = string(data)
	}
	return files
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}
	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}

	stored := filepath.Join(dir, "screen.css")
	if err := os.WriteFile(stored, []byte(".a {color:red;}"), 0644); err != nil {
		t.Fatal(err)
	}
	tests := filepath.Join(dir, "tests")
	if err := os.MkdirAll(filepath.Join(tests, "parts"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(tests, "parts", "grid.html"), []byte(`<div class="span-4">`), 0644); err != nil {
		t.Fatal(err)
	}

	r.Store("output/screen.css", stored)
	r.StoreData("config/settings.yml", []byte("p: {}\n"))
	r.StoreData("config/settings.yml", []byte("q: {}\n"))
	if err := r.StoreCopy("tests", tests); err != nil {
		t.Fatalf("StoreCopy() error = %v", err)
	}
	// changes after copy must not get into report
	if err := os.WriteFile(filepath.Join(tests, "parts", "grid.html"), []byte(`<div class="bp-span-4">`), 0644); err != nil {
		t.Fatal(err)
	}
	r.Store("missing", filepath.Join(dir, "nothing-here"))

	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	files := readArchive(t, conf.Destination)
	if files["output/screen.css"] != ".a {color:red;}" {
		t.Errorf("stored file content = %q", files["output/screen.css"])
	}
	if files["config/settings.yml"] != "p: {}\n" {
		t.Errorf("first data entry = %q", files["config/settings.yml"])
	}
	if files["tests/parts/grid.html"] != `<div class="span-4">` {
		t.Errorf("copied fixture = %q", files["tests/parts/grid.html"])
	}
	if _, ok := files["missing"]; ok {
		t.Error("absent file must be skipped")
	}
	versioned := 0
	for name := range files {
		if strings.HasPrefix(name, "config/settings.yml-") {
			versioned++
		}
	}
	if versioned != 1 {
		t.Errorf("expected one versioned data entry, got %d", versioned)
	}
	if !strings.Contains(files["MANIFEST"], "output/screen.css") {
		t.Errorf("MANIFEST = %q", files["MANIFEST"])
	}
}

func TestReport_StoreConflict(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("final.log", "a.log")
	r.Store("final.log", "a.log")

	defer func() {
		if recover() == nil {
			t.Error("expected panic for conflicting Store")
		}
	}()
	r.Store("final.log", "b.log")
}

func TestReport_Nil(t *testing.T) {
	var r *Report
	r.Store("x", "y")
	r.StoreData("x", nil)
	if err := r.StoreCopy("x", "y"); err != nil {
		t.Errorf("StoreCopy on nil report error = %v", err)
	}
	if r.Name() != "" {
		t.Error("nil report must have no name")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}
}

func TestReport_NilFile(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}
