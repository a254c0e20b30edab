package compress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"bpc/config"
	"bpc/htmlns"
)

// rewriteFixtures propagates namespace into HTML test pages in place. Missing
// pages are skipped.
func rewriteFixtures(ctx context.Context, tests config.TestsConfig, namespace string, classes []string, rpt *config.Report, log *zap.Logger) error {
	if !tests.Rewrite || tests.Path == "" {
		return nil
	}
	if info, err := os.Stat(tests.Path); err != nil || !info.IsDir() {
		log.Warn("Test directory not found, skipping", zap.String("path", tests.Path))
		return nil
	}
	if namespace == "" {
		log.Debug("Empty namespace, test pages left unchanged")
		return nil
	}
	if err := rpt.StoreCopy("tests", tests.Path); err != nil {
		log.Warn("Unable to copy test pages to report", zap.Error(err))
	}

	r := &htmlns.Rewriter{}
	if tests.KnownClassesOnly {
		known := make(map[string]struct{}, len(classes))
		for _, c := range classes {
			known[c] = struct{}{}
		}
		r.Known = func(class string) bool {
			_, ok := known[class]
			return ok
		}
	}

	log.Info("Updating namespace in test files", zap.String("namespace", namespace))
	for _, name := range tests.Files {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(tests.Path, filepath.FromSlash(name))
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("Test file not found, skipping", zap.String("file", path))
			continue
		}
		if err != nil {
			return fmt.Errorf("unable to access test file: %w", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("unable to read test file: %w", err)
		}
		out, err := r.Rewrite(string(data), namespace, path)
		if err != nil {
			return fmt.Errorf("unable to update test file: %w", err)
		}
		if err := os.WriteFile(path, []byte(out), info.Mode().Perm()); err != nil {
			return fmt.Errorf("unable to write test file: %w", err)
		}
		log.Info("  + test file", zap.String("file", path))
	}
	return nil
}
