package compress

import (
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"bpc/assemble"
)

// resolvePlugins finds plugin stylesheets for every output file. A plugin
// provides either file specific stylesheet (<root>/<name>/<file>) or generic
// <root>/<name>/<name>.css which is used for screen and print files only.
func resolvePlugins(root string, names, files []string, log *zap.Logger) ([]assemble.Plugin, error) {
	plugins := make([]assemble.Plugin, 0, len(names))
	for _, name := range names {
		p := assemble.Plugin{Name: name, Files: make(map[string]assemble.Source)}
		for _, file := range files {
			candidates := []string{filepath.Join(root, name, file)}
			if strings.HasPrefix(file, "screen") || strings.HasPrefix(file, "print") {
				candidates = append(candidates, filepath.Join(root, name, name+".css"))
			}
			for _, path := range candidates {
				text, ok, err := readOptional(path)
				if err != nil {
					return nil, fmt.Errorf("unable to read plugin %s: %w", name, err)
				}
				if ok {
					p.Files[file] = assemble.Source{Name: path, Text: text}
					log.Debug("Plugin stylesheet found", zap.String("plugin", name), zap.String("file", file), zap.String("path", path))
					break
				}
			}
		}
		if len(p.Files) == 0 {
			log.Warn("Plugin has no stylesheets, ignoring", zap.String("plugin", name), zap.String("location", filepath.Join(root, name)))
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// resolveOverrides reads custom stylesheets living next to output files.
func resolveOverrides(dest string, custom map[string]string, files []string, log *zap.Logger) (map[string]assemble.Source, error) {
	overrides := make(map[string]assemble.Source)
	for _, file := range files {
		name, ok := custom[file]
		if !ok {
			name = "my-" + file
		}
		path := filepath.Join(dest, name)
		text, found, err := readOptional(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read custom styles for %s: %w", file, err)
		}
		if !found {
			if ok {
				log.Warn("Custom stylesheet not found", zap.String("file", file), zap.String("path", path))
			}
			continue
		}
		overrides[file] = assemble.Source{Name: path, Text: text}
	}
	return overrides, nil
}
