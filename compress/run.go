// Package compress implements compress and grid commands: it loads Blueprint
// sources, assembles distribution files and writes results.
package compress

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"bpc/assemble"
	"bpc/config"
	"bpc/css"
	"bpc/grid"
	"bpc/state"
)

// Run is compress command action.
func Run(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("compress")

	if cmd.Args().Len() > 0 {
		log.Warn("Malformed command line, unexpected arguments", zap.Strings("ignoring", cmd.Args().Slice()))
	}

	flags, err := commandFlags(cmd)
	if err != nil {
		return err
	}

	name := cmd.String("project")
	project, err := loadProject(name, cmp.Or(cmd.String("settings"), env.Cfg.Project.SettingsFile), env.Rpt, log)
	if err != nil {
		return err
	}

	if env.Settings, err = config.Resolve(&env.Cfg.Project, flags, name, project); err != nil {
		return fmt.Errorf("unable to resolve settings: %w", err)
	}

	banner(env.Settings, log)
	defer func(start time.Time) {
		log.Info("Done! Compressed files and test files are up-to-date", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, env.Settings, env.Rpt, log)
}

// commandFlags collects only flags which were actually given.
func commandFlags(cmd *cli.Command) (config.Flags, error) {
	f := config.Flags{
		Destination: cmd.String("output_path"),
		NoGridImage: cmd.Bool("no-grid-image"),
	}
	if cmd.IsSet("namespace") {
		ns := cmd.String("namespace")
		f.Namespace = &ns
	}
	for flag, dst := range map[string]**int{
		"column_count": &f.ColumnCount,
		"column_width": &f.ColumnWidth,
		"gutter_width": &f.GutterWidth,
	} {
		if cmd.IsSet(flag) {
			v := int(cmd.Int(flag))
			*dst = &v
		}
	}
	if cmd.IsSet("style") {
		s, err := css.ParseStyle(cmd.String("style"))
		if err != nil {
			return f, err
		}
		f.Style = &s
	}
	return f, nil
}

// loadProject returns named project from settings file. Unknown project or
// absent settings file is not an error, defaults are used instead.
func loadProject(name, path string, rpt *config.Report, log *zap.Logger) (*config.Project, error) {
	if name == "" {
		return nil, nil
	}
	if path == "" {
		log.Warn("Project requested but no settings file configured, using defaults", zap.String("project", name))
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		log.Warn("Settings file not found, using defaults", zap.String("file", path), zap.String("project", name))
		return nil, nil
	}
	rpt.Store("config/"+filepath.Base(path), path)

	projects, err := config.LoadProjects(path)
	if err != nil {
		return nil, err
	}
	project, ok := projects[name]
	if !ok {
		log.Warn("Project not found in settings file, using defaults", zap.String("project", name), zap.Strings("known", projects.Names()))
		return nil, nil
	}
	return project, nil
}

func banner(s *config.Settings, log *zap.Logger) {
	fields := []zap.Field{}
	if s.FromSettings {
		fields = append(fields, zap.String("project", s.ProjectName))
	}
	if s.Namespace != "" {
		fields = append(fields, zap.String("namespace", s.Namespace))
	}
	fields = append(fields,
		zap.String("output", s.Destination),
		zap.Stringer("style", s.Style),
		zap.Int("column_count", s.Layout.ColumnCount),
		zap.String("column_width", fmt.Sprintf("%dpx", s.Layout.ColumnWidth)),
		zap.String("gutter_width", fmt.Sprintf("%dpx", s.Layout.GutterWidth)),
		zap.String("total_width", fmt.Sprintf("%dpx", s.Layout.PageWidth())),
	)
	log.Info("Blueprint CSS compressor", fields...)
}

// process does all the work independently of command line framework.
func process(ctx context.Context, s *config.Settings, rpt *config.Report, log *zap.Logger) error {
	fsys, err := sourceFS(s.SourcePath)
	if err != nil {
		return err
	}
	groups, err := loadGroups(fsys)
	if err != nil {
		return err
	}
	storeParsed(groups, rpt, log)

	in := assemble.Input{
		Namespace:      s.Namespace,
		Layout:         s.Layout,
		Style:          s.Style,
		Header:         assemble.DefaultHeader,
		Groups:         groups,
		Semantic:       s.SemanticClasses,
		SemanticTarget: s.SemanticTarget,
	}
	files := outputNames()
	if s.CustomDestination {
		if in.Overrides, err = resolveOverrides(s.Destination, s.CustomCSS, files, log); err != nil {
			return err
		}
	}
	if in.Plugins, err = resolvePlugins(s.PluginsPath, s.Plugins, files, log); err != nil {
		return err
	}

	res, err := assemble.Run(ctx, log, in)
	if err != nil {
		return fmt.Errorf("unable to assemble stylesheets: %w", err)
	}

	if err := writeOutputs(s.Destination, res, in, rpt, log); err != nil {
		return err
	}

	if s.GridImage {
		if err := writeGridImage(s.Destination, s.Layout, s.LineHeight, rpt, log); err != nil {
			return err
		}
	}

	return rewriteFixtures(ctx, s.Tests, s.Namespace, res.Classes, rpt, log)
}

func writeOutputs(dest string, res *assemble.Result, in assemble.Input, rpt *config.Report, log *zap.Logger) error {
	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("unable to create destination directory: %w", err)
	}
	for i, name := range res.Order {
		path := filepath.Join(dest, name)
		log.Info("Assembling", zap.String("file", path), zap.Strings("sources", sourceNames(in, i, name)))
		if err := os.WriteFile(path, []byte(res.Files[name]), 0644); err != nil {
			return fmt.Errorf("unable to write %s: %w", name, err)
		}
		rpt.Store("output/"+name, path)
	}
	return nil
}

// sourceNames lists what went into output file, for the console.
func sourceNames(in assemble.Input, i int, name string) []string {
	var names []string
	for _, src := range in.Groups[i].Sources {
		names = append(names, "src/"+src.Name)
	}
	if _, ok := in.Overrides[name]; ok {
		names = append(names, "custom styles")
	}
	for _, p := range in.Plugins {
		if _, ok := p.Files[name]; ok {
			names = append(names, p.Name+" plugin")
		}
	}
	if name == cmp.Or(in.SemanticTarget, "screen.css") && len(in.Semantic) > 0 {
		names = append(names, "semantic classes")
	}
	return names
}

func writeGridImage(dest string, l grid.Layout, lineHeight int, rpt *config.Report, log *zap.Logger) error {
	data, err := grid.GuideImage(l, lineHeight)
	if err != nil {
		return err
	}
	dir := filepath.Join(dest, "src")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("unable to create grid image directory: %w", err)
	}
	path := filepath.Join(dir, "grid.png")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("unable to write grid image: %w", err)
	}
	rpt.Store("output/src/grid.png", path)
	log.Info("Grid image updated", zap.String("file", path), zap.Int("width", l.ColumnWidth+l.GutterWidth), zap.Int("height", lineHeight))
	return nil
}

// Grid is grid command action: prints grid stylesheet or writes guide image.
func Grid(ctx context.Context, cmd *cli.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	env := state.EnvFromContext(ctx)
	log := env.Log.Named("grid")

	flags, err := commandFlags(cmd)
	if err != nil {
		return err
	}
	s, err := config.Resolve(&env.Cfg.Project, flags, "", nil)
	if err != nil {
		return fmt.Errorf("unable to resolve settings: %w", err)
	}

	fname := cmd.Args().Get(0)
	var data []byte
	if cmd.Bool("image") {
		if fname == "" {
			return errors.New("destination file is required for grid image")
		}
		if data, err = grid.GuideImage(s.Layout, s.LineHeight); err != nil {
			return err
		}
	} else if data, err = gridStylesheet(s, log); err != nil {
		return err
	}

	if fname == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(fname, data, 0644); err != nil {
		return fmt.Errorf("unable to write grid: %w", err)
	}
	log.Info("Grid written", zap.String("file", fname), zap.Int("page_width", s.Layout.PageWidth()))
	return nil
}

func gridStylesheet(s *config.Settings, log *zap.Logger) ([]byte, error) {
	res, err := grid.Compute(s.Layout)
	if err != nil {
		return nil, err
	}
	out, err := css.NewParser(log).Transform(res.CSS, assemble.GridSource, s.Namespace, s.Style)
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(out) + "\n"), nil
}
