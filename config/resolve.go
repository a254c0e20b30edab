package config

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"

	"github.com/gosimple/slug"

	"bpc/css"
	"bpc/grid"
	"bpc/semantic"
)

// Flags are command line values. Nil pointers mean flag was not given.
type Flags struct {
	Destination string
	Namespace   *string
	ColumnCount *int
	ColumnWidth *int
	GutterWidth *int
	Style       *css.Style
	NoGridImage bool
}

// Settings is the final set of values a compression run uses. It is built
// once by Resolve and never changed afterwards.
type Settings struct {
	ProjectName  string
	FromSettings bool

	Namespace   string
	SourcePath  string
	Destination string
	// CustomDestination is set when output does not go to default Blueprint
	// location, only then custom stylesheets are appended.
	CustomDestination bool
	Style             css.Style
	Layout            grid.Layout
	GridImage         bool
	LineHeight        int

	CustomCSS       map[string]string
	SemanticClasses semantic.Assignment
	SemanticTarget  string
	Plugins         []string
	PluginsPath     string
	Tests           TestsConfig
}

// Resolve layers configuration: configured defaults, then command line flags,
// then named project from settings file. Destination given on command line
// is never replaced by project path.
func Resolve(conf *ProjectConfig, flags Flags, name string, project *Project) (*Settings, error) {
	s := &Settings{
		ProjectName: name,
		Namespace:   conf.Namespace,
		SourcePath:  conf.SourcePath,
		Destination: conf.Destination,
		Style:       conf.Style,
		Layout: grid.Layout{
			ColumnCount: conf.Layout.ColumnCount,
			ColumnWidth: conf.Layout.ColumnWidth,
			GutterWidth: conf.Layout.GutterWidth,
		},
		GridImage:       conf.GridImage.Generate,
		LineHeight:      conf.GridImage.LineHeight,
		CustomCSS:       maps.Clone(conf.CustomCSS),
		SemanticClasses: conf.SemanticClasses.Clone(),
		SemanticTarget:  conf.SemanticTarget,
		Plugins:         slices.Clone(conf.Plugins),
		PluginsPath:     conf.PluginsPath,
		Tests:           conf.Tests,
	}
	s.Tests.Files = slices.Clone(conf.Tests.Files)

	// command line
	if flags.Destination != "" {
		s.Destination = flags.Destination
	}
	if flags.Namespace != nil {
		s.Namespace = *flags.Namespace
	}
	setInt(&s.Layout.ColumnCount, flags.ColumnCount)
	setInt(&s.Layout.ColumnWidth, flags.ColumnWidth)
	setInt(&s.Layout.GutterWidth, flags.GutterWidth)
	if flags.Style != nil {
		s.Style = *flags.Style
	}
	if flags.NoGridImage {
		s.GridImage = false
	}

	// settings file
	if project != nil {
		s.FromSettings = true
		if project.Namespace != nil {
			s.Namespace = *project.Namespace
		}
		if flags.Destination == "" && project.Path != "" {
			s.Destination = project.Path
		}
		if len(project.CustomCSS) > 0 {
			if s.CustomCSS == nil {
				s.CustomCSS = make(map[string]string, len(project.CustomCSS))
			}
			maps.Copy(s.CustomCSS, project.CustomCSS)
		}
		if len(project.SemanticClasses) > 0 {
			s.SemanticClasses = project.SemanticClasses.Clone()
		}
		if len(project.Plugins) > 0 {
			s.Plugins = slices.Clone(project.Plugins)
		}
		if l := project.CustomLayout; l != nil {
			setInt(&s.Layout.ColumnCount, l.ColumnCount)
			setInt(&s.Layout.ColumnWidth, l.ColumnWidth)
			setInt(&s.Layout.GutterWidth, l.GutterWidth)
		}
	}

	if s.Destination == "" {
		s.Destination = DefaultDestination
		if name != "" {
			s.Destination = slug.Make(name)
		}
	}
	s.Destination = filepath.Clean(s.Destination)
	s.CustomDestination = s.Destination != DefaultDestination

	if err := s.Layout.Validate(); err != nil {
		return nil, err
	}
	if s.GridImage && s.LineHeight <= 0 {
		return nil, fmt.Errorf("grid image line height must be positive, got %d", s.LineHeight)
	}
	return s, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
