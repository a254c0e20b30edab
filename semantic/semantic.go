// Package semantic produces CSS rules which alias user chosen (semantic)
// class names to already generated grid classes.
package semantic

import (
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"bpc/css"
)

// Header precedes generated aliases when they are appended to a stylesheet.
const Header = "/* semantic class names */"

// UnknownClassReferenceError reports alias target missing from the stylesheet.
type UnknownClassReferenceError struct {
	Alias string
	Class string
}

func (e *UnknownClassReferenceError) Error() string {
	return fmt.Sprintf("semantic class %q references unknown class %q", e.Alias, e.Class)
}

// Targets is an ordered list of grid selectors. In YAML it may be written
// either as a string (classes separated by commas or whitespace) or as a
// sequence.
type Targets []string

// UnmarshalYAML accepts both scalar and sequence forms.
func (t *Targets) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = splitTargets(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		res := make(Targets, 0, len(items))
		for _, item := range items {
			res = append(res, splitTargets(item)...)
		}
		*t = res
		return nil
	}
	return fmt.Errorf("line %d: semantic class targets must be a string or a list", node.Line)
}

// Alias is a semantic name (or selector list) with grid classes it stands for.
type Alias struct {
	Name    string
	Targets Targets
}

// Assignment is an ordered list of aliases. In YAML it is a mapping, rules
// are generated in the order of its keys.
type Assignment []Alias

// UnmarshalYAML decodes mapping keeping key order.
func (a *Assignment) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*a = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: semantic classes must be a mapping", node.Line)
	}
	res := make(Assignment, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if seen[k.Value] {
			return fmt.Errorf("line %d: semantic class %q defined more than once", k.Line, k.Value)
		}
		seen[k.Value] = true
		var targets Targets
		if err := v.Decode(&targets); err != nil {
			return err
		}
		res = append(res, Alias{Name: k.Value, Targets: targets})
	}
	*a = res
	return nil
}

// MarshalYAML writes assignment back as mapping.
func (a Assignment) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, alias := range a {
		var k, v yaml.Node
		if err := k.Encode(alias.Name); err != nil {
			return nil, err
		}
		if err := v.Encode([]string(alias.Targets)); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &k, &v)
	}
	return node, nil
}

// Names returns alias names in assignment order.
func (a Assignment) Names() []string {
	names := make([]string, 0, len(a))
	for _, alias := range a {
		names = append(names, alias.Name)
	}
	return names
}

// Get returns targets of named alias.
func (a Assignment) Get(name string) Targets {
	for _, alias := range a {
		if alias.Name == name {
			return alias.Targets
		}
	}
	return nil
}

// Clone returns deep copy.
func (a Assignment) Clone() Assignment {
	if a == nil {
		return nil
	}
	res := make(Assignment, len(a))
	for i, alias := range a {
		res[i] = Alias{Name: alias.Name, Targets: slices.Clone(alias.Targets)}
	}
	return res
}

// Generator builds alias rules.
type Generator struct {
	parser *css.Parser
	log    *zap.Logger
}

// NewGenerator creates generator.
func NewGenerator(log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{parser: css.NewParser(log), log: log.Named("semantic")}
}

// Generate returns CSS with one rule per semantic name. Existing is the
// stylesheet targets are looked up in, it may be namespaced already. Empty
// assignment produces empty result.
func (g *Generator) Generate(assignments Assignment, existing, namespace string, style css.Style) (string, error) {
	if len(assignments) == 0 {
		return "", nil
	}

	sheet, err := g.parser.Parse(existing, "stylesheet")
	if err != nil {
		return "", fmt.Errorf("unable to parse stylesheet for semantic classes: %w", err)
	}

	doc := &css.Document{}
	for _, alias := range assignments {
		var (
			decls []string
			seen  = make(map[*css.Rule]bool)
		)
		for _, target := range alias.Targets {
			rules := lookup(sheet, classSelector(target), namespace)
			if len(rules) == 0 {
				return "", &UnknownClassReferenceError{Alias: alias.Name, Class: target}
			}
			for _, r := range rules {
				if seen[r] {
					continue
				}
				seen[r] = true
				if d := terminate(r.Declarations); d != "" {
					decls = append(decls, d)
				}
			}
		}
		doc.Items = append(doc.Items, css.Item{Rule: &css.Rule{
			Selectors:    css.RewriteSelectors(aliasSelectors(alias.Name), namespace),
			Declarations: strings.Join(decls, " "),
		}})
		g.log.Debug("Semantic class", zap.String("name", alias.Name), zap.Strings("targets", alias.Targets))
	}
	return css.Render(doc, style), nil
}

// Generate is a convenience wrapper producing compressed output.
func Generate(assignments Assignment, existing, namespace string) (string, error) {
	return NewGenerator(nil).Generate(assignments, existing, namespace, css.StyleCompressed)
}

// lookup prefers namespaced target and falls back to the bare one, so both
// namespaced and plain stylesheets can be used.
func lookup(sheet *css.Document, target, namespace string) []*css.Rule {
	if namespace != "" {
		if rules := sheet.Lookup(css.RewriteSelector(target, namespace)); len(rules) > 0 {
			return rules
		}
	}
	return sheet.Lookup(target)
}

// classSelector turns bare name into class selector.
func classSelector(s string) string {
	if isBareName(s) {
		return "." + s
	}
	return s
}

func aliasSelectors(name string) []string {
	parts := splitList(name)
	for i, p := range parts {
		parts[i] = classSelector(p)
	}
	return parts
}

// isBareName reports whether s has no selector syntax in it.
func isBareName(s string) bool {
	return !strings.ContainsAny(s, ".#[]:>+~* \t")
}

// splitTargets splits on commas, and on whitespace too when a segment holds
// bare class names only. Segments with selector syntax stay whole.
func splitTargets(s string) []string {
	var res []string
	for _, part := range splitList(s) {
		fields := strings.Fields(part)
		if len(fields) > 1 && !slices.ContainsFunc(fields, func(f string) bool { return !isBareName(f) }) {
			res = append(res, fields...)
			continue
		}
		res = append(res, part)
	}
	return res
}

func splitList(s string) []string {
	var res []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			res = append(res, part)
		}
	}
	return res
}

func terminate(decl string) string {
	decl = strings.TrimSpace(decl)
	if decl != "" && !strings.HasSuffix(decl, ";") {
		decl += ";"
	}
	return decl
}
