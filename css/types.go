package css

import (
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// VerbatimKind tells what kind of text verbatim item holds.
type VerbatimKind int

const (
	VerbatimComment VerbatimKind = iota // /* ... */
	VerbatimAtRule                      // @import ...; or @font-face { ... }
)

// Rule is a single ruleset: ordered selector list and its declaration block.
type Rule struct {
	Selectors    []string // trimmed selectors in source order
	Declarations string   // declaration block text without braces, trimmed
	Offset       int      // byte offset of the rule in source text
}

// Verbatim is a piece of stylesheet passed through unmodified.
type Verbatim struct {
	Kind VerbatimKind
	Text string
}

// Item is either a rule or a verbatim block. Exactly one field is set.
type Item struct {
	Rule     *Rule
	Verbatim *Verbatim
}

// Document is an ordered sequence of stylesheet items. Order is preserved
// exactly by parsing and rendering.
type Document struct {
	Items []Item

	index map[string][]*Rule
}

// Rules returns all rules of the document in order.
func (d *Document) Rules() []*Rule {
	rules := make([]*Rule, 0, len(d.Items))
	for _, item := range d.Items {
		if item.Rule != nil {
			rules = append(rules, item.Rule)
		}
	}
	return rules
}

// Lookup returns rules which selector list contains exactly the requested
// selector, in document order. Whitespace inside selectors is normalized
// before comparison.
func (d *Document) Lookup(selector string) []*Rule {
	if d.index == nil {
		d.index = make(map[string][]*Rule)
		for _, rule := range d.Rules() {
			for _, sel := range rule.Selectors {
				key := normalizeSelector(sel)
				d.index[key] = append(d.index[key], rule)
			}
		}
	}
	return d.index[normalizeSelector(selector)]
}

// Classes returns sorted list of distinct class names (without leading dot)
// referenced by document selectors.
func (d *Document) Classes() []string {
	seen := make(map[string]struct{})
	for _, rule := range d.Rules() {
		for _, sel := range rule.Selectors {
			for _, name := range ParseSelector(sel).Classes() {
				seen[name] = struct{}{}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Sort(natural.StringSlice(names))
	return names
}

// RewriteAll namespaces selectors of every rule in place. Verbatim items are
// left untouched.
func (d *Document) RewriteAll(namespace string) *Document {
	if namespace == "" {
		return d
	}
	for _, rule := range d.Rules() {
		rule.Selectors = RewriteSelectors(rule.Selectors, namespace)
	}
	d.index = nil
	return d
}

func normalizeSelector(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
