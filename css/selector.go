package css

import (
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Component is a compound selector together with the combinator text which
// precedes it. Combinator keeps exact source bytes (including surrounding
// whitespace) so joining components reproduces the original selector.
type Component struct {
	Combinator string // "", " ", " > ", "+", "~ " ...
	Compound   string // e.g. "div.span-4:hover"

	toks []token
}

// Selector is a single complex selector decomposed into components.
type Selector struct {
	Components []Component
}

// ParseSelector splits selector on combinators (descendant whitespace, '>',
// '+', '~') found outside of parentheses and brackets.
func ParseSelector(s string) Selector {
	toks, err := lex(s)
	if err != nil {
		// Cannot make sense of it, keep as a single opaque compound.
		return Selector{Components: []Component{{Compound: s}}}
	}

	var (
		sel   Selector
		comb  strings.Builder
		cur   Component
		depth int
		open  bool // compound is being collected
	)
	flush := func() {
		if open {
			sel.Components = append(sel.Components, cur)
		}
		cur, open = Component{}, false
	}
	for _, t := range toks {
		if depth == 0 && isCombinator(t) {
			if open {
				flush()
			}
			comb.WriteString(t.text)
			continue
		}
		if !open {
			cur = Component{Combinator: comb.String()}
			comb.Reset()
			open = true
		}
		depth = nesting(t, depth)
		cur.Compound += t.text
		cur.toks = append(cur.toks, t)
	}
	flush()
	if comb.Len() > 0 {
		// trailing whitespace
		sel.Components = append(sel.Components, Component{Combinator: comb.String()})
	}
	return sel
}

// String joins selector components back.
func (s Selector) String() string {
	var b strings.Builder
	for _, c := range s.Components {
		b.WriteString(c.Combinator)
		b.WriteString(c.Compound)
	}
	return b.String()
}

// Classes returns class names (without dot) used by selector subjects, class
// tokens inside pseudo-class arguments and attribute brackets are ignored.
func (s Selector) Classes() []string {
	var names []string
	for _, c := range s.Components {
		eachClass(c.toks, func(i int) {
			names = append(names, c.toks[i+1].text)
		})
	}
	return names
}

// Namespace returns copy of selector with namespace inserted after the dot of
// every class token.
func (s Selector) Namespace(namespace string) Selector {
	if namespace == "" {
		return s
	}
	res := Selector{Components: make([]Component, 0, len(s.Components))}
	for _, c := range s.Components {
		res.Components = append(res.Components, c.namespace(namespace))
	}
	return res
}

func (c Component) namespace(namespace string) Component {
	classes := make(map[int]bool)
	eachClass(c.toks, func(i int) { classes[i] = true })
	if len(classes) == 0 {
		return c
	}

	var b strings.Builder
	toks := make([]token, 0, len(c.toks))
	for i, t := range c.toks {
		if classes[i-1] {
			t.text = namespace + t.text
		}
		b.WriteString(t.text)
		toks = append(toks, t)
	}
	return Component{Combinator: c.Combinator, Compound: b.String(), toks: toks}
}

// RewriteSelector namespaces class tokens of a single selector. Empty
// namespace is identity.
func RewriteSelector(selector, namespace string) string {
	if namespace == "" {
		return selector
	}
	return ParseSelector(selector).Namespace(namespace).String()
}

// RewriteSelectors namespaces every selector in the list keeping the order.
func RewriteSelectors(selectors []string, namespace string) []string {
	res := make([]string, len(selectors))
	for i, s := range selectors {
		res[i] = RewriteSelector(s, namespace)
	}
	return res
}

// eachClass calls fn with index of the '.' delimiter for every top level class
// token of a compound.
func eachClass(toks []token, fn func(int)) {
	depth := 0
	for i, t := range toks {
		if depth == 0 && t.tt == css.DelimToken && t.text == "." && i+1 < len(toks) && isClassName(toks[i+1]) {
			fn(i)
		}
		depth = nesting(t, depth)
	}
}

// isClassName accepts identifiers and custom property names, the lexer gives
// the latter for class names starting with "--".
func isClassName(t token) bool {
	return t.tt == css.IdentToken || t.tt == css.CustomPropertyNameToken
}

func isCombinator(t token) bool {
	switch t.tt {
	case css.WhitespaceToken:
		return true
	case css.DelimToken:
		return t.text == ">" || t.text == "+" || t.text == "~"
	}
	return false
}

// nesting tracks parentheses and brackets depth.
func nesting(t token, depth int) int {
	switch t.tt {
	case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
		return depth + 1
	case css.RightParenthesisToken, css.RightBracketToken:
		if depth > 0 {
			return depth - 1
		}
	}
	return depth
}
