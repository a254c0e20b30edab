package css

import (
	"fmt"
	"strings"

	"github.com/tdewolff/parse/v2/css"
)

// Style selects how document is serialized.
type Style int

const (
	// StyleCompressed puts every rule on a single line, drops comments and
	// collapses whitespace in declarations.
	StyleCompressed Style = iota
	// StyleExpanded keeps comments and reproduces declarations verbatim.
	StyleExpanded
)

var styleNames = map[Style]string{
	StyleCompressed: "compressed",
	StyleExpanded:   "expanded",
}

func (s Style) String() string {
	if name, ok := styleNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Style(%d)", int(s))
}

// ParseStyle converts style name to Style.
func ParseStyle(name string) (Style, error) {
	for s, n := range styleNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return StyleCompressed, fmt.Errorf("%s is not a valid output style", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Style) MarshalText() ([]byte, error) {
	if _, ok := styleNames[s]; !ok {
		return nil, fmt.Errorf("unknown output style %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Style) UnmarshalText(text []byte) error {
	v, err := ParseStyle(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// StyleNames returns names of known styles.
func StyleNames() []string {
	return []string{StyleCompressed.String(), StyleExpanded.String()}
}

// Render serializes document.
func Render(doc *Document, style Style) string {
	var b strings.Builder
	for _, item := range doc.Items {
		switch {
		case item.Rule != nil:
			renderRule(&b, item.Rule, style)
		case item.Verbatim != nil:
			if style == StyleCompressed {
				if item.Verbatim.Kind == VerbatimComment {
					continue
				}
				b.WriteString(compact(item.Verbatim.Text))
			} else {
				b.WriteString(item.Verbatim.Text)
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderRule(b *strings.Builder, rule *Rule, style Style) {
	if style == StyleCompressed {
		sels := make([]string, len(rule.Selectors))
		for i, s := range rule.Selectors {
			sels[i] = strings.Join(strings.Fields(s), " ")
		}
		b.WriteString(strings.Join(sels, ", "))
		b.WriteString(" {")
		b.WriteString(compact(rule.Declarations))
		b.WriteString("}\n")
		return
	}

	b.WriteString(strings.Join(rule.Selectors, ", "))
	b.WriteString(" {\n")
	if rule.Declarations != "" {
		b.WriteString("  ")
		b.WriteString(rule.Declarations)
		b.WriteByte('\n')
	}
	b.WriteString("}\n")
}

// compact drops comments and collapses whitespace. Whitespace next to
// punctuation which does not need it is removed entirely.
func compact(text string) string {
	toks, err := lex(text)
	if err != nil {
		return strings.Join(strings.Fields(text), " ")
	}

	sig := toks[:0:0]
	for _, t := range toks {
		if t.tt != css.CommentToken {
			sig = append(sig, t)
		}
	}

	var b strings.Builder
	for i, t := range sig {
		if t.tt != css.WhitespaceToken {
			b.WriteString(t.text)
			continue
		}
		if i == 0 || i == len(sig)-1 {
			continue
		}
		prev, next := sig[i-1], sig[i+1]
		if prev.tt == css.WhitespaceToken || tight(prev, true) || tight(next, false) {
			continue
		}
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

// tight reports whether whitespace after (or before) token can be dropped.
func tight(t token, after bool) bool {
	switch t.tt {
	case css.SemicolonToken, css.CommaToken, css.LeftBraceToken, css.RightBraceToken:
		return true
	case css.ColonToken:
		return after
	}
	return false
}
