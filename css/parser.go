package css

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// token is a lexer token with its text copied out of the lexer buffer.
type token struct {
	tt   css.TokenType
	text string
	off  int
}

// lex splits text into CSS tokens. Every byte of input belongs to exactly one
// token, so concatenating token texts reproduces the input.
func lex(s string) ([]token, error) {
	l := css.NewLexer(parse.NewInput(strings.NewReader(s)))

	var (
		toks []token
		off  int
	)
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return toks, &MalformedInputError{Offset: off, Near: excerpt(s[off:], 16), Reason: err.Error()}
			}
			return toks, nil
		}
		toks = append(toks, token{tt: tt, text: string(data), off: off})
		off += len(data)
	}
}

// Parser parses CSS stylesheets into flat documents.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// Parse parses CSS text into a Document. Name identifies what is being parsed
// and is only used in errors and debug logging.
func (p *Parser) Parse(source, name string) (*Document, error) {
	toks, err := lex(source)
	if err != nil {
		var me *MalformedInputError
		if errors.As(err, &me) {
			me.Source = name
		}
		return nil, err
	}

	fail := func(t token, reason string) error {
		return &MalformedInputError{Source: name, Offset: t.off, Near: excerpt(strings.TrimSpace(t.text), 16), Reason: reason}
	}

	doc := &Document{}

	var (
		prelude []token
		body    strings.Builder
		rule    *Rule
		open    token
	)
	for i := 0; i < len(toks); i++ {
		t := toks[i]

		if rule != nil {
			switch t.tt {
			case css.LeftBraceToken:
				return nil, fail(t, "nested block inside declarations")
			case css.RightBraceToken:
				rule.Declarations = strings.TrimSpace(body.String())
				doc.Items = append(doc.Items, Item{Rule: rule})
				body.Reset()
				rule = nil
			case css.CommentToken:
				if !strings.HasSuffix(t.text, "*/") || len(t.text) < 4 {
					return nil, fail(t, "unterminated comment")
				}
				body.WriteString(t.text)
			default:
				body.WriteString(t.text)
			}
			continue
		}

		switch t.tt {
		case css.CommentToken:
			if !strings.HasSuffix(t.text, "*/") || len(t.text) < 4 {
				return nil, fail(t, "unterminated comment")
			}
			if blank(prelude) {
				prelude = nil
				doc.Items = append(doc.Items, Item{Verbatim: &Verbatim{Kind: VerbatimComment, Text: t.text}})
			}
			// comments inside selector text are dropped

		case css.AtKeywordToken:
			if !blank(prelude) {
				return nil, fail(t, "at-rule inside selector")
			}
			prelude = nil
			next, text, err := atRule(toks, i)
			if err != nil {
				var me *MalformedInputError
				if errors.As(err, &me) {
					me.Source = name
				}
				return nil, err
			}
			doc.Items = append(doc.Items, Item{Verbatim: &Verbatim{Kind: VerbatimAtRule, Text: text}})
			i = next

		case css.LeftBraceToken:
			selectors, err := splitSelectors(prelude)
			if err != nil {
				return nil, fail(t, err.Error())
			}
			rule = &Rule{Selectors: selectors, Offset: firstSignificant(prelude, t).off}
			prelude, open = nil, t

		case css.RightBraceToken:
			return nil, fail(t, "unexpected '}' without matching '{'")

		case css.SemicolonToken:
			return nil, fail(t, "unexpected ';' outside of declaration block")

		case css.CDOToken, css.CDCToken:
			// HTML comment markers are allowed around stylesheets and ignored

		default:
			if t.tt == css.WhitespaceToken && len(prelude) > 0 && prelude[len(prelude)-1].tt == css.WhitespaceToken {
				// both sides of a dropped comment
				continue
			}
			prelude = append(prelude, t)
		}
	}

	if rule != nil {
		return nil, &MalformedInputError{Source: name, Offset: open.off, Near: excerpt(strings.TrimSpace(source[firstSelectorOffset(rule, open):]), 16),
			Reason: "unterminated block, missing '}'"}
	}
	if !blank(prelude) {
		t := firstSignificant(prelude, prelude[0])
		return nil, fail(t, "selector without declaration block")
	}

	p.log.Debug("Parsed CSS", zap.String("source", name), zap.Int("bytes", len(source)), zap.Int("items", len(doc.Items)))
	return doc, nil
}

// Transform parses source, namespaces all selectors and renders the result.
func (p *Parser) Transform(source, name, namespace string, style Style) (string, error) {
	doc, err := p.Parse(source, name)
	if err != nil {
		return "", err
	}
	return Render(doc.RewriteAll(namespace), style), nil
}

// atRule collects at-rule starting at toks[start] up to terminating ';' or up
// to the end of its block. Blocks may hold declarations only, nested rule
// groups are not supported. Returns index of the last consumed token.
func atRule(toks []token, start int) (int, string, error) {
	var (
		b     strings.Builder
		depth int
	)
	for i := start; i < len(toks); i++ {
		t := toks[i]
		b.WriteString(t.text)
		switch t.tt {
		case css.SemicolonToken:
			if depth == 0 {
				return i, strings.TrimSpace(b.String()), nil
			}
		case css.LeftBraceToken:
			if depth > 0 {
				return 0, "", &MalformedInputError{Offset: t.off, Near: toks[start].text,
					Reason: "nested rule groups inside at-rules are not supported"}
			}
			depth++
		case css.RightBraceToken:
			depth--
			if depth == 0 {
				return i, strings.TrimSpace(b.String()), nil
			}
		case css.CommentToken:
			if !strings.HasSuffix(t.text, "*/") || len(t.text) < 4 {
				return 0, "", &MalformedInputError{Offset: t.off, Near: excerpt(t.text, 16), Reason: "unterminated comment"}
			}
		}
	}
	if depth > 0 {
		return 0, "", &MalformedInputError{Offset: toks[start].off, Near: toks[start].text, Reason: "unterminated block, missing '}'"}
	}
	// at-rule without terminating semicolon at the end of input
	return len(toks) - 1, strings.TrimSpace(b.String()), nil
}

// splitSelectors splits selector prelude on top level commas.
func splitSelectors(prelude []token) ([]string, error) {
	var (
		res   []string
		cur   strings.Builder
		depth int
	)
	add := func() error {
		s := strings.TrimSpace(cur.String())
		if s == "" {
			return errors.New("empty selector")
		}
		res = append(res, s)
		cur.Reset()
		return nil
	}
	for _, t := range prelude {
		if depth == 0 && t.tt == css.CommaToken {
			if err := add(); err != nil {
				return nil, err
			}
			continue
		}
		depth = nesting(t, depth)
		cur.WriteString(t.text)
	}
	if err := add(); err != nil {
		return nil, err
	}
	return res, nil
}

func blank(toks []token) bool {
	for _, t := range toks {
		if t.tt != css.WhitespaceToken {
			return false
		}
	}
	return true
}

func firstSignificant(toks []token, def token) token {
	for _, t := range toks {
		if t.tt != css.WhitespaceToken {
			return t
		}
	}
	return def
}

func firstSelectorOffset(rule *Rule, open token) int {
	if rule.Offset <= open.off {
		return rule.Offset
	}
	return open.off
}
