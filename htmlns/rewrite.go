// Package htmlns propagates CSS namespace into class attributes of HTML
// documents.
package htmlns

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"

	"bpc/css"
)

// Rewriter prefixes class attribute tokens with a namespace. Every byte of
// the document other than rewritten class values is copied unchanged.
type Rewriter struct {
	// Known limits rewriting to a vocabulary of class names. When nil every
	// class token is prefixed.
	Known func(class string) bool
}

// Rewrite prefixes every class token in doc with namespace.
func Rewrite(doc, namespace string) (string, error) {
	return (&Rewriter{}).Rewrite(doc, namespace, "")
}

// Rewrite processes document. Name identifies document in errors. Running
// it twice with non empty namespace prefixes classes twice.
func (r *Rewriter) Rewrite(doc, namespace, name string) (string, error) {
	if namespace == "" {
		return doc, nil
	}

	var (
		out bytes.Buffer
		off int
	)
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		raw := z.Raw()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			if len(raw) > 1 && raw[0] == '<' {
				return "", &css.MalformedInputError{Source: name, Offset: off, Near: excerpt(raw), Reason: "unterminated tag or attribute quote"}
			}
			return out.String(), nil
		case html.StartTagToken, html.SelfClosingTagToken:
			tag, err := r.rewriteTag(raw, namespace)
			if err != nil {
				return "", &css.MalformedInputError{Source: name, Offset: off, Near: excerpt(raw), Reason: err.Error()}
			}
			out.Write(tag)
		default:
			out.Write(raw)
		}
		off += len(raw)
	}
}

// rewriteTag finds class attribute in raw start tag and rewrites its value.
func (r *Rewriter) rewriteTag(raw []byte, namespace string) ([]byte, error) {
	attrs, err := scanAttributes(raw)
	if err != nil {
		return nil, err
	}
	var (
		res  []byte
		last int
	)
	for _, a := range attrs {
		if !strings.EqualFold(string(raw[a.nameStart:a.nameEnd]), "class") || a.valueStart < 0 {
			continue
		}
		res = append(res, raw[last:a.valueStart]...)
		res = append(res, r.rewriteValue(string(raw[a.valueStart:a.valueEnd]), namespace)...)
		last = a.valueEnd
	}
	if res == nil {
		return raw, nil
	}
	return append(res, raw[last:]...), nil
}

// rewriteValue prefixes class tokens keeping whitespace between them.
func (r *Rewriter) rewriteValue(value, namespace string) string {
	var b strings.Builder
	for i := 0; i < len(value); {
		if isSpace(value[i]) {
			b.WriteByte(value[i])
			i++
			continue
		}
		j := i
		for j < len(value) && !isSpace(value[j]) {
			j++
		}
		class := value[i:j]
		if r.Known == nil || r.Known(class) {
			b.WriteString(namespace)
		}
		b.WriteString(class)
		i = j
	}
	return b.String()
}

func excerpt(raw []byte) string {
	if len(raw) > 24 {
		return string(raw[:24]) + "..."
	}
	return string(raw)
}
