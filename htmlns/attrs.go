package htmlns

import (
	"bytes"
	"errors"
)

// attrSpan holds byte positions of an attribute inside raw tag text.
// valueStart is -1 for attributes without value.
type attrSpan struct {
	nameStart, nameEnd   int
	valueStart, valueEnd int
}

// scanAttributes locates attributes in a complete raw start tag following
// the same splitting rules x/net/html tokenizer uses.
func scanAttributes(raw []byte) ([]attrSpan, error) {
	i := 1
	for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' {
		i++
	}

	var attrs []attrSpan
	for {
		for i < len(raw) && (isSpace(raw[i]) || raw[i] == '/') {
			i++
		}
		if i >= len(raw) || raw[i] == '>' {
			return attrs, nil
		}

		a := attrSpan{nameStart: i, valueStart: -1}
		// the first character of a name may be '='
		i++
		for i < len(raw) && !isSpace(raw[i]) && raw[i] != '/' && raw[i] != '>' && raw[i] != '=' {
			i++
		}
		a.nameEnd = i

		j := i
		for j < len(raw) && isSpace(raw[j]) {
			j++
		}
		if j < len(raw) && raw[j] == '=' {
			j++
			for j < len(raw) && isSpace(raw[j]) {
				j++
			}
			if j < len(raw) && (raw[j] == '"' || raw[j] == '\'') {
				end := bytes.IndexByte(raw[j+1:], raw[j])
				if end < 0 {
					return nil, errors.New("unterminated attribute quote")
				}
				a.valueStart, a.valueEnd = j+1, j+1+end
				j = a.valueEnd + 1
			} else {
				a.valueStart = j
				for j < len(raw) && !isSpace(raw[j]) && raw[j] != '>' {
					j++
				}
				a.valueEnd = j
			}
			i = j
		}
		attrs = append(attrs, a)
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
