package css

import "fmt"

// MalformedInputError reports CSS or HTML text which structure cannot be
// understood: unbalanced braces, nested rule groups, unterminated comments,
// tags or attribute quotes.
type MalformedInputError struct {
	Source string // name of the file or group being processed, may be empty
	Offset int    // byte offset of the offending token in the source text
	Near   string // offending token or a short excerpt around it
	Reason string
}

func (e *MalformedInputError) Error() string {
	src := e.Source
	if src == "" {
		src = "input"
	}
	if e.Near == "" {
		return fmt.Sprintf("malformed %s at offset %d: %s", src, e.Offset, e.Reason)
	}
	return fmt.Sprintf("malformed %s at offset %d near %q: %s", src, e.Offset, e.Near, e.Reason)
}

// excerpt returns at most n leading bytes of s for error messages.
func excerpt(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
