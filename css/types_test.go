package css

import (
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestDocument_Dump(t *testing.T) {
	doc, err := NewParser(zaptest.NewLogger(t)).Parse("/* c */\n.a, div.b { color: red; }\n@import url(x.css);", "dump.css")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	got := doc.Dump()
	for _, want := range []string{
		"0: comment\n  text: \"/* c */\"\n",
		"1: rule @8\n  selectors (2)\n    .a\n    div.b\n  declarations: \"color: red;\"\n",
		"2: at-rule\n  text: \"@import url(x.css);\"\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Dump() does not contain %q:\n%s", want, got)
		}
	}
}
