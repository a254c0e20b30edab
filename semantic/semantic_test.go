package semantic

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"
	yaml "gopkg.in/yaml.v3"

	"bpc/css"
)

const stylesheet = `.bp-span-4 { width: 150px; }
.bp-span-24, div.bp-span-24 { width: 950px; margin: 0; }
div.bp-colborder { padding-right: 24px; margin-right: 25px; border-right: 1px solid #eee }
.last { margin-right: 0; }
`

func TestGenerate(t *testing.T) {
	g := NewGenerator(zaptest.NewLogger(t))

	assignments := Assignment{
		{"highlight", Targets{"span-4"}},
		{"#footer, #header", Targets{".span-24", "div.span-24"}},
		{"content", Targets{"span-4", "div.colborder"}},
		{"sidebar-item-last", Targets{"last"}},
	}
	got, err := g.Generate(assignments, stylesheet, "bp-", css.StyleCompressed)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := `.bp-highlight {width:150px;}
#footer, #header {width:950px;margin:0;}
.bp-content {width:150px;padding-right:24px;margin-right:25px;border-right:1px solid #eee;}
.bp-sidebar-item-last {margin-right:0;}
`
	if got != want {
		t.Errorf("Generate() =\n%s\nwant\n%s", got, want)
	}
}

func TestGenerate_RuleUsedOnce(t *testing.T) {
	existing := `div.span-1, div.span-24 { float: left; margin-right: 10px; }
.span-24, div.span-24 { width: 950px; margin: 0; }
`
	got, err := Generate(Assignment{{"footer", Targets{"span-24", "div.span-24", "span-24"}}}, existing, "")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := ".footer {width:950px;margin:0;float:left;margin-right:10px;}\n"
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

func TestGenerate_Expanded(t *testing.T) {
	g := NewGenerator(nil)

	got, err := g.Generate(Assignment{{"highlight", Targets{"span-4"}}}, ".span-4 { width: 150px; }", "", css.StyleExpanded)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	want := ".highlight {\n  width: 150px;\n}\n"
	if got != want {
		t.Errorf("Generate() = %q, want %q", got, want)
	}
}

func TestGenerate_Empty(t *testing.T) {
	got, err := Generate(nil, "not even css {", "bp-")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != "" {
		t.Errorf("Generate() = %q, want empty", got)
	}
}

func TestGenerate_UnknownClass(t *testing.T) {
	existing := `.x-span-8 { width: 310px; }
/* .x-span-4 { width: 150px; } */
.x-box { background: url(span-4.png); }
`
	_, err := Generate(Assignment{{"highlight", Targets{"span-4"}}}, existing, "x-")
	var ue *UnknownClassReferenceError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownClassReferenceError, got %v", err)
	}
	if ue.Alias != "highlight" || ue.Class != "span-4" {
		t.Errorf("unexpected error content: %+v", ue)
	}
}

func TestGenerate_MalformedStylesheet(t *testing.T) {
	_, err := Generate(Assignment{{"highlight", Targets{"span-4"}}}, ".span-4 { width: 150px;", "")
	var me *css.MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("expected MalformedInputError, got %v", err)
	}
}

func TestAssignment_UnmarshalYAML(t *testing.T) {
	var a Assignment
	data := `
highlight: span-4
"#footer, #header": ".span-24, div.span-24"
content:
  - span-17
  - div.colborder
sidebar: span-8 last, div.colborder
nav: "#nav li, .span-4"
`
	if err := yaml.Unmarshal([]byte(data), &a); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	check := func(name string, want ...string) {
		t.Helper()
		got := a.Get(name)
		if len(got) != len(want) {
			t.Fatalf("%s: got %q, want %q", name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s[%d] = %q, want %q", name, i, got[i], want[i])
			}
		}
	}
	check("highlight", "span-4")
	check("#footer, #header", ".span-24", "div.span-24")
	check("content", "span-17", "div.colborder")
	check("sidebar", "span-8", "last", "div.colborder")
	check("nav", "#nav li", ".span-4")

	names := a.Names()
	want := []string{"highlight", "#footer, #header", "content", "sidebar", "nav"}
	if len(names) != len(want) {
		t.Fatalf("Names() = %q", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q (file order)", i, names[i], want[i])
		}
	}
}

func TestAssignment_UnmarshalYAML_Errors(t *testing.T) {
	for name, data := range map[string]string{
		"mapping target": "bad: {a: b}",
		"not a mapping":  "- a\n- b",
		"duplicate":      "a: span-1\na: span-2",
	} {
		t.Run(name, func(t *testing.T) {
			var a Assignment
			if err := yaml.Unmarshal([]byte(data), &a); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestAssignment_RoundTrip(t *testing.T) {
	a := Assignment{{"zeta", Targets{"span-2", "last"}}, {"alpha", Targets{"span-4"}}}
	data, err := yaml.Marshal(a)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}
	var back Assignment
	if err := yaml.Unmarshal(data, &back); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if names := back.Names(); len(names) != 2 || names[0] != "zeta" || names[1] != "alpha" {
		t.Errorf("Names() = %q", names)
	}
	if got := back.Get("zeta"); len(got) != 2 || got[1] != "last" {
		t.Errorf("Get(zeta) = %q", got)
	}

	c := a.Clone()
	c[0].Targets[0] = "changed"
	if a[0].Targets[0] != "span-2" {
		t.Error("Clone() must not share targets")
	}
}

func TestGenerate_WhitespaceSeparatedTargets(t *testing.T) {
	var a Assignment
	if err := yaml.Unmarshal([]byte("highlight: span-4 last\n"), &a); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	got, err := Generate(a, stylesheet, "bp-")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got != ".bp-highlight {width:150px;margin-right:0;}\n" {
		t.Errorf("Generate() = %q", got)
	}
}
