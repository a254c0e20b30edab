package css

import "bpc/utils/debug"

// Dump returns outline of document structure for troubleshooting.
func (d *Document) Dump() string {
	tw := debug.NewTreeWriter()
	for i, item := range d.Items {
		switch {
		case item.Rule != nil:
			tw.Line(0, "%d: rule @%d", i, item.Rule.Offset)
			tw.List(1, "selectors", item.Rule.Selectors)
			tw.Field(1, "declarations", item.Rule.Declarations)
		case item.Verbatim != nil:
			kind := "comment"
			if item.Verbatim.Kind == VerbatimAtRule {
				kind = "at-rule"
			}
			tw.Line(0, "%d: %s", i, kind)
			tw.Field(1, "text", item.Verbatim.Text)
		}
	}
	return tw.String()
}
