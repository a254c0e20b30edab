package grid

import (
	"fmt"
	"image/color"

	"bpc/utils/images"
)

// DefaultLineHeight is the baseline height of the guide image in pixels
// (1.5em of the 12px Blueprint base font).
const DefaultLineHeight = 18

const (
	columnColor   = "#e8effb"
	baselineColor = "#e9e9e9"
)

// GuideSVG draws one grid cell: a column band followed by its gutter, with
// the baseline at the bottom. Repeated as background it shows the grid.
func GuideSVG(l Layout, lineHeight int) ([]byte, error) {
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if lineHeight <= 0 {
		return nil, &InvalidLayoutError{Field: "line_height", Value: lineHeight}
	}

	w := l.ColumnWidth + l.GutterWidth
	return fmt.Appendf(nil, `<svg xmlns="http://www.w3.org/2000/svg" width="%[1]d" height="%[2]d" viewBox="0 0 %[1]d %[2]d">
  <rect x="0" y="0" width="%[3]d" height="%[2]d" fill="%[4]s"/>
  <rect x="0" y="%[5]d" width="%[1]d" height="1" fill="%[6]s"/>
</svg>
`, w, lineHeight, l.ColumnWidth, columnColor, lineHeight-1, baselineColor), nil
}

// GuideImage renders guide as PNG. The caller decides where to put it.
func GuideImage(l Layout, lineHeight int) ([]byte, error) {
	svg, err := GuideSVG(l, lineHeight)
	if err != nil {
		return nil, err
	}
	img, err := images.Rasterize(svg, color.White)
	if err != nil {
		return nil, fmt.Errorf("unable to rasterize grid guide: %w", err)
	}
	data, err := images.EncodePNG(img)
	if err != nil {
		return nil, fmt.Errorf("unable to encode grid guide: %w", err)
	}
	return data, nil
}
