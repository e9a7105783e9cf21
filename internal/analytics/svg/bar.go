package svg

import (
	"fmt"
	"html/template"
	"strings"
)

// Bars renders a single-series bar chart. Bars flagged in opts.Highlight use
// the highlight color, e.g. products at or below the stock alert level.
// Negative values are drawn as empty bars.
func Bars(width, height int, series []float64, labels []string, opts BarOpts) (template.HTML, error) {
	if err := checkSeries(series, labels); err != nil {
		return "", err
	}
	if len(opts.Highlight) > 0 && len(opts.Highlight) != len(series) {
		return "", fmt.Errorf("svg: highlight length must match series")
	}
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, opts.AxisColor, opts.GridColor)
	if err != nil {
		return "", err
	}
	f.fit(series)
	f.lo = 0
	color := fallback(opts.Color, "#0ea5e9")
	highlight := fallback(opts.HighlightColor, "#dc2626")

	slot := f.plotW / float64(len(series))
	barW := slot * 0.6

	var b strings.Builder
	f.open(&b, "bar", fallback(opts.Title, "Bar chart"), fallback(opts.Description, "Bar comparison"))
	f.drawGrid(&b)

	for i, value := range series {
		value = max(value, 0)
		top := f.y(value)
		x := f.pad + float64(i)*slot + (slot-barW)/2
		fill := color
		if len(opts.Highlight) > 0 && opts.Highlight[i] {
			fill = highlight
		}
		fmt.Fprintf(&b, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="%s" aria-label="%s"></rect>`,
			x, top, barW, f.bottom()-top, fill, template.HTMLEscapeString(labels[i]))
		if opts.ShowValues {
			f.text(&b, x+barW/2, top-4, "middle", formatTick(value))
		}
		f.text(&b, x+barW/2, f.bottom()+14, "middle", labels[i])
	}

	return f.close(&b), nil
}
