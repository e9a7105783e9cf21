package svg

import (
	"fmt"
	"html/template"
	"strings"
)

type point struct{ x, y float64 }

// Line renders a line chart with an optional filled area, dots and a dashed
// mean line. Crowded x labels are thinned, the last one is always drawn.
func Line(width, height int, series []float64, labels []string, opts LineOpts) (template.HTML, error) {
	if err := checkSeries(series, labels); err != nil {
		return "", err
	}
	f, err := newFrame(width, height, opts.Padding, opts.TickCount, opts.AxisColor, opts.GridColor)
	if err != nil {
		return "", err
	}
	f.fit(series)
	stroke := fallback(opts.StrokeColor, "#2563eb")
	fill := fallback(opts.FillColor, "rgba(37,99,235,0.12)")

	points := make([]point, len(series))
	for i, v := range series {
		x := f.pad + f.plotW/2
		if len(series) > 1 {
			x = f.pad + float64(i)*f.plotW/float64(len(series)-1)
		}
		points[i] = point{x: x, y: f.y(v)}
	}

	var path strings.Builder
	for i, p := range points {
		cmd := " L"
		if i == 0 {
			cmd = "M"
		}
		fmt.Fprintf(&path, "%s%.2f %.2f", cmd, p.x, p.y)
	}

	var b strings.Builder
	f.open(&b, "line", fallback(opts.Title, "Line chart"), fallback(opts.Description, "Trend data"))
	f.drawGrid(&b)

	first, last := points[0], points[len(points)-1]
	fmt.Fprintf(&b, `<path d="%s L%.2f %.2f L%.2f %.2f Z" fill="%s" stroke="none" aria-hidden="true"></path>`,
		path.String(), last.x, f.bottom(), first.x, f.bottom(), fill)
	fmt.Fprintf(&b, `<path d="%s" fill="none" stroke="%s" stroke-width="2" stroke-linejoin="round" stroke-linecap="round"></path>`, path.String(), stroke)

	if opts.ShowMean {
		var sum float64
		for _, v := range series {
			sum += v
		}
		mean := sum / float64(len(series))
		y := f.y(mean)
		fmt.Fprintf(&b, `<line class="mean" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="1" stroke-dasharray="6,3"></line>`,
			f.pad, y, f.pad+f.plotW, y, stroke)
		f.text(&b, f.pad+f.plotW, y-4, "end", "prom. "+formatTick(mean))
	}

	if opts.ShowDots {
		for _, p := range points {
			fmt.Fprintf(&b, `<circle cx="%.2f" cy="%.2f" r="3" fill="%s"></circle>`, p.x, p.y, stroke)
		}
	}

	every := opts.LabelEvery
	if every <= 0 {
		every = (len(labels) + maxXLabels - 1) / maxXLabels
	}
	for i, label := range labels {
		if i%every == 0 || i == len(labels)-1 {
			f.text(&b, points[i].x, f.bottom()+14, "middle", label)
		}
	}

	return f.close(&b), nil
}
