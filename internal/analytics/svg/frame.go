package svg

import (
	"fmt"
	"html/template"
	"math"
	"strings"
)

// frame is the plotting area shared by the line and bar renderers.
type frame struct {
	width, height int
	pad           float64
	plotW, plotH  float64
	lo, hi        float64
	ticks         int
	axis, grid    string
}

func newFrame(width, height int, padding float64, ticks int, axis, grid string) (frame, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	if padding <= 0 {
		padding = DefaultPadding
	}
	if ticks <= 0 {
		ticks = DefaultTicks
	}
	f := frame{
		width:  width,
		height: height,
		pad:    padding,
		plotW:  float64(width) - 2*padding,
		plotH:  float64(height) - 2*padding,
		ticks:  ticks,
		axis:   fallback(axis, "#475569"),
		grid:   fallback(grid, "#cbd5f5"),
	}
	if f.plotW <= 0 || f.plotH <= 0 {
		return frame{}, fmt.Errorf("svg: viewport too small")
	}
	return f, nil
}

// fit sets the value range to cover series and zero.
func (f *frame) fit(series []float64) {
	lo, hi := math.Min(0, series[0]), math.Max(0, series[0])
	for _, v := range series[1:] {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	if almostEqual(lo, hi) {
		hi = lo + 1
	}
	f.lo, f.hi = lo, hi
}

func (f frame) bottom() float64 { return f.pad + f.plotH }

func (f frame) y(v float64) float64 {
	return f.bottom() - (v-f.lo)*f.plotH/(f.hi-f.lo)
}

func (f frame) open(b *strings.Builder, kind, title, desc string) {
	titleID := makeID(title, kind+"-title")
	descID := makeID(title, kind+"-desc")
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %d %d" role="img" aria-labelledby="%s %s">`, f.width, f.height, titleID, descID)
	fmt.Fprintf(b, `<title id="%s">%s</title>`, titleID, template.HTMLEscapeString(title))
	fmt.Fprintf(b, `<desc id="%s">%s</desc>`, descID, template.HTMLEscapeString(desc))
}

// drawGrid writes the dashed value grid with tick labels and both axes.
func (f frame) drawGrid(b *strings.Builder) {
	for i := 0; i <= f.ticks; i++ {
		value := f.lo + (f.hi-f.lo)*float64(i)/float64(f.ticks)
		y := f.y(value)
		fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s" stroke-width="0.5" stroke-dasharray="2,4" aria-hidden="true"></line>`, f.pad, y, f.pad+f.plotW, y, f.grid)
		f.text(b, f.pad-6, y+4, "end", formatTick(value))
	}
	fmt.Fprintf(b, `<g stroke="%s" aria-label="Ejes">`, f.axis)
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, f.pad, f.pad, f.bottom())
	fmt.Fprintf(b, `<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke-width="1"></line>`, f.pad, f.bottom(), f.pad+f.plotW, f.bottom())
	b.WriteString("</g>")
}

func (f frame) text(b *strings.Builder, x, y float64, anchor, s string) {
	fmt.Fprintf(b, `<text x="%.2f" y="%.2f" fill="%s" font-size="10" text-anchor="%s">%s</text>`, x, y, f.axis, anchor, template.HTMLEscapeString(s))
}

func (f frame) close(b *strings.Builder) template.HTML {
	b.WriteString("</svg>")
	return template.HTML(b.String())
}

func checkSeries(series []float64, labels []string) error {
	if len(series) == 0 {
		return fmt.Errorf("svg: series required")
	}
	if len(series) != len(labels) {
		return fmt.Errorf("svg: labels length must match series")
	}
	return nil
}

func fallback(value, defaultValue string) string {
	if strings.TrimSpace(value) == "" {
		return defaultValue
	}
	return value
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func makeID(base, suffix string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		}
		return '-'
	}, strings.ToLower(strings.TrimSpace(base)))
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		cleaned = "chart"
	}
	return cleaned + "-" + suffix
}

// formatTick shortens axis values: 1500 -> 1.5k.
func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", v/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.1fk", v/1_000)
	case almostEqual(v, math.Round(v)):
		return fmt.Sprintf("%.0f", v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
