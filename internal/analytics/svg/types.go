package svg

// LineOpts customises the line chart renderer.
type LineOpts struct {
	Title       string
	Description string
	StrokeColor string
	FillColor   string
	AxisColor   string
	GridColor   string
	Padding     float64
	ShowDots    bool
	// ShowMean draws a dashed line at the series average.
	ShowMean  bool
	TickCount int
	// LabelEvery draws every n-th x label; 0 picks a value that fits.
	LabelEvery int
}

// BarOpts customises the bar chart renderer.
type BarOpts struct {
	Title       string
	Description string
	Color       string
	// HighlightColor fills the bars whose index is true in Highlight.
	HighlightColor string
	Highlight      []bool
	AxisColor      string
	GridColor      string
	Padding        float64
	TickCount      int
	// ShowValues prints each bar's value above it.
	ShowValues bool
}

// Defaults for the dashboard charts.
const (
	DefaultWidth   = 720
	DefaultHeight  = 240
	DefaultPadding = 32.0
	DefaultTicks   = 5
	maxXLabels     = 10
)
