package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/ssasim/internal/aggregate"
)

// HistogramView renders one horizontal bar per bin, scaled so the fullest
// bin spans width cells.
func HistogramView(title string, h aggregate.Histogram, width int) string {
	if width <= 0 {
		width = 40
	}
	peak := 0
	for _, c := range h.Counts {
		peak = max(peak, c)
	}

	var b strings.Builder
	b.WriteString(Title.Render(fmt.Sprintf("%s  (n=%d)", title, h.Total())) + "\n")
	for i, c := range h.Counts {
		n := 0
		if peak > 0 {
			n = c * width / peak
		}
		label := fmt.Sprintf("[%9.4g, %9.4g)", h.Edges[i], h.Edges[i+1])
		if i == len(h.Counts)-1 {
			label = fmt.Sprintf("[%9.4g, %9.4g]", h.Edges[i], h.Edges[i+1])
		}
		bar := strings.Repeat("█", n)
		b.WriteString(Subtle.Render(label) + " │" + barHigh.Render(bar) + " " + fmt.Sprint(c) + "\n")
	}
	return b.String()
}
