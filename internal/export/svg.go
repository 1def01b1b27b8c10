package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/viz"
)

const margin = 40

var palette = []string{"#ff00ff", "#00ccff", "#ffcc00", "#00ff88", "#ff4444", "#8888ff"}

// CanvasToSVG draws every lit canvas dot as a circle, scale pixels apart.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}
	dw, dh := canvas.Dots()
	width, height := float64(dw)*scale, float64(dh)*scale

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="%s">
`, width, height, width, height, color)
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if canvas.On(x, y) {
				fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
					(float64(x)+0.5)*scale, (float64(y)+0.5)*scale, scale*0.4)
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

type frame struct {
	width, height int
	xmax          float64
	ymin, ymax    float64
}

func (f frame) x(t float64) float64 {
	return margin + t/f.xmax*float64(f.width-2*margin)
}

func (f frame) y(v float64) float64 {
	return float64(f.height-margin) - (v-f.ymin)/(f.ymax-f.ymin)*float64(f.height-2*margin)
}

// BandsSVG draws, for every species, the segment means as a line and the
// ±1 standard deviation band as a shaded polygon. Points sit at the mean
// snapshot time of each non-empty segment.
func BandsSVG(seg *aggregate.Segmentation, width, height int, deviations bool) (string, error) {
	if width <= 2*margin || height <= 2*margin {
		return "", fmt.Errorf("svg size %dx%d is too small", width, height)
	}
	if len(seg.Species) == 0 {
		return "", fmt.Errorf("no species to draw")
	}

	f := frame{width: width, height: height, xmax: seg.Threshold, ymin: 0, ymax: 0}
	points := 0
	for col := 1; col <= len(seg.Species); col++ {
		_, mean, std := seg.Series(col)
		for i := range mean {
			lo, hi := mean[i], mean[i]
			if deviations {
				lo, hi = mean[i]-std[i], mean[i]+std[i]
			}
			f.ymin = min(f.ymin, lo)
			f.ymax = max(f.ymax, hi)
		}
		points += len(mean)
	}
	if points == 0 {
		return "", fmt.Errorf("no snapshots below the threshold time")
	}
	if f.xmax <= 0 {
		f.xmax = 1
	}
	if f.ymax <= f.ymin {
		f.ymax = f.ymin + 1
	}
	pad := (f.ymax - f.ymin) * 0.05
	f.ymax += pad
	if f.ymin < 0 {
		f.ymin -= pad
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)
	axes(&sb, f)

	for col := 1; col <= len(seg.Species); col++ {
		x, mean, std := seg.Series(col)
		if len(x) == 0 {
			continue
		}
		color := palette[(col-1)%len(palette)]

		if deviations {
			sb.WriteString(`<polygon fill="` + color + `" fill-opacity="0.2" stroke="none" points="`)
			for i := range x {
				fmt.Fprintf(&sb, "%.1f,%.1f ", f.x(x[i]), f.y(mean[i]+std[i]))
			}
			for i := len(x) - 1; i >= 0; i-- {
				fmt.Fprintf(&sb, "%.1f,%.1f ", f.x(x[i]), f.y(mean[i]-std[i]))
			}
			sb.WriteString("\"/>\n")
		}

		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, color)
		for i := range x {
			if i == 0 {
				fmt.Fprintf(&sb, "%.1f,%.1f", f.x(x[i]), f.y(mean[i]))
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", f.x(x[i]), f.y(mean[i]))
			}
		}
		sb.WriteString("\"/>\n")

		fmt.Fprintf(&sb, "<text x=\"%d\" y=\"%d\" fill=\"%s\" font-family=\"monospace\" font-size=\"12\">%s</text>\n",
			width-margin-80, margin+14*col, color, escape(seg.Species[col-1]))
	}

	sb.WriteString("</svg>")
	return sb.String(), nil
}

func axes(sb *strings.Builder, f frame) {
	fmt.Fprintf(sb, "<g stroke=\"#666688\" stroke-width=\"1\">\n<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n<line x1=\"%d\" y1=\"%d\" x2=\"%d\" y2=\"%d\"/>\n</g>\n",
		margin, f.height-margin, f.width-margin, f.height-margin,
		margin, margin, margin, f.height-margin)
	fmt.Fprintf(sb, "<g fill=\"#888899\" font-family=\"monospace\" font-size=\"11\">\n")
	fmt.Fprintf(sb, "<text x=\"%d\" y=\"%d\">0</text>\n", margin, f.height-margin+14)
	fmt.Fprintf(sb, "<text x=\"%d\" y=\"%d\" text-anchor=\"end\">%.4g</text>\n", f.width-margin, f.height-margin+14, f.xmax)
	fmt.Fprintf(sb, "<text x=\"%d\" y=\"%.1f\" text-anchor=\"end\">%.4g</text>\n", margin-4, f.y(f.ymax), f.ymax)
	fmt.Fprintf(sb, "<text x=\"%d\" y=\"%.1f\" text-anchor=\"end\">%.4g</text>\n", margin-4, f.y(f.ymin), f.ymin)
	sb.WriteString("</g>\n")
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

// WriteFile writes an SVG document to path.
func WriteFile(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0644)
}
