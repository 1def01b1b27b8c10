package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/viz"
)

func bands() *aggregate.Segmentation {
	return &aggregate.Segmentation{
		Species:   []string{"A", "B<1>"},
		Threshold: 2,
		Width:     1,
		Segments: []aggregate.Segment{
			{Lower: 0, Upper: 1, Count: 3, Mean: []float64{0.4, 5, 1}, StdDev: []float64{0.1, 1, 0.5}},
			{Lower: 1, Upper: 2, Count: 2, Mean: []float64{1.5, 3, 2}, StdDev: []float64{0.2, 0.5, 0.5}},
		},
	}
}

func TestBandsSVG(t *testing.T) {
	svg, err := BandsSVG(bands(), 400, 300, true)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Error("not a complete svg document")
	}
	if n := strings.Count(svg, "<polygon"); n != 2 {
		t.Errorf("expected 2 deviation bands, got %d", n)
	}
	if n := strings.Count(svg, "<path"); n != 2 {
		t.Errorf("expected 2 mean lines, got %d", n)
	}
	if !strings.Contains(svg, "B&lt;1&gt;") {
		t.Error("species names should be escaped")
	}

	svg, err = BandsSVG(bands(), 400, 300, false)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(svg, "<polygon") {
		t.Error("bands should be omitted without deviations")
	}
}

func TestBandsSVG_Errors(t *testing.T) {
	if _, err := BandsSVG(bands(), 50, 50, true); err == nil {
		t.Error("expected error for tiny canvas")
	}
	empty := &aggregate.Segmentation{Species: []string{"A"}, Threshold: 1, Segments: []aggregate.Segment{{Lower: 0, Upper: 1}}}
	if _, err := BandsSVG(empty, 400, 300, true); err == nil {
		t.Error("expected error when every segment is empty")
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2, "#00ff00")
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if CanvasToSVG(nil, 1, "#fff") != "" {
		t.Error("nil canvas should render nothing")
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bands.svg")
	if err := WriteFile(path, "<svg/>"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("unexpected file contents %q (%v)", data, err)
	}
}
