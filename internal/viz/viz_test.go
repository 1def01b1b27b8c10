package viz

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/go-cmp/cmp"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/gillespie"
)

func testSegmentation() *aggregate.Segmentation {
	return &aggregate.Segmentation{
		Species:    []string{"A"},
		Percentile: 90,
		Threshold:  3,
		Width:      1,
		Segments: []aggregate.Segment{
			{Lower: 0, Upper: 1},
			{Lower: 1, Upper: 2, Count: 4, Mean: []float64{1.5, 4}, StdDev: []float64{0.2, 1}},
			{Lower: 2, Upper: 3},
			{Lower: 3, Upper: 3, Count: 2, Mean: []float64{2.5, 2}, StdDev: []float64{0.1, 0.5}},
		},
	}
}

func TestBandSeries(t *testing.T) {
	mean, upper, lower, ok := BandSeries(testSegmentation(), 1)
	if !ok {
		t.Fatal("expected series")
	}
	if diff := cmp.Diff([]float64{4, 4, 4, 2}, mean); diff != "" {
		t.Errorf("mean mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{5, 5, 5, 2.5}, upper); diff != "" {
		t.Errorf("upper mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{3, 3, 3, 1.5}, lower); diff != "" {
		t.Errorf("lower mismatch (-want +got):\n%s", diff)
	}

	_, _, _, ok = BandSeries(&aggregate.Segmentation{Segments: []aggregate.Segment{{}}}, 1)
	if ok {
		t.Error("all-empty segmentation should have no series")
	}
}

func TestBandPlot(t *testing.T) {
	seg := testSegmentation()

	out, err := BandPlot(seg, 1, PlotOptions{Averages: true, Deviations: true, Width: 30, Height: 5})
	if err != nil {
		t.Fatalf("plot failed: %v", err)
	}
	if !strings.Contains(out, "4 segments") {
		t.Errorf("caption missing from plot:\n%s", out)
	}

	if _, err := BandPlot(seg, 1, PlotOptions{}); err == nil {
		t.Error("expected error when nothing is enabled")
	}
	if _, err := BandPlot(seg, 2, PlotOptions{Averages: true}); err == nil {
		t.Error("expected error for out-of-range column")
	}
}

func TestResample(t *testing.T) {
	times := []float64{0, 1, 2.5}
	values := []float64{5, 4, 3}

	got := Resample(times, values, 4, 5)
	want := []float64{5, 4, 4, 3, 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("resample mismatch (-want +got):\n%s", diff)
	}
}

func TestPathsPlot(t *testing.T) {
	times := [][]float64{{0, 1}, {0, 0.5, 2}}
	values := [][]float64{{3, 2}, {3, 2, 1}}
	out, err := PathsPlot("A", times, values, 2, PlotOptions{Width: 20, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "2 sample paths") {
		t.Errorf("unexpected plot:\n%s", out)
	}
	if _, err := PathsPlot("A", nil, nil, 2, PlotOptions{}); err == nil {
		t.Error("expected error without paths")
	}
}

func TestCanvasPlot(t *testing.T) {
	c := NewCanvas(4, 2)
	win := Window{XMax: 1, YMin: 0, YMax: 1}
	c.Plot(win, 0, 0)
	c.Plot(win, 1, 1)
	c.Plot(win, 2, 0) // outside
	if !c.On(0, 7) || !c.On(7, 0) {
		t.Error("corners should be lit")
	}
	if c.Lit() != 2 {
		t.Errorf("expected 2 lit sub-pixels, got %d", c.Lit())
	}
	if lines := strings.Split(c.String(), "\n"); len(lines) != 2 {
		t.Errorf("expected 2 rows, got %d", len(lines))
	}
	c.Clear()
	if c.Lit() != 0 {
		t.Error("clear should reset every cell")
	}
}

func TestCanvasLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0)
	if c.Lit() != 8 {
		t.Errorf("horizontal line: expected 8 dots, got %d", c.Lit())
	}
	c.Clear()
	c.Line(Window{XMax: 1, YMin: 0, YMax: 1}, 0, -5, 1, 5)
	if !c.On(0, 3) || !c.On(7, 0) {
		t.Error("line should be clamped into the window")
	}
}

func TestScatterPlot(t *testing.T) {
	out := ScatterPlot("A", []float64{0, 1, 2}, []float64{5, 4, 3}, 2, []float64{5, 3}, PlotOptions{Width: 10, Height: 3})
	if !strings.Contains(out, "3 points") {
		t.Errorf("unexpected scatter:\n%s", out)
	}
}

func TestHistogramView(t *testing.T) {
	h := aggregate.NewHistogram([]float64{0, 0, 1, 2, 2, 2}, 3)
	out := HistogramView("A", h, 12)
	if !strings.Contains(out, "n=6") {
		t.Errorf("missing total:\n%s", out)
	}
	if !strings.Contains(out, strings.Repeat("█", 12)) {
		t.Errorf("fullest bin should span the width:\n%s", out)
	}
}

func TestProgressModel(t *testing.T) {
	cancelled := false
	var m tea.Model = NewProgressModel("decay", 3, func() { cancelled = true })

	for i := 0; i < 2; i++ {
		m, _ = m.Update(TrajectoryMsg{Run: i, Events: 5, Stop: gillespie.StoppedNoReaction})
	}
	if got := m.(ProgressModel).Done(); got != 2 {
		t.Errorf("done = %d, want 2", got)
	}
	if !strings.Contains(m.View(), "2/3") {
		t.Errorf("view should show progress:\n%s", m.View())
	}

	m, cmd := m.Update(DoneMsg{Err: errors.New("boom")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("done should quit the program")
	}
	if !strings.Contains(m.View(), "boom") {
		t.Error("view should show the error")
	}

	_, cmd = NewProgressModel("x", 1, func() { cancelled = true }).Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil || !cancelled {
		t.Error("ctrl+c should cancel and quit")
	}
}

type recordingSender struct{ msgs []tea.Msg }

func (r *recordingSender) Send(msg tea.Msg) { r.msgs = append(r.msgs, msg) }

func TestProgressObserver(t *testing.T) {
	s := &recordingSender{}
	tr := gillespie.NewTrajectory(1, 4)
	tr.Append(0, gillespie.Counts{2})
	tr.Append(0.5, gillespie.Counts{1})
	tr.Stop = gillespie.StoppedFinalTime

	NewProgressObserver(s).OnTrajectory(7, tr)
	want := TrajectoryMsg{Run: 7, Events: 1, Stop: gillespie.StoppedFinalTime}
	if len(s.msgs) != 1 || s.msgs[0] != want {
		t.Errorf("unexpected messages %v", s.msgs)
	}
}

func TestSetTheme(t *testing.T) {
	defer SetTheme("cyberpunk")
	SetTheme("retro")
	if CurrentTheme.Name != "retro" {
		t.Errorf("theme = %s", CurrentTheme.Name)
	}
	SetTheme("unknown")
	if CurrentTheme.Name != "cyberpunk" {
		t.Error("unknown theme should fall back to cyberpunk")
	}
}
