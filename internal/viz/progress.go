package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/ssasim/internal/gillespie"
)

const sparkWidth = 40

// TrajectoryMsg reports one finished trajectory.
type TrajectoryMsg struct {
	Run    int
	Events int
	Stop   gillespie.StopReason
}

// DoneMsg ends the view once the ensemble returns.
type DoneMsg struct {
	Err error
}

type tickMsg time.Time

// ProgressModel shows a running ensemble: completion, stop reasons and a
// sparkline of events per trajectory.
type ProgressModel struct {
	name     string
	total    int
	done     int
	stops    map[gillespie.StopReason]int
	events   []float64
	start    time.Time
	now      time.Time
	err      error
	finished bool
	cancel   context.CancelFunc
}

// NewProgressModel builds the view; cancel is called when the user quits
// early.
func NewProgressModel(name string, total int, cancel context.CancelFunc) ProgressModel {
	now := time.Now()
	return ProgressModel{
		name:   name,
		total:  total,
		stops:  make(map[gillespie.StopReason]int),
		events: make([]float64, 0, sparkWidth),
		start:  now,
		now:    now,
		cancel: cancel,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m ProgressModel) Init() tea.Cmd { return tick() }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case TrajectoryMsg:
		m.done++
		m.stops[msg.Stop]++
		m.events = append(m.events, float64(msg.Events))
		if len(m.events) > sparkWidth {
			m.events = m.events[1:]
		}
	case DoneMsg:
		m.err = msg.Err
		m.finished = true
		m.now = time.Now()
		return m, tea.Quit
	case tickMsg:
		if m.finished {
			return m, nil
		}
		m.now = time.Time(msg)
		return m, tick()
	}
	return m, nil
}

func (m ProgressModel) View() string {
	var s strings.Builder
	s.WriteString(Title.Render(strings.ToUpper(m.name)) + "\n\n")

	frac := 0.0
	if m.total > 0 {
		frac = float64(m.done) / float64(m.total)
	}
	s.WriteString(ProgressBar(frac, 40) + fmt.Sprintf(" %d/%d\n\n", m.done, m.total))

	s.WriteString(MetricRow("elapsed", m.now.Sub(m.start).Round(time.Millisecond)) + "\n")
	s.WriteString(MetricLabel.Render("final time") + StopFinalTime.Render(fmt.Sprint(m.stops[gillespie.StoppedFinalTime])) + "\n")
	s.WriteString(MetricLabel.Render("no reaction") + StopNoReaction.Render(fmt.Sprint(m.stops[gillespie.StoppedNoReaction])) + "\n")
	s.WriteString(MetricLabel.Render("max events") + StopMaxEvents.Render(fmt.Sprint(m.stops[gillespie.StoppedMaxEvents])) + "\n")
	s.WriteString(MetricLabel.Render("events/run") + Sparkline(m.events, sparkWidth) + "\n")

	switch {
	case m.err != nil:
		s.WriteString("\n" + ErrorText.Render("error: "+m.err.Error()) + "\n")
	case m.finished:
		s.WriteString("\n" + Subtle.Render("done") + "\n")
	default:
		s.WriteString("\n" + Subtle.Render("q: cancel") + "\n")
	}
	return Panel.Render(s.String())
}

func (m ProgressModel) Done() int { return m.done }

// Sender is the part of *tea.Program the observer needs.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgressObserver forwards finished trajectories to a running program.
type ProgressObserver struct {
	p Sender
}

func NewProgressObserver(p Sender) *ProgressObserver {
	return &ProgressObserver{p: p}
}

func (o *ProgressObserver) OnTrajectory(run int, tr *gillespie.Trajectory) {
	o.p.Send(TrajectoryMsg{Run: run, Events: tr.Len() - 1, Stop: tr.Stop})
}
