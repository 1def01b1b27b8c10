package experiment

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/san-kum/ssasim/internal/gillespie"
	"github.com/san-kum/ssasim/internal/logging"
)

// Progress logs each finished trajectory at debug level and every tenth of
// the ensemble at info level.
type Progress struct {
	logger *slog.Logger
	total  int
	step   int64
	done   atomic.Int64
}

func NewProgress(logger *slog.Logger, total int) *Progress {
	step := int64(total / 10)
	if step < 1 {
		step = 1
	}
	return &Progress{logger: logger, total: total, step: step}
}

func (p *Progress) OnTrajectory(run int, tr *gillespie.Trajectory) {
	done := p.done.Add(1)
	p.logger.Debug("run completed",
		"run", run,
		"done", done,
		"total", p.total,
		"events", tr.Len()-1,
		"stop", tr.Stop.String())
	if p.logger.Enabled(context.Background(), logging.LevelTrace) {
		t, x, _ := tr.Last()
		p.logger.Log(context.Background(), logging.LevelTrace, "end state", "run", run, "time", t, "counts", []float64(x))
	}
	if done%p.step == 0 || done == int64(p.total) {
		p.logger.Info("progress", "done", done, "total", p.total)
	}
}

func (p *Progress) Done() int { return int(p.done.Load()) }
