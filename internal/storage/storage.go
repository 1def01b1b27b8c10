// Package storage persists the summary of each simulated ensemble: its run
// settings, time-segment statistics, end states and a few raw sample paths.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/gillespie"
)

var ErrNotFound = errors.New("storage: run not found")

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Species    []string           `json:"species"`
	FinalTime  float64            `json:"final_time"`
	MaxEvents  int                `json:"max_events"`
	Runs       int                `json:"runs"`
	Segments   int                `json:"segments"`
	Percentile float64            `json:"percentile"`
	Threshold  float64            `json:"threshold"`
	Width      float64            `json:"width"`
	Pooled     int                `json:"pooled"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Path is one raw sample path; Counts[i] is the snapshot at Times[i].
type Path struct {
	Run    int         `json:"run"`
	Times  []float64   `json:"times"`
	Counts [][]float64 `json:"counts"`
}

type Record struct {
	Meta      RunMetadata
	Segments  *aggregate.Segmentation
	EndStates *aggregate.EndStateSample
	Paths     []Path
}

// Store is implemented by every persistence backend.
type Store interface {
	Save(ctx context.Context, rec *Record) (string, error)
	List(ctx context.Context) ([]RunMetadata, error)
	Load(ctx context.Context, id string) (*Record, error)
	Close() error
}

func NewRunID(name string, ts time.Time) string {
	return fmt.Sprintf("%s_%d", name, ts.UnixNano())
}

// NewRecord fills the metadata that can be read off the aggregates.
func NewRecord(name string, ens *gillespie.Ensemble, seg *aggregate.Segmentation, end *aggregate.EndStateSample, paths []Path) *Record {
	meta := RunMetadata{
		Name:      name,
		Seed:      ens.Params.Seed,
		Species:   append([]string(nil), ens.Species...),
		FinalTime: ens.Params.FinalTime,
		MaxEvents: ens.Params.MaxEvents,
		Runs:      ens.Len(),
		Metrics:   map[string]float64{},
	}
	if seg != nil {
		meta.Segments = len(seg.Segments)
		meta.Percentile = seg.Percentile
		meta.Threshold = seg.Threshold
		meta.Width = seg.Width
		meta.Pooled = seg.Pooled
	}
	return &Record{Meta: meta, Segments: seg, EndStates: end, Paths: paths}
}

// SamplePaths copies the first n trajectories; n < 0 copies all of them.
func SamplePaths(ens *gillespie.Ensemble, n int) []Path {
	if n < 0 || n > ens.Len() {
		n = ens.Len()
	}
	paths := make([]Path, 0, n)
	for r := 0; r < n; r++ {
		tr := ens.Trajectories[r]
		p := Path{Run: r, Times: tr.Times(), Counts: make([][]float64, tr.Len())}
		for i := range p.Counts {
			p.Counts[i] = tr.Counts(i).Clone()
		}
		paths = append(paths, p)
	}
	return paths
}

// prepare stamps a record before it is written.
func prepare(rec *Record) error {
	if rec == nil || rec.Meta.Name == "" {
		return fmt.Errorf("storage: record needs a name")
	}
	if rec.Meta.Timestamp.IsZero() {
		rec.Meta.Timestamp = time.Now().UTC()
	}
	if rec.Meta.ID == "" {
		rec.Meta.ID = NewRunID(rec.Meta.Name, rec.Meta.Timestamp)
	}
	return nil
}

func segmentation(meta RunMetadata, segs []aggregate.Segment) *aggregate.Segmentation {
	return &aggregate.Segmentation{
		Species:    meta.Species,
		Percentile: meta.Percentile,
		Threshold:  meta.Threshold,
		Width:      meta.Width,
		Pooled:     meta.Pooled,
		Segments:   segs,
	}
}

func sortRuns(runs []RunMetadata) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
		return runs[i].ID < runs[j].ID
	})
}
