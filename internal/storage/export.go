package storage

import (
	"encoding/json"
	"io"
)

type ExportSegment struct {
	Lower  float64   `json:"lower"`
	Upper  float64   `json:"upper"`
	Count  int       `json:"count"`
	Mean   []float64 `json:"mean,omitempty"`
	StdDev []float64 `json:"std,omitempty"`
}

type ExportEndState struct {
	Run    int       `json:"run"`
	Time   float64   `json:"time"`
	Counts []float64 `json:"counts"`
}

// ExportData is the JSON document written by ExportJSON.
type ExportData struct {
	Metadata  RunMetadata      `json:"metadata"`
	Columns   []string         `json:"columns"`
	Segments  []ExportSegment  `json:"segments"`
	EndStates []ExportEndState `json:"end_states"`
	Paths     []Path           `json:"paths,omitempty"`
}

func NewExportData(rec *Record) ExportData {
	data := ExportData{
		Metadata:  rec.Meta,
		Columns:   append([]string{"time"}, rec.Meta.Species...),
		Segments:  []ExportSegment{},
		EndStates: []ExportEndState{},
		Paths:     rec.Paths,
	}
	if rec.Segments != nil {
		for _, s := range rec.Segments.Segments {
			data.Segments = append(data.Segments, ExportSegment{
				Lower: s.Lower, Upper: s.Upper, Count: s.Count, Mean: s.Mean, StdDev: s.StdDev,
			})
		}
	}
	if end := rec.EndStates; end != nil {
		for r := 0; r < end.Runs(); r++ {
			counts := make([]float64, len(end.Species))
			for j := range counts {
				counts[j] = end.Counts[j][r]
			}
			data.EndStates = append(data.EndStates, ExportEndState{Run: r, Time: end.Time[r], Counts: counts})
		}
	}
	return data
}

func ExportJSON(w io.Writer, rec *Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewExportData(rec))
}
