package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/ssasim/internal/aggregate"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// WriteSegmentsCSV writes one row per segment. Empty segments leave their
// mean and std columns blank.
func WriteSegmentsCSV(w io.Writer, seg *aggregate.Segmentation) error {
	cw := csv.NewWriter(w)

	header := []string{"segment", "lower", "upper", "count", "mean_time"}
	for _, name := range seg.Species {
		header = append(header, "mean_"+name)
	}
	header = append(header, "std_time")
	for _, name := range seg.Species {
		header = append(header, "std_"+name)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	width := len(seg.Species) + 1
	for i, s := range seg.Segments {
		row := []string{
			strconv.Itoa(i),
			formatFloat(s.Lower),
			formatFloat(s.Upper),
			strconv.Itoa(s.Count),
		}
		for _, vals := range [][]float64{s.Mean, s.StdDev} {
			for k := 0; k < width; k++ {
				if s.Empty() {
					row = append(row, "")
				} else {
					row = append(row, formatFloat(vals[k]))
				}
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func readSegmentsCSV(r io.Reader, species int) ([]aggregate.Segment, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	width := species + 1
	segs := make([]aggregate.Segment, 0, len(records))
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != 4+2*width {
			return nil, fmt.Errorf("segments row %d: expected %d fields, got %d", i, 4+2*width, len(rec))
		}
		bounds, err := parseFloats(rec[1:3])
		if err != nil {
			return nil, fmt.Errorf("segments row %d: %w", i, err)
		}
		count, err := strconv.Atoi(rec[3])
		if err != nil {
			return nil, fmt.Errorf("segments row %d: %w", i, err)
		}
		s := aggregate.Segment{Lower: bounds[0], Upper: bounds[1], Count: count}
		if count > 0 {
			if s.Mean, err = parseFloats(rec[4 : 4+width]); err != nil {
				return nil, fmt.Errorf("segments row %d: %w", i, err)
			}
			if s.StdDev, err = parseFloats(rec[4+width:]); err != nil {
				return nil, fmt.Errorf("segments row %d: %w", i, err)
			}
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// WriteEndStatesCSV writes one row per run: run, time and the species counts.
func WriteEndStatesCSV(w io.Writer, end *aggregate.EndStateSample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"run", "time"}, end.Species...)); err != nil {
		return err
	}
	for r := 0; r < end.Runs(); r++ {
		row := []string{strconv.Itoa(r), formatFloat(end.Time[r])}
		for j := range end.Species {
			row = append(row, formatFloat(end.Counts[j][r]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readEndStatesCSV(r io.Reader, species []string) (*aggregate.EndStateSample, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	end := &aggregate.EndStateSample{Species: species, Counts: make([][]float64, len(species))}
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != 2+len(species) {
			return nil, fmt.Errorf("end states row %d: expected %d fields, got %d", i, 2+len(species), len(rec))
		}
		vals, err := parseFloats(rec[1:])
		if err != nil {
			return nil, fmt.Errorf("end states row %d: %w", i, err)
		}
		end.Time = append(end.Time, vals[0])
		for j := range species {
			end.Counts[j] = append(end.Counts[j], vals[j+1])
		}
	}
	return end, nil
}

// WritePathsCSV writes the sample paths in long form, one snapshot per row.
func WritePathsCSV(w io.Writer, species []string, paths []Path) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"run", "time"}, species...)); err != nil {
		return err
	}
	for _, p := range paths {
		for i, t := range p.Times {
			row := []string{strconv.Itoa(p.Run), formatFloat(t)}
			for _, v := range p.Counts[i] {
				row = append(row, formatFloat(v))
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func readPathsCSV(r io.Reader, species int) ([]Path, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, err
	}
	var paths []Path
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != 2+species {
			return nil, fmt.Errorf("paths row %d: expected %d fields, got %d", i, 2+species, len(rec))
		}
		run, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("paths row %d: %w", i, err)
		}
		vals, err := parseFloats(rec[1:])
		if err != nil {
			return nil, fmt.Errorf("paths row %d: %w", i, err)
		}
		if len(paths) == 0 || paths[len(paths)-1].Run != run {
			paths = append(paths, Path{Run: run})
		}
		p := &paths[len(paths)-1]
		p.Times = append(p.Times, vals[0])
		p.Counts = append(p.Counts, vals[1:])
	}
	return paths, nil
}
