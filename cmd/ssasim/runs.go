package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/ssasim/internal/aggregate"
	"github.com/san-kum/ssasim/internal/config"
	"github.com/san-kum/ssasim/internal/export"
	"github.com/san-kum/ssasim/internal/storage"
	"github.com/san-kum/ssasim/internal/viz"
)

func loadRecord(cmd *cobra.Command, runID string) (*storage.Record, error) {
	st, err := openReadStore(cmd)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.Load(cmd.Context(), runID)
}

// output returns stdout or the --output file and its closer.
func output(cmd *cobra.Command) (io.Writer, func() error, error) {
	if outputFile == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openReadStore(cmd)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tRUNS\tMAX EVENTS\tFINAL TIME\tSEED\tTHRESHOLD")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%g\t%d\t%.4g\n",
			run.ID,
			run.Name,
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Runs,
			run.MaxEvents,
			run.FinalTime,
			run.Seed,
			run.Threshold,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(cmd, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	meta := rec.Meta

	fmt.Fprintln(out, viz.Title.Render(meta.ID))
	fmt.Fprintln(out, viz.MetricRow("name", meta.Name))
	fmt.Fprintln(out, viz.MetricRow("time", meta.Timestamp.Local().Format("2006-01-02 15:04:05")))
	fmt.Fprintln(out, viz.MetricRow("species", fmt.Sprint(meta.Species)))
	fmt.Fprintln(out, viz.MetricRow("runs", meta.Runs))
	fmt.Fprintln(out, viz.MetricRow("max events", meta.MaxEvents))
	fmt.Fprintln(out, viz.MetricRow("final time", meta.FinalTime))
	fmt.Fprintln(out, viz.MetricRow("seed", meta.Seed))
	fmt.Fprintln(out, viz.MetricRow("percentile", meta.Percentile))
	fmt.Fprintln(out, viz.MetricRow("threshold time", meta.Threshold))
	fmt.Fprintln(out, viz.MetricRow("segment width", meta.Width))
	printMetrics(out, meta.Metrics)

	if rec.Segments == nil {
		return nil
	}
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprint(w, "SEG\tLOWER\tUPPER\tCOUNT\tMEAN T\t")
	for _, name := range meta.Species {
		fmt.Fprintf(w, "MEAN %s\tSTD %s\t", name, name)
	}
	fmt.Fprintln(w)
	for i, s := range rec.Segments.Segments {
		fmt.Fprintf(w, "%d\t%.4g\t%.4g\t%d\t", i, s.Lower, s.Upper, s.Count)
		if s.Empty() {
			fmt.Fprint(w, "-\t")
			for range meta.Species {
				fmt.Fprint(w, "-\t-\t")
			}
		} else {
			fmt.Fprintf(w, "%.4g\t", s.Mean[0])
			for j := range meta.Species {
				fmt.Fprintf(w, "%.4g\t%.4g\t", s.Mean[j+1], s.StdDev[j+1])
			}
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(cmd, args[0])
	if err != nil {
		return err
	}
	plot := config.DefaultConfig().Plot
	applyPlotFlags(cmd, &plot)
	if plot.Scatter {
		fmt.Fprintln(cmd.ErrOrStderr(), viz.Subtle.Render("scatter needs the full ensemble; only available from run"))
	}
	return render(cmd.OutOrStdout(), rec.Meta.ID, recordView(rec), plot, func(int) int { return config.DefaultBins })
}

func histRun(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(cmd, args[0])
	if err != nil {
		return err
	}
	if rec.EndStates == nil {
		return fmt.Errorf("run %s has no end states", args[0])
	}
	cols, err := selectSpecies(rec.Meta.Species, species)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, j := range cols {
		h := aggregate.NewHistogram(rec.EndStates.Counts[j], bins)
		fmt.Fprintln(out, viz.HistogramView(rec.Meta.Species[j]+" end states", h, 40))
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(cmd, args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output(cmd)
	if err != nil {
		return err
	}

	switch section {
	case "segments":
		if rec.Segments == nil {
			err = fmt.Errorf("run %s has no segments", args[0])
		} else {
			err = storage.WriteSegmentsCSV(w, rec.Segments)
		}
	case "endstates":
		if rec.EndStates == nil {
			err = fmt.Errorf("run %s has no end states", args[0])
		} else {
			err = storage.WriteEndStatesCSV(w, rec.EndStates)
		}
	case "paths":
		err = storage.WritePathsCSV(w, rec.Meta.Species, rec.Paths)
	default:
		err = fmt.Errorf("unknown section %q (segments, endstates, paths)", section)
	}
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	if err == nil && outputFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", outputFile)
	}
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(cmd, args[0])
	if err != nil {
		return err
	}
	w, closeFn, err := output(cmd)
	if err != nil {
		return err
	}
	err = storage.ExportJSON(w, rec)
	if cerr := closeFn(); err == nil {
		err = cerr
	}
	if err == nil && outputFile != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "exported to %s\n", outputFile)
	}
	return err
}

func svgRun(cmd *cobra.Command, args []string) error {
	rec, err := loadRecord(cmd, args[0])
	if err != nil {
		return err
	}
	if rec.Segments == nil {
		return fmt.Errorf("run %s has no segments", args[0])
	}
	svg, err := export.BandsSVG(rec.Segments, 800, 500, deviations)
	if err != nil {
		return err
	}
	path := outputFile
	if path == "" {
		path = rec.Meta.ID + ".svg"
	}
	if err := export.WriteFile(path, svg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", path)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSPECIES\tREACTIONS\tFINAL TIME\tMAX EVENTS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%v\t%d\t%g\t%d\n", name, p.Species, len(p.RateConstants), p.FinalTime, p.MaxEvents)
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(initPreset)
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", initPreset, config.ListPresets())
	}
	if _, err := os.Stat(args[0]); err == nil {
		return fmt.Errorf("%s already exists", args[0])
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", args[0], initPreset)
	return nil
}
