package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/ssasim/internal/automation"
	"github.com/san-kum/ssasim/internal/experiment"
	"github.com/san-kum/ssasim/internal/logging"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := logging.New(logLevel, cmd.ErrOrStderr())
	storeCfg, err := storageConfig(cmd)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, storeCfg)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	results, err := automation.NewRunner(logger, experiment.WithStore(st)).RunScenario(ctx, sc)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tSEED\tTHRESHOLD\tMEAN EVENTS\tELAPSED")
	for i, res := range results {
		fmt.Fprintf(w, "%d\t%s\t%d\t%.4g\t%.4g\t%s\n",
			i+1, res.RunID, res.Seed, res.Segments.Threshold, res.Metrics["mean_events"], res.Elapsed)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	logger := logging.New(cfg.LogLevel, cmd.ErrOrStderr())
	st, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	sweep := &automation.ParameterSweep{
		Base:     cfg,
		Reaction: sweepReaction,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
	}
	results, err := automation.NewRunner(logger, experiment.WithStore(st)).RunSweep(ctx, sweep)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprint(w, "RATE\tMEAN EVENTS\tABSORBED\t")
	for _, name := range cfg.Species {
		fmt.Fprintf(w, "END %s\t±\t", name)
	}
	fmt.Fprintln(w, "RUN ID")
	for _, r := range results {
		fmt.Fprintf(w, "%.4g\t%.4g\t%.3f\t", r.Rate, r.Metrics["mean_events"], r.Metrics["absorbed_fraction"])
		for j := range r.EndMean {
			fmt.Fprintf(w, "%.4g\t%.4g\t", r.EndMean[j], r.EndStd[j])
		}
		fmt.Fprintln(w, r.RunID)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}
