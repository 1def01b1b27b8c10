package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/ssasim/internal/gillespie"
	"github.com/san-kum/ssasim/internal/viz"
)

var (
	dataDir  string
	backend  string
	dsn      string
	logLevel string
	theme    string

	configFile string
	preset     string
	initPreset string

	runs       int
	maxEvents  int
	finalTime  float64
	seed       int64
	workers    int
	segments   int
	percentile float64

	averages   bool
	deviations bool
	scatter    bool
	histogram  bool
	lines      int
	save       bool
	saveDir    string

	useTUI      bool
	metricsAddr string

	bins       int
	species    string
	outputFile string
	section    string

	sweepReaction int
	sweepMin      float64
	sweepMax      float64
	sweepSteps    int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		printErr(rootCmd, err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps configuration problems to 2 and everything else to 1.
func exitCode(err error) int {
	if errors.Is(err, gillespie.ErrConfiguration) || errors.Is(err, gillespie.ErrInvalidParameter) {
		return 2
	}
	return 1
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "ssasim",
		Short:         "stochastic simulation of chemical reaction networks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			viz.SetTheme(theme)
		},
	}
	rootCmd.SetErr(os.Stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", ".ssasim", "data directory")
	pf.StringVar(&backend, "backend", "fs", "storage backend (fs, sqlite, postgres, none)")
	pf.StringVar(&dsn, "dsn", "", "database path or connection string")
	pf.StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	pf.StringVar(&theme, "theme", "cyberpunk", "color theme")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate an ensemble",
		Args:  cobra.NoArgs,
		RunE:  runEnsemble,
	}
	addNetworkFlags(runCmd)
	addPlotFlags(runCmd)
	runCmd.Flags().BoolVar(&useTUI, "tui", false, "show a live progress view")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show run metadata, metrics and segments",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	addPlotFlags(plotCmd)
	plotCmd.Flags().StringVar(&species, "species", "", "only plot this species")

	histCmd := &cobra.Command{
		Use:   "hist [run_id]",
		Short: "end-state histograms",
		Args:  cobra.ExactArgs(1),
		RunE:  histRun,
	}
	histCmd.Flags().IntVar(&bins, "bins", 20, "number of bins")
	histCmd.Flags().StringVar(&species, "species", "", "only this species")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&section, "what", "segments", "segments, endstates or paths")
	exportCSVCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render mean and deviation bands as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	svgCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().BoolVar(&deviations, "deviations", true, "draw standard deviation bands")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in networks",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	initCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	}
	initCmd.Flags().StringVar(&initPreset, "preset", "decay", "preset to start from")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a batch of ensembles from a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one rate constant",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addNetworkFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&sweepReaction, "reaction", 0, "index of the rate constant to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0.1, "lowest rate")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.0, "highest rate")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of sweep points")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, histCmd, exportCSVCmd, exportJSONCmd, svgCmd, presetsCmd, initCmd, scenarioCmd, sweepCmd)
	return rootCmd
}

func addNetworkFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use a built-in network")
	f.IntVar(&runs, "runs", 1000, "number of trajectories")
	f.IntVar(&maxEvents, "max-events", 100, "snapshots per trajectory, including the initial one")
	f.Float64Var(&finalTime, "final-time", 1000, "simulated time horizon")
	f.Int64Var(&seed, "seed", -1, "random seed (-1 picks one)")
	f.IntVar(&workers, "workers", 0, "parallel workers (0 uses all CPUs)")
	f.IntVar(&segments, "segments", 100, "number of time segments")
	f.Float64Var(&percentile, "percentile", 90, "pooled-time percentile that truncates the segments")
}

func addPlotFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.BoolVar(&averages, "averages", true, "plot segment averages")
	f.BoolVar(&deviations, "deviations", true, "plot standard deviation bands")
	f.BoolVar(&scatter, "scatter", false, "scatter pooled snapshots")
	f.BoolVar(&histogram, "histogram", true, "show end-state histograms")
	f.IntVar(&lines, "lines", 5, "raw sample paths to plot (-1 for all)")
	f.BoolVar(&save, "save", false, "save the band plot as SVG")
	f.StringVar(&saveDir, "save-dir", ".", "directory for saved images")
}

func printErr(cmd *cobra.Command, err error) {
	fmt.Fprintln(cmd.ErrOrStderr(), viz.ErrorText.Render("error: ")+err.Error())
}
