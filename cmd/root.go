package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pksim/pksim/pk"
)

var (
	// CLI flags shared across subcommands
	logLevel      string  // Log verbosity level
	compoundsPath string  // YAML compound parameter table (empty = built-in table)
	schedulePath  string  // YAML dose schedule
	samplesPath   string  // YAML observed lab samples
	days          float64 // Simulation window length in days
	stepDays      float64 // Query grid spacing in days
	weightKg      float64 // Body weight in kg
	calFactor     float64 // Persisted calibration factor
	outPath       string  // CSV output path (empty = stdout)

	// engine model flags
	twoCompartment bool    // Use the two-compartment closed form
	k12            float64 // Central->peripheral transfer rate (per day)
	k21            float64 // Peripheral->central transfer rate (per day)
	baseline       float64 // Endogenous baseline concentration (ng/dL)

	// single-dose peak flags
	compoundName string  // Compound name for single-dose peak
	doseMg       float64 // Dose amount in mg
	routeName    string  // Administration route
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "pksim",
	Short: "Compartment-model concentration simulator and calibrator",
}

func setupLogging() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

func buildEngine() *pk.Engine {
	cfg := pk.DefaultEngineConfig()
	cfg.TwoCompartment = twoCompartment
	cfg.K12 = k12
	cfg.K21 = k21
	cfg.EndogenousBaseline = baseline
	return pk.NewEngine(cfg)
}

// simulateCmd resolves a schedule and writes the predicted curve as CSV
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Simulate blood concentration for a dose schedule",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		table, err := LoadCompoundTable(compoundsPath)
		if err != nil {
			logrus.Fatalf("loading compound table: %v", err)
		}
		sched, err := LoadSchedule(schedulePath, table)
		if err != nil {
			logrus.Fatalf("loading schedule: %v", err)
		}

		events, err := pk.ResolveDoseEvents(sched, sched.StartDays, days)
		if err != nil {
			logrus.Fatalf("resolving dose events: %v", err)
		}
		grid, err := pk.TimeGrid(sched.StartDays, days, stepDays)
		if err != nil {
			logrus.Fatalf("building time grid: %v", err)
		}

		series, err := buildEngine().Simulate(pk.SimulationRequest{
			TimePoints:        grid,
			Events:            events,
			WeightKg:          weightKg,
			CalibrationFactor: calFactor,
		})
		if err != nil {
			logrus.Fatalf("simulation failed: %v", err)
		}
		logrus.Infof("simulated %d points over %d dose events", len(series.Points), len(events))

		if err := WriteSeriesCSV(series, outPath); err != nil {
			logrus.Fatalf("writing series: %v", err)
		}
	},
}

// peakCmd reports peak time and concentration, either for a full schedule's
// timeline or for a single isolated dose of a named compound
var peakCmd = &cobra.Command{
	Use:   "peak",
	Short: "Find peak time and concentration",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		table, err := LoadCompoundTable(compoundsPath)
		if err != nil {
			logrus.Fatalf("loading compound table: %v", err)
		}
		engine := buildEngine()

		var peak pk.PeakResult
		if schedulePath != "" {
			sched, err := LoadSchedule(schedulePath, table)
			if err != nil {
				logrus.Fatalf("loading schedule: %v", err)
			}
			events, err := pk.ResolveDoseEvents(sched, sched.StartDays, days)
			if err != nil {
				logrus.Fatalf("resolving dose events: %v", err)
			}
			peak, err = engine.TimelinePeak(events, sched.StartDays, days, weightKg, calFactor)
			if err != nil {
				logrus.Fatalf("timeline peak search failed: %v", err)
			}
		} else {
			compound, err := table.Lookup(compoundName)
			if err != nil {
				logrus.Fatalf("unknown compound: %v", err)
			}
			peak, err = engine.SingleDosePeak(compound, doseMg, pk.Route(routeName), weightKg, calFactor)
			if err != nil {
				logrus.Fatalf("peak computation failed: %v", err)
			}
		}
		fmt.Printf("peak %.1f ng/dL at day %.2f\n", peak.Concentration, peak.TimeDays)
	},
}

// calibrateCmd fits the model against observed samples
var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Calibrate model parameters against observed samples",
	Run: func(cmd *cobra.Command, args []string) {
		setupLogging()

		table, err := LoadCompoundTable(compoundsPath)
		if err != nil {
			logrus.Fatalf("loading compound table: %v", err)
		}
		sched, err := LoadSchedule(schedulePath, table)
		if err != nil {
			logrus.Fatalf("loading schedule: %v", err)
		}
		samples, err := LoadSamples(samplesPath)
		if err != nil {
			logrus.Fatalf("loading samples: %v", err)
		}

		result, err := buildEngine().CalibrateIterative(samples, sched, weightKg, calFactor)
		if err != nil {
			logrus.Fatalf("calibration failed: %v", err)
		}

		fmt.Printf("method:       %s\n", result.Method)
		fmt.Printf("samples used: %d\n", result.SamplesUsed)
		if result.Method == pk.MethodIterative {
			fmt.Printf("ka:           %.4f -> %.4f /day\n", result.OriginalKaPerDay, result.AdjustedKaPerDay)
			fmt.Printf("ke:           %.4f -> %.4f /day\n", result.OriginalKePerDay, result.AdjustedKePerDay)
			fmt.Printf("half-life:    %.2f days (%+.1f%%)\n", result.AdjustedHalfLifeDays, result.HalfLifeChangePct)
			fmt.Printf("correlation:  %.3f\n", result.Correlation)
		}
		fmt.Printf("factor:       %.3f\n", result.CalibrationFactor)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	rootCmd.PersistentFlags().StringVar(&compoundsPath, "compounds", "", "YAML compound parameter table (default: built-in table)")
	rootCmd.PersistentFlags().Float64Var(&weightKg, "weight", pk.ReferenceWeightKg, "Body weight in kg")
	rootCmd.PersistentFlags().Float64Var(&calFactor, "calibration", 1.0, "Calibration factor in [0.1, 10.0]")
	rootCmd.PersistentFlags().BoolVar(&twoCompartment, "two-compartment", false, "Use the two-compartment model")
	rootCmd.PersistentFlags().Float64Var(&k12, "k12", 0.3, "Central->peripheral transfer rate (per day)")
	rootCmd.PersistentFlags().Float64Var(&k21, "k21", 0.15, "Peripheral->central transfer rate (per day)")
	rootCmd.PersistentFlags().Float64Var(&baseline, "baseline", 0, "Endogenous baseline concentration (ng/dL)")

	simulateCmd.Flags().StringVar(&schedulePath, "schedule", "", "YAML dose schedule")
	simulateCmd.Flags().Float64Var(&days, "days", 84, "Simulation window length in days")
	simulateCmd.Flags().Float64Var(&stepDays, "step", 0.25, "Query grid spacing in days")
	simulateCmd.Flags().StringVar(&outPath, "out", "", "CSV output path (default: stdout)")

	peakCmd.Flags().StringVar(&schedulePath, "schedule", "", "YAML dose schedule (timeline peak)")
	peakCmd.Flags().Float64Var(&days, "days", 84, "Search window length in days")
	peakCmd.Flags().StringVar(&compoundName, "compound", "", "Compound name (single-dose peak)")
	peakCmd.Flags().Float64Var(&doseMg, "dose", 250, "Dose amount in mg (single-dose peak)")
	peakCmd.Flags().StringVar(&routeName, "route", string(pk.DefaultRoute), "Administration route")

	calibrateCmd.Flags().StringVar(&schedulePath, "schedule", "", "YAML dose schedule")
	calibrateCmd.Flags().StringVar(&samplesPath, "samples", "", "YAML observed samples")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(peakCmd)
	rootCmd.AddCommand(calibrateCmd)
}
