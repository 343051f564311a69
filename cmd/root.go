package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/inference-sim/queue-sim/sim"
	"github.com/inference-sim/queue-sim/sim/game"
	"github.com/inference-sim/queue-sim/sim/shop"
	"github.com/inference-sim/queue-sim/sim/trace"
)

var (
	// Run control
	ticks       int64  // Number of ticks to simulate
	logLevel    string // Log verbosity level
	realtime    bool   // Pace ticks at the configured frame rate
	resultsPath string // Optional JSON metrics output
	autoShop    bool   // Greedily buy affordable shop items

	// Scenario sources
	defaultsPath string // Path to defaults.yaml
	preset       string // Scenario preset name in defaults.yaml
	configPath   string // Scenario YAML overriding the preset

	// Flag overrides, applied only when set on the command line
	seed             int64
	ticksPerSecond   int
	initialServers   int
	loadBalancer     string
	maxCapacity      int
	transportSpeed   float64
	processingTimeMs int
	intervalSeconds  float64
	maxQueueTime     float64
	gameMode         bool
	traceLevel       string
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "queue-sim",
	Short: "Tick-driven simulator of a generator, transport and multi-server queueing system",
}

// runCmd executes the simulation headless using the resolved scenario
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the queueing simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		if ticks <= 0 {
			logrus.Fatalf("--ticks must be > 0, got %d", ticks)
		}

		cfg, shopOverrides, err := resolveScenario(scenarioSources{
			DefaultsPath: defaultsPath,
			Preset:       preset,
			ConfigPath:   configPath,
		})
		if err != nil {
			logrus.Fatalf("Failed to load scenario: %v", err)
		}
		applyFlagOverrides(cmd, &cfg)
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}
		catalog, err := game.BuildCatalog(shopOverrides)
		if err != nil {
			logrus.Fatalf("Invalid shop configuration: %v", err)
		}

		q := game.NewQueueSimulator(cfg, catalog)
		logrus.Infof("Starting simulation %s: %d ticks at %d ticks/s, %d servers, lb=%s",
			q.SessionID(), ticks, cfg.TicksPerSecond, cfg.InitialServers, cfg.LoadBalancer)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		startTime := time.Now()
		executed := runLoop(ctx, q, ticks, realtime, autoShop)
		logrus.Infof("Simulated %d ticks in %s", executed, time.Since(startTime))

		printReport(os.Stdout, q)
		if resultsPath != "" {
			if err := q.Metrics().SaveResults(resultsPath, q.SessionID(), q.Clock().Now(), cfg.TicksPerSecond); err != nil {
				logrus.Fatalf("Failed to save results: %v", err)
			}
		}
		logrus.Info("Simulation complete.")
	},
}

// applyFlagOverrides copies explicitly set flags onto cfg. Flags left at their
// defaults never override values from the preset or scenario file.
func applyFlagOverrides(cmd *cobra.Command, cfg *sim.SimConfig) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("fps") {
		cfg.TicksPerSecond = ticksPerSecond
	}
	if flags.Changed("servers") {
		cfg.InitialServers = initialServers
	}
	if flags.Changed("lb") {
		cfg.LoadBalancer = loadBalancer
	}
	if flags.Changed("capacity") {
		cfg.MaxCapacity = maxCapacity
	}
	if flags.Changed("speed") {
		cfg.TransportSpeed = transportSpeed
	}
	if flags.Changed("processing-ms") {
		cfg.ProcessingTimeMs = processingTimeMs
	}
	if flags.Changed("interval") {
		cfg.IntervalSeconds = intervalSeconds
	}
	if flags.Changed("max-queue-time") {
		cfg.MaxQueueTimeSeconds = maxQueueTime
	}
	if flags.Changed("game-mode") {
		cfg.GameConfig.Enabled = gameMode
	}
	if flags.Changed("trace") {
		cfg.TraceLevel = traceLevel
	}
}

// runLoop ticks q up to n times. With pace set, ticks are spaced at the
// configured frame rate. Stops early on game over or context cancellation.
func runLoop(ctx context.Context, q *game.QueueSimulator, n int64, pace, buy bool) int64 {
	var limiter *rate.Limiter
	if pace {
		limiter = rate.NewLimiter(rate.Limit(q.Clock().TicksPerSecond()), 1)
	}
	tps := int64(q.Clock().TicksPerSecond())
	var done int64
	for ; done < n && !q.GameOver(); done++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				logrus.Warnf("Stopping early: %v", err)
				break
			}
		} else if ctx.Err() != nil {
			break
		}
		q.Tick()
		if buy && q.Clock().Now()%tps == 0 {
			buyAffordable(q)
		}
	}
	return done
}

// buyAffordable purchases, in catalog order, every item the balance covers.
func buyAffordable(q *game.QueueSimulator) {
	for _, it := range q.Catalog().Items() {
		if it.Available() && it.NextPrice() <= q.Balance() {
			q.Purchase(it.ID)
		}
	}
}

// printReport writes the end-of-run summary.
func printReport(w io.Writer, q *game.QueueSimulator) {
	q.Metrics().Print(w, q.Clock().Now(), q.Clock().TicksPerSecond())
	fmt.Fprintf(w, "Score / Balance      : %d / %d\n", q.Score(), q.Balance())
	if q.Config().GameConfig.Enabled {
		fmt.Fprintf(w, "Health               : %d/%d\n", q.Health(), q.MaxHealth())
		if q.GameOver() {
			fmt.Fprintf(w, "GAME OVER            : final score %d\n", q.Score())
		}
	}
	var bought []string
	for _, it := range q.Catalog().Items() {
		switch {
		case it.Kind == shop.KindServer && it.Purchased:
			bought = append(bought, string(it.ID))
		case it.Kind == shop.KindUpgrade && it.Level > 1:
			bought = append(bought, fmt.Sprintf("%s@%d", it.ID, it.Level))
		}
	}
	if len(bought) > 0 {
		fmt.Fprintf(w, "Shop                 : %v\n", bought)
	}
	if st := q.Trace(); st != nil {
		s := trace.Summarize(st)
		fmt.Fprintln(w, "=== Decision Trace ===")
		fmt.Fprintf(w, "Admissions           : %d admitted, %d rejected\n", s.AdmittedCount, s.RejectedCount)
		fmt.Fprintf(w, "Routing targets      : %v\n", s.TargetDistribution)
		fmt.Fprintf(w, "Timeouts             : %d (mean wait %.2fs) %v\n", s.TimeoutCount, s.MeanTimeoutWait, s.TimeoutsByServer)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().Int64Var(&ticks, "ticks", 3600, "Number of ticks to simulate")
	runCmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().BoolVar(&realtime, "realtime", false, "Pace ticks at the configured frame rate")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "Write metrics JSON to this file")
	runCmd.Flags().BoolVar(&autoShop, "auto-shop", false, "Buy every affordable shop item once per simulated second")

	addScenarioFlags(runCmd)

	// Overrides
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for random game events")
	runCmd.Flags().IntVar(&ticksPerSecond, "fps", sim.DefaultTicksPerSecond, "Ticks per simulated second")
	runCmd.Flags().IntVar(&initialServers, "servers", 3, "Servers attached at start")
	runCmd.Flags().StringVar(&loadBalancer, "lb", "round-robin", fmt.Sprintf("Load balancer %v", sim.LoadBalancerNames()))
	runCmd.Flags().IntVar(&maxCapacity, "capacity", 10, "Maximum processes inside the system")
	runCmd.Flags().Float64Var(&transportSpeed, "speed", 3.0, "Transport distance per tick")
	runCmd.Flags().IntVar(&processingTimeMs, "processing-ms", 2000, "Processing time per process (ms)")
	runCmd.Flags().Float64Var(&intervalSeconds, "interval", 1.0, "Seconds between generated processes")
	runCmd.Flags().Float64Var(&maxQueueTime, "max-queue-time", 5.0, "Seconds a process may wait in a server queue")
	runCmd.Flags().BoolVar(&gameMode, "game-mode", false, "Enable health, random events and game over")
	runCmd.Flags().StringVar(&traceLevel, "trace", "none", "Decision trace level (none, decisions)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(shopCmd)
}

// addScenarioFlags registers the scenario source flags shared by subcommands.
func addScenarioFlags(c *cobra.Command) {
	c.Flags().StringVar(&defaultsPath, "defaults", "defaults.yaml", "Path to defaults.yaml with scenario presets")
	c.Flags().StringVar(&preset, "preset", "", "Scenario preset from defaults.yaml")
	c.Flags().StringVar(&configPath, "config", "", "Scenario YAML file (overrides the preset)")
}
