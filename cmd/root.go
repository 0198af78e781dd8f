package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/replay-sim/replay-sim/replay"
	"github.com/replay-sim/replay-sim/replay/record"
)

var (
	// CLI flags for the playback session
	replayFile     string // Path of the recorded replay file
	defaultsFile   string // Optional YAML defaults file
	logLevel       string // Log verbosity level
	tickRate       int64  // Logic ticks per real-time second
	startPaused    bool   // Do not start the clock until a pause toggle arrives
	maxCheckpoints int    // Checkpoint store bound (0 = unbounded)
	traceOut       string // Optional compressed sink for engine notifications
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "replay-sim",
	Short: "Deterministic replay controller for tick-based simulations",
}

// playCmd replays a recorded session against the reference trace engine
var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play back a recorded session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadPlaybackConfig(defaultsFile)
		if err != nil {
			return err
		}
		// Explicit flags win over the defaults file and environment.
		if cmd.Flags().Changed("replay") {
			cfg.ReplayFile = replayFile
		}
		if cmd.Flags().Changed("log") {
			cfg.LogLevel = logLevel
		}
		if cmd.Flags().Changed("tick-rate") {
			cfg.TickRate = tickRate
		}
		if cmd.Flags().Changed("start-paused") {
			cfg.StartPaused = startPaused
		}
		if cmd.Flags().Changed("max-checkpoints") {
			cfg.MaxCheckpoints = maxCheckpoints
		}
		if cmd.Flags().Changed("trace-out") {
			cfg.TraceOut = traceOut
		}

		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", cfg.LogLevel)
		}
		logrus.SetLevel(level)

		if cfg.ReplayFile == "" {
			return fmt.Errorf("no replay file given (--replay or REPLAY_FILE)")
		}

		var notify replay.InfoFunc
		var sink *record.Writer
		if cfg.TraceOut != "" {
			sink, err = record.NewWriter(cfg.TraceOut)
			if err != nil {
				return err
			}
			notify = sink.Write
		}

		mgr, err := replay.NewManager(replay.Options{
			Source:         cfg.ReplayFile,
			TickRate:       cfg.TickRate,
			StartPaused:    cfg.StartPaused,
			MaxCheckpoints: cfg.MaxCheckpoints,
			Notify:         notify,
		})
		if err != nil {
			return fmt.Errorf("start session: %w", err)
		}

		logrus.Infof("playing %s: %d ticks at %d ticks/s", cfg.ReplayFile, mgr.TotalTicks(), cfg.TickRate)
		runErr := mgr.Run(func() bool { return false })
		if sink != nil {
			if err := sink.Close(); err != nil {
				logrus.Errorf("closing trace sink: %v", err)
			}
		}
		if runErr != nil {
			return fmt.Errorf("playback failed: %w", runErr)
		}
		logrus.Infof("playback finished at tick %d", mgr.LastTick())
		return nil
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
	playCmd.Flags().StringVar(&replayFile, "replay", "", "Path of the recorded replay file")
	playCmd.Flags().StringVar(&defaultsFile, "defaults", "", "Optional YAML defaults file")
	playCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	playCmd.Flags().Int64Var(&tickRate, "tick-rate", 20, "Logic ticks per real-time second")
	playCmd.Flags().BoolVar(&startPaused, "start-paused", false, "Start with the clock stopped")
	playCmd.Flags().IntVar(&maxCheckpoints, "max-checkpoints", 16, "Checkpoint store bound (0 = unbounded)")
	playCmd.Flags().StringVar(&traceOut, "trace-out", "", "Compressed sink for engine notifications")

	rootCmd.AddCommand(playCmd)
}
