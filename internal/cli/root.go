// Package cli implements the slowpost CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rcliao/slowpost/internal/clock"
	"github.com/rcliao/slowpost/internal/config"
	"github.com/rcliao/slowpost/internal/ink"
	"github.com/rcliao/slowpost/internal/lifecycle"
	"github.com/rcliao/slowpost/internal/logging"
	"github.com/rcliao/slowpost/internal/metrics"
	"github.com/rcliao/slowpost/internal/notify"
	"github.com/rcliao/slowpost/internal/store"
)

var (
	dataDir    string
	configPath string
	formatFlag string
	logLevel   string

	cfg    config.Config
	logger = zerolog.Nop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "slowpost",
	Short: "Letters that take their time",
	Long: "Write letters that travel for days before they can be opened, and only at home.\n" +
		"Ink is limited each week and typing speed is capped. Plain JSON files, single binary.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDir, "data-dir", "d", "", "Data directory (default: $SLOWPOST_DATA_DIR or ~/.slowpost)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: slowpost.yaml in the user config dir or .)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cmd.Flags(), configPath)
	if err != nil {
		return err
	}
	cfg = c
	logger = logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Pretty)
	return nil
}

// app is everything a command needs, wired from the loaded config.
type app struct {
	svc     *lifecycle.Service
	letters *store.FileStore
	state   *store.SQLiteStore
	outbox  *notify.Outbox
	metrics *metrics.Metrics
	clock   clock.Clock
	loc     *time.Location
}

// openApp opens the stores under the data dir. reg may be nil.
func openApp(ctx context.Context, reg prometheus.Registerer) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	letters, err := store.NewFileStore(filepath.Join(cfg.DataDir, "letters"), logger)
	if err != nil {
		return nil, err
	}
	clk := clock.System{}
	state, err := store.NewSQLiteStore(ctx, filepath.Join(cfg.DataDir, "state.db"), store.WithClock(clk))
	if err != nil {
		return nil, err
	}

	a := &app{
		letters: letters,
		state:   state,
		outbox:  notify.NewOutbox(state, cfg.Notify.Title, cfg.Notify.Body),
		metrics: metrics.New(reg),
		clock:   clk,
		loc:     loc,
	}
	var sched notify.Scheduler = a.outbox
	if !cfg.Notify.Enabled {
		sched = notify.Discard{}
	}
	a.svc = lifecycle.New(lifecycle.Deps{
		Letters:     letters,
		Flags:       state,
		Scheduler:   sched,
		Clock:       a.clock,
		Limiter:     ink.Limiter{RatePerSecond: cfg.TypingCharsPerSecond},
		WeeklyLimit: cfg.WeeklyInkLimit,
		Location:    loc,
		Logger:      logger,
		Metrics:     a.metrics,
	})
	return a, nil
}

func (a *app) Close() error {
	return a.state.Close()
}

func mustOpenApp(cmd *cobra.Command) *app {
	a, err := openApp(cmd.Context(), nil)
	if err != nil {
		exitErr("open store", err)
	}
	return a
}

func textFormat() bool {
	return formatFlag == "text"
}

func printJSON(cmd *cobra.Command, v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(cmd.OutOrStdout(), string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
