package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/rcliao/slowpost/internal/notify"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Deliver unlock reminders as letters arrive",
		Long:  "Poll for due reminders and print one line per arriving letter until interrupted.",
		Args:  cobra.NoArgs,
		Run:   runWatch,
	}

	cmd.Flags().Duration("interval", 0, "Poll interval (default: notify.poll_interval from config)")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9464")

	RootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	interval, _ := cmd.Flags().GetDuration("interval")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	if interval <= 0 {
		interval = cfg.Notify.PollInterval
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := openApp(ctx, reg)
	if err != nil {
		exitErr("open store", err)
	}
	defer a.Close()

	if metricsAddr != "" {
		srv := serveMetrics(metricsAddr, reg)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	sink := notify.WriterSink{W: cmd.OutOrStdout(), Loc: a.loc}
	d := notify.NewDispatcher(a.state, sink, a.clock, cfg.Notify.PerSecond, logger, a.metrics)

	logger.Info().Dur("interval", interval).Str("metrics_addr", metricsAddr).Msg("watching for arriving letters")
	d.Run(ctx, interval)
	logger.Info().Msg("watch stopped")
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
		}
	}()
	return srv
}
